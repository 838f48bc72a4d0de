package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

func init() {
	color.NoColor = true
}

func TestRenderRouteShowsIdentifiersAndOperation(t *testing.T) {
	var buf bytes.Buffer
	route := domain.NewDatabaseRoute(0.95, "Explicit identifiers", []domain.Identifier{"TVI3", "TVI4"}, domain.OpCountInSection)
	renderRoute(&buf, route)

	out := buf.String()
	for _, want := range []string{"route: database (confidence 0.95)", "identifiers: TVI3, TVI4", "operation: count_in_section"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderEnvelopeListsSourcesAndOptionalChunks(t *testing.T) {
	env := &domain.ResultEnvelope{
		Answer:     "Paratransit eligibility is reviewed under ADA.",
		Confidence: domain.ConfidenceMedium,
		Backend:    domain.BackendRAG,
		Sources: []domain.Source{
			{Type: domain.SourceTypeDocument, ChunkID: "c1", FilePath: "guide.pdf", Collection: "fta_compliance_guide", Score: 0.8123},
		},
		RankedChunks: []domain.Source{
			{Type: domain.SourceTypeDocument, ChunkID: "c1", Collection: "fta_compliance_guide", Excerpt: "eligibility..."},
		},
	}

	var without bytes.Buffer
	renderEnvelope(&without, env, false)
	if !strings.Contains(without.String(), "guide.pdf #c1 [fta_compliance_guide] score 0.812") {
		t.Fatalf("unexpected source line:\n%s", without.String())
	}
	if strings.Contains(without.String(), "ranked chunks") {
		t.Fatalf("chunks must be hidden by default")
	}

	var with bytes.Buffer
	renderEnvelope(&with, env, true)
	if !strings.Contains(with.String(), "eligibility...") {
		t.Fatalf("expected chunk excerpt:\n%s", with.String())
	}
}

func TestRenderHistory(t *testing.T) {
	var empty bytes.Buffer
	renderHistory(&empty, nil)
	if !strings.Contains(empty.String(), "no queries recorded") {
		t.Fatalf("unexpected empty history %q", empty.String())
	}

	var buf bytes.Buffer
	renderHistory(&buf, []domain.QueryLogEntry{{
		Question:   "How many deficiencies in TVI3?",
		Route:      domain.RouteDatabase,
		Backend:    domain.BackendDatabase,
		Confidence: domain.ConfidenceHigh,
		LatencyMS:  12.5,
		CreatedAt:  time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC),
	}})
	out := buf.String()
	if !strings.Contains(out, "2026-10-16 09:30:00") || !strings.Contains(out, "How many deficiencies in TVI3?") {
		t.Fatalf("unexpected history line %q", out)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"classify", "ask", "seed", "reindex", "history"} {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("expected subcommand %s, got %v (%v)", name, cmd, err)
		}
	}
}

func TestClassifyCommandUsesDefaultPhrases(t *testing.T) {
	t.Setenv("ROUTING_PHRASES_FILE", "")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"classify", "How", "many", "indicators", "are", "in", "TVI3?"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(out.String(), "route: database") || !strings.Contains(out.String(), "TVI3") {
		t.Fatalf("unexpected classify output:\n%s", out.String())
	}
}
