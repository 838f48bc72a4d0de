package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

var (
	headingText   = color.New(color.FgCyan, color.Bold).SprintFunc()
	highlightText = color.New(color.FgYellow).SprintFunc()
	successText   = color.New(color.FgGreen, color.Bold).SprintFunc()
	errorText     = color.New(color.FgRed, color.Bold).SprintFunc()
	dimText       = color.New(color.Faint).SprintFunc()
)

func confidenceText(tier domain.ConfidenceTier) string {
	switch tier {
	case domain.ConfidenceHigh:
		return successText(string(tier))
	case domain.ConfidenceMedium:
		return highlightText(string(tier))
	default:
		return errorText(string(tier))
	}
}

func renderRoute(w io.Writer, route domain.QueryRoute) {
	fmt.Fprintf(w, "%s %s (confidence %.2f)\n", headingText("route:"), highlightText(string(route.Kind)), route.Confidence)
	fmt.Fprintf(w, "%s %s\n", headingText("reasoning:"), route.Reasoning)
	if ids := route.Identifiers(); len(ids) > 0 {
		codes := make([]string, 0, len(ids))
		for _, id := range ids {
			codes = append(codes, id.String())
		}
		fmt.Fprintf(w, "%s %s\n", headingText("identifiers:"), strings.Join(codes, ", "))
	}
	if route.Database != nil && route.Database.Operation != "" {
		fmt.Fprintf(w, "%s %s\n", headingText("operation:"), route.Database.Operation)
	}
	if keywords := route.Keywords(); len(keywords) > 0 {
		fmt.Fprintf(w, "%s %s\n", headingText("keywords:"), strings.Join(keywords, ", "))
	}
}

func renderEnvelope(w io.Writer, env *domain.ResultEnvelope, showChunks bool) {
	fmt.Fprintln(w, env.Answer)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %s  %s %s  %s %.0fms\n",
		headingText("confidence:"), confidenceText(env.Confidence),
		headingText("backend:"), env.Backend,
		headingText("took:"), env.Metadata.ExecutionTimeMS,
	)
	if len(env.Sources) > 0 {
		fmt.Fprintln(w, headingText("sources:"))
		for _, src := range env.Sources {
			fmt.Fprintf(w, "  - %s\n", describeSource(src))
		}
	}
	if showChunks && len(env.RankedChunks) > 0 {
		fmt.Fprintln(w, headingText("ranked chunks:"))
		for i, chunk := range env.RankedChunks {
			fmt.Fprintf(w, "  %d. %s\n     %s\n", i+1, describeSource(chunk), dimText(chunk.Excerpt))
		}
	}
}

func describeSource(src domain.Source) string {
	if src.Type == domain.SourceTypeDatabase {
		if src.QuestionCode != "" {
			return "database " + src.QuestionCode
		}
		return "database " + strings.Join(src.Sections, ", ")
	}
	label := src.ChunkID
	if src.FilePath != "" {
		label = src.FilePath + " #" + src.ChunkID
	}
	return fmt.Sprintf("%s [%s] score %.3f", label, src.Collection, src.Score)
}

func renderTotals(w io.Writer, totals domain.Totals) {
	fmt.Fprintf(w, "%s seeded %d sections, %d questions, %d indicators, %d deficiencies\n",
		successText("ok"), totals.Sections, totals.Questions, totals.Indicators, totals.Deficiencies)
}

func renderHistory(w io.Writer, entries []domain.QueryLogEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, dimText("no queries recorded"))
		return
	}
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-8s %-20s %-6s %7.1fms  %s\n",
			dimText(e.CreatedAt.Format("2006-01-02 15:04:05")),
			e.Route, e.Backend, confidenceText(e.Confidence), e.LatencyMS, e.Question)
	}
}
