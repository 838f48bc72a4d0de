package routing

import (
	"reflect"
	"testing"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

func newDefaultClassifier() *Classifier {
	return NewClassifier(NewIdentifierExtractor(DefaultPhraseMap()))
}

func TestClassifyCountInSingleSection(t *testing.T) {
	route := newDefaultClassifier().Classify("How many indicators are in TVI3?")

	if route.Kind != domain.RouteDatabase {
		t.Fatalf("expected database route, got %s", route.Kind)
	}
	if route.Confidence != 0.90 {
		t.Fatalf("expected confidence 0.90, got %v", route.Confidence)
	}
	if !reflect.DeepEqual(route.Identifiers(), []domain.Identifier{"TVI3"}) {
		t.Fatalf("unexpected identifiers: %v", route.Identifiers())
	}
	if route.Database.Operation != domain.OpCountInSection {
		t.Fatalf("expected count_in_section, got %q", route.Database.Operation)
	}
}

func TestClassifyCompareTwoSectionsIsHybrid(t *testing.T) {
	route := newDefaultClassifier().Classify("Compare TVI3 and L1")

	if route.Kind != domain.RouteHybrid {
		t.Fatalf("expected hybrid route, got %s", route.Kind)
	}
	if route.Confidence != 0.80 {
		t.Fatalf("expected confidence 0.80, got %v", route.Confidence)
	}
	if !reflect.DeepEqual(route.Identifiers(), []domain.Identifier{"L1", "TVI3"}) {
		t.Fatalf("unexpected identifiers: %v", route.Identifiers())
	}
	if route.Reasoning != "Multiple sections detected: L1, TVI3. Requires both structured data and context." {
		t.Fatalf("unexpected reasoning: %q", route.Reasoning)
	}
}

func TestClassifyConceptualQuestionIsRAG(t *testing.T) {
	route := newDefaultClassifier().Classify("What are the ADA compliance requirements?")

	if route.Kind != domain.RouteRAG {
		t.Fatalf("expected rag route, got %s", route.Kind)
	}
	if route.Identifiers() != nil {
		t.Fatalf("expected no identifiers, got %v", route.Identifiers())
	}
	if !reflect.DeepEqual(route.Keywords(), []string{"compliance", "requirements"}) {
		t.Fatalf("unexpected keywords: %v", route.Keywords())
	}
	if route.Confidence != 0.85 {
		t.Fatalf("expected confidence 0.85, got %v", route.Confidence)
	}
}

func TestClassifyCountVerbWithAnyCodeFamily(t *testing.T) {
	c := newDefaultClassifier()
	codes := map[string]domain.Identifier{
		"TVI10-1":  "TVI10-1",
		"ADA-GEN3": "ADA-GEN3",
		"TC-PjM4":  "TC-PJM4",
		"F5":       "F5",
		"l1":       "L1",
		"CB2":      "CB2",
	}
	for raw, want := range codes {
		route := c.Classify("How many indicators are in " + raw + "?")
		if route.Kind != domain.RouteDatabase {
			t.Fatalf("%s: expected database route, got %s", raw, route.Kind)
		}
		if !reflect.DeepEqual(route.Identifiers(), []domain.Identifier{want}) {
			t.Fatalf("%s: unexpected identifiers %v", raw, route.Identifiers())
		}
		if route.Database.Operation != domain.OpCountInSection {
			t.Fatalf("%s: expected count_in_section, got %q", raw, route.Database.Operation)
		}
	}
}

func TestClassifyMultipleIdentifiersAlwaysHybrid(t *testing.T) {
	c := newDefaultClassifier()
	questions := []string{
		"How many indicators are in TVI3 and L1?",
		"Show me TVI3 and L1 indicators",
		"Explain CB1 CB2",
		"How many indicators are in Title VI?",
	}
	for _, q := range questions {
		route := c.Classify(q)
		if route.Kind != domain.RouteHybrid {
			t.Fatalf("%q: expected hybrid route, got %s", q, route.Kind)
		}
		if len(route.Identifiers()) < 2 {
			t.Fatalf("%q: expected several identifiers, got %v", q, route.Identifiers())
		}
	}
}

func TestClassifyDecisionOrder(t *testing.T) {
	c := newDefaultClassifier()
	cases := []struct {
		question string
		rule     string
		kind     domain.RouteKind
	}{
		{"Compare TVI3 and L1", "multi_section", domain.RouteHybrid},
		{"How many indicators are in TVI3 and why?", "section_conceptual", domain.RouteHybrid},
		{"What is the purpose of F5?", "section_conceptual", domain.RouteHybrid},
		{"List all deficiencies in TVI6", "section_operation", domain.RouteDatabase},
		{"Explain TVI3", "section_operation", domain.RouteDatabase},
		{"Tell me about TVI3", "section_default", domain.RouteDatabase},
		{"How many total indicators are there?", "corpus_aggregate", domain.RouteHybrid},
		{"What are the ADA compliance requirements?", "conceptual", domain.RouteRAG},
	}
	for _, tc := range cases {
		route, name := c.classify(tc.question)
		if name != tc.rule {
			t.Fatalf("%q: expected rule %s, got %s", tc.question, tc.rule, name)
		}
		if route.Kind != tc.kind {
			t.Fatalf("%q: expected %s, got %s", tc.question, tc.kind, route.Kind)
		}
	}
}

func TestClassifyOperationTagging(t *testing.T) {
	c := newDefaultClassifier()
	cases := map[string]domain.Operation{
		"List all deficiencies in TVI6": domain.OpListInSection,
		"Explain TVI3":                  domain.OpGetSection,
		"Count the indicators for CB2":  domain.OpCountInSection,
	}
	for q, want := range cases {
		route := c.Classify(q)
		if route.Database == nil || route.Database.Operation != want {
			t.Fatalf("%q: expected operation %s, got %+v", q, want, route)
		}
		if route.Confidence != 0.90 {
			t.Fatalf("%q: expected confidence 0.90, got %v", q, route.Confidence)
		}
	}

	route := c.Classify("Tell me about TVI3")
	if route.Database == nil || route.Database.Operation != "" || route.Confidence != 0.85 {
		t.Fatalf("expected default database route without operation, got %+v", route)
	}
}

func TestClassifyAggregateHasNoIdentifiers(t *testing.T) {
	route := newDefaultClassifier().Classify("How many total indicators are there?")
	if route.Kind != domain.RouteHybrid || route.Confidence != 0.70 {
		t.Fatalf("expected aggregate hybrid route, got %+v", route)
	}
	if route.Identifiers() != nil {
		t.Fatalf("expected nil identifiers, got %v", route.Identifiers())
	}
}

func TestExtractKeywords(t *testing.T) {
	got := extractKeywords("explain the documentation expectations for subrecipients during monitoring reviews")
	want := []string{"explain", "documentation", "expectations", "subrecipients", "during"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected keywords: %v", got)
	}
}

func TestCorpusWideCountMatch(t *testing.T) {
	cases := map[string]bool{
		"total deficiencies":                           true,
		"all indicators in tvi3":                       false,
		"all indicators for l1":                        false,
		"all indicators for l1 and total deficiencies": true,
		"all indicators":                               true,
	}
	for text, want := range cases {
		if got := corpusWideCountMatch(text); got != want {
			t.Fatalf("%q: expected %v, got %v", text, want, got)
		}
	}
}

func TestDecisionTableEndsWithCatchAll(t *testing.T) {
	last := decisionTable[len(decisionTable)-1]
	if !last.when(signals{}) {
		t.Fatalf("last rule %s must match every question", last.name)
	}
}

func TestClassifyExhaustedTableUsesLastRule(t *testing.T) {
	c := newDefaultClassifier()
	c.rules = []rule{
		decisionTable[0],
		{
			name:  "catch_all",
			when:  func(signals) bool { return false },
			route: decisionTable[len(decisionTable)-1].route,
		},
	}

	route, name := c.classify("What are the ADA compliance requirements?")
	if name != "catch_all" || route.Kind != domain.RouteRAG {
		t.Fatalf("expected catch-all rag route, got %s from %s", route.Kind, name)
	}
	if route.Confidence != 0.85 {
		t.Fatalf("expected conceptual confidence, got %v", route.Confidence)
	}
}
