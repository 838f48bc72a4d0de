package routing

import (
	"fmt"
	"strings"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

const (
	confidenceMultiSection      = 0.80
	confidenceSectionConceptual = 0.75
	confidenceSectionOperation  = 0.90
	confidenceSectionDefault    = 0.85
	confidenceAggregate         = 0.70
	confidenceConceptual        = 0.85
)

// signals are computed once per question and shared by every rule.
type signals struct {
	lowered   string
	ids       []domain.Identifier
	operation domain.Operation
	hasOp     bool
	hybrid    bool
	aggregate bool
}

type rule struct {
	name  string
	when  func(signals) bool
	route func(signals) domain.QueryRoute
}

// decisionTable is evaluated top to bottom; the first rule whose predicate holds wins.
// The last rule always matches.
var decisionTable = []rule{
	{
		name: "multi_section",
		when: func(s signals) bool { return len(s.ids) > 1 },
		route: func(s signals) domain.QueryRoute {
			return domain.NewHybridRoute(confidenceMultiSection,
				fmt.Sprintf("Multiple sections detected: %s. Requires both structured data and context.", joinIdentifiers(s.ids)),
				s.ids)
		},
	},
	{
		name: "section_conceptual",
		when: func(s signals) bool { return len(s.ids) == 1 && s.hybrid },
		route: func(s signals) domain.QueryRoute {
			return domain.NewHybridRoute(confidenceSectionConceptual,
				fmt.Sprintf("Section %s with conceptual query. Requires both database and RAG.", s.ids[0]),
				s.ids)
		},
	},
	{
		name: "section_operation",
		when: func(s signals) bool { return len(s.ids) == 1 && s.hasOp },
		route: func(s signals) domain.QueryRoute {
			return domain.NewDatabaseRoute(confidenceSectionOperation,
				fmt.Sprintf("Specific section query (%s) with section IDs: %s", s.operation, joinIdentifiers(s.ids)),
				s.ids, s.operation)
		},
	},
	{
		name: "section_default",
		when: func(s signals) bool { return len(s.ids) == 1 },
		route: func(s signals) domain.QueryRoute {
			return domain.NewDatabaseRoute(confidenceSectionDefault,
				fmt.Sprintf("Single section query for %s. Direct database lookup suitable.", s.ids[0]),
				s.ids, "")
		},
	},
	{
		name: "corpus_aggregate",
		when: func(s signals) bool { return s.hybrid || s.aggregate },
		route: func(signals) domain.QueryRoute {
			return domain.NewHybridRoute(confidenceAggregate,
				"Aggregate query across all sections. Requires database + RAG.", nil)
		},
	},
	{
		name: "conceptual",
		when: func(signals) bool { return true },
		route: func(s signals) domain.QueryRoute {
			return domain.NewRAGRoute(confidenceConceptual,
				"Conceptual question with no specific sections. Pure RAG retrieval.",
				extractKeywords(s.lowered))
		},
	},
}

// Classifier decides the execution route of a question. It holds no mutable state.
type Classifier struct {
	extractor *IdentifierExtractor
	rules     []rule
}

func NewClassifier(extractor *IdentifierExtractor) *Classifier {
	return &Classifier{
		extractor: extractor,
		rules:     decisionTable,
	}
}

func (c *Classifier) Classify(question string) domain.QueryRoute {
	route, _ := c.classify(question)
	return route
}

// Extract exposes the identifiers the classifier sees.
func (c *Classifier) Extract(question string) []domain.Identifier {
	return c.extractor.Extract(question)
}

func (c *Classifier) classify(question string) (domain.QueryRoute, string) {
	s := c.signals(question)
	for _, r := range c.rules {
		if r.when(s) {
			return r.route(s), r.name
		}
	}
	// The last rule is the catch-all even if its predicate is narrowed.
	last := c.rules[len(c.rules)-1]
	return last.route(s), last.name
}

func (c *Classifier) signals(question string) signals {
	lowered := strings.ToLower(question)
	op, hasOp := matchOperation(lowered)
	return signals{
		lowered:   lowered,
		ids:       c.extractor.Extract(question),
		operation: op,
		hasOp:     hasOp,
		hybrid:    matchesHybrid(lowered),
		aggregate: isAggregateQuestion(lowered),
	}
}

func joinIdentifiers(ids []domain.Identifier) string {
	return strings.Join(domain.IdentifierStrings(ids), ", ")
}
