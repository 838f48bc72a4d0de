package usecase

import (
	"fmt"
	"math"
	"strings"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

const structuredSourceFooter = "*Source: Structured database (100% accurate)*"

const (
	noSectionAnswer           = "I couldn't identify which section you're asking about. Please specify a section code (e.g., TVI3, L1, CB2)."
	ragUnavailableAnswer      = "RAG pipeline not initialized. Please use database queries for now."
	generationFailedAnswer    = "The answer generator is unavailable right now. Please try again later."
	databaseUnavailableAnswer = "The compliance database is unavailable right now. Please try again later."
	noEvidenceAnswer          = "I couldn't find relevant information in the compliance guide to answer your question."
	noSectionsFound           = "Could not find the requested sections."
)

// sectionFamilies are the names recognised when labelling multi-section sums.
var sectionFamilies = []string{"Legal", "Title VI", "Charter Bus", "School Bus", "ADA", "Procurement", "Financial"}

func countNoun(deficiencies bool) string {
	if deficiencies {
		return "deficiencies"
	}
	return "indicators of compliance"
}

func notFoundAnswer(id domain.Identifier) string {
	return fmt.Sprintf("Question code %s not found", id)
}

func formatCount(res domain.CountResult, deficiencies bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**: %s\n\n", res.Code, res.Question.Text)
	fmt.Fprintf(&b, "There are **%d %s** for this question.\n\n", res.Count, countNoun(deficiencies))
	b.WriteString(structuredSourceFooter)
	return b.String()
}

func indicatorListBlock(list domain.IndicatorList) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**: %s\n\n", list.Code, list.Question.Text)
	fmt.Fprintf(&b, "There are **%d indicators of compliance**:\n\n", len(list.Indicators))
	for _, ind := range list.Indicators {
		fmt.Fprintf(&b, "%s. %s\n\n", ind.Letter, ind.Text)
	}
	return b.String()
}

func deficiencyListBlock(list domain.DeficiencyList) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**: %s\n\n", list.Code, list.Question.Text)
	fmt.Fprintf(&b, "There are **%d potential deficiencies**:\n\n", len(list.Deficiencies))
	for _, def := range list.Deficiencies {
		fmt.Fprintf(&b, "**%s**: %s\n", def.Code, def.Title)
		fmt.Fprintf(&b, "- Determination: %s\n", def.Determination)
		if def.CorrectiveAction != "" {
			fmt.Fprintf(&b, "- Corrective Action: %s\n", def.CorrectiveAction)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func sectionDetailBlock(detail domain.SectionDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**: %s\n\n", detail.Code, detail.Question.Text)
	if detail.Section.Name != "" {
		fmt.Fprintf(&b, "**Section**: %s\n\n", detail.Section.Name)
	}
	if detail.Question.BasicRequirement != "" {
		fmt.Fprintf(&b, "**Basic Requirement**: %s\n\n", detail.Question.BasicRequirement)
	}
	if detail.Question.Applicability != "" {
		fmt.Fprintf(&b, "**Applicability**: %s\n\n", detail.Question.Applicability)
	}
	b.WriteString("**Statistics**:\n")
	fmt.Fprintf(&b, "- Indicators of Compliance: %d\n", detail.Stats.IndicatorCount)
	fmt.Fprintf(&b, "- Potential Deficiencies: %d\n\n", detail.Stats.DeficiencyCount)

	if len(detail.Indicators) > 0 {
		fmt.Fprintf(&b, "**Indicators of Compliance** (%d):\n", detail.Stats.IndicatorCount)
		for i, ind := range detail.Indicators {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "%s. %s\n", ind.Letter, ind.Text)
		}
		if detail.Stats.IndicatorCount > 5 {
			fmt.Fprintf(&b, "... and %d more\n", detail.Stats.IndicatorCount-5)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func withFooter(blocks ...string) string {
	return strings.Join(blocks, "") + structuredSourceFooter
}

func formatTotals(t domain.Totals) string {
	var b strings.Builder
	b.WriteString("**Overall Compliance Guide Statistics**\n\n")
	fmt.Fprintf(&b, "- **Sections**: %d\n", t.Sections)
	fmt.Fprintf(&b, "- **Questions**: %d\n", t.Questions)
	fmt.Fprintf(&b, "- **Indicators of Compliance**: %d\n", t.Indicators)
	fmt.Fprintf(&b, "- **Potential Deficiencies**: %d\n\n", t.Deficiencies)
	b.WriteString(structuredSourceFooter)
	return b.String()
}

func sectionFamilyName(lowered string) string {
	for _, name := range sectionFamilies {
		if strings.Contains(lowered, strings.ToLower(name)) {
			return name
		}
	}
	return "the selected sections"
}

// formatSectionSum renders a count summed over several identifiers.
func formatSectionSum(name string, ids []domain.Identifier, total int, deficiencies bool) string {
	shown := ids
	suffix := ""
	if len(shown) > 5 {
		shown = shown[:5]
		suffix = "..."
	}
	noun := "indicators of compliance"
	if deficiencies {
		noun = "deficiencies"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (%d questions: %s%s)\n\n", name, len(ids), strings.Join(domain.IdentifierStrings(shown), ", "), suffix)
	fmt.Fprintf(&b, "There are **%d total %s** across all questions in this section.\n\n", total, noun)
	b.WriteString(structuredSourceFooter)
	return b.String()
}

func formatComparison(details []domain.SectionDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Comparison of %d sections**:\n\n", len(details))
	for _, d := range details {
		fmt.Fprintf(&b, "### %s\n", d.Code)
		fmt.Fprintf(&b, "%s\n\n", d.Question.Text)
		fmt.Fprintf(&b, "- Indicators: %d\n", d.Stats.IndicatorCount)
		fmt.Fprintf(&b, "- Deficiencies: %d\n\n", d.Stats.DeficiencyCount)
	}
	b.WriteString(structuredSourceFooter)
	return b.String()
}

// formatBreakdown groups indicators (or deficiencies) under one heading per identifier.
func formatBreakdown(details []domain.SectionDetail, deficiencies, applicability bool) string {
	total := 0
	for _, d := range details {
		if deficiencies {
			total += len(d.Deficiencies)
		} else {
			total += len(d.Indicators)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Breakdown of %d sections** (%d %s):\n\n", len(details), total, countNoun(deficiencies))
	for _, d := range details {
		fmt.Fprintf(&b, "### %s\n", d.Code)
		fmt.Fprintf(&b, "%s\n\n", d.Question.Text)
		if applicability && d.Question.Applicability != "" {
			fmt.Fprintf(&b, "**Applicability**: %s\n\n", d.Question.Applicability)
		}
		if deficiencies {
			for _, def := range d.Deficiencies {
				fmt.Fprintf(&b, "- **%s**: %s\n", def.Code, def.Title)
			}
		} else {
			for _, ind := range d.Indicators {
				fmt.Fprintf(&b, "- %s. %s\n", ind.Letter, ind.Text)
			}
		}
		b.WriteString("\n")
	}
	b.WriteString(structuredSourceFooter)
	return b.String()
}

func databaseSource(code domain.Identifier) domain.Source {
	return domain.Source{Type: domain.SourceTypeDatabase, QuestionCode: code.String()}
}

func intPtr(v int) *int {
	return &v
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func lowEnvelope(answer string, backend domain.BackendTag) *domain.ResultEnvelope {
	return &domain.ResultEnvelope{
		Answer:     answer,
		Confidence: domain.ConfidenceLow,
		Backend:    backend,
	}
}
