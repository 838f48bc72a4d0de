package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

var listOrApplicabilityCues = []string{"list", "show", "applicab", "apply to", "applies to"}

func (uc *QueryUseCase) executeHybrid(ctx context.Context, question string, route domain.QueryRoute) (*domain.ResultEnvelope, error) {
	ids := route.Identifiers()
	if len(ids) == 0 {
		return uc.hybridTotals(ctx)
	}

	lowered := strings.ToLower(question)
	deficiencies := strings.Contains(lowered, "deficienc")

	details, _, err := uc.sectionDetails(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return lowEnvelope(noSectionsFound, domain.BackendDatabase), nil
	}

	switch {
	case len(ids) > 1 && containsAny(lowered, listOrApplicabilityCues):
		return breakdownEnvelope(details, deficiencies, strings.Contains(lowered, "appl")), nil
	case len(ids) > 1 && hasCountCue(lowered):
		return sumEnvelope(lowered, ids, details, deficiencies), nil
	default:
		return comparisonEnvelope(details), nil
	}
}

func (uc *QueryUseCase) hybridTotals(ctx context.Context) (*domain.ResultEnvelope, error) {
	callCtx, cancel := uc.callContext(ctx)
	defer cancel()

	totals, err := uc.store.GetTotals(callCtx)
	if err != nil {
		return nil, fmt.Errorf("get totals: %w", err)
	}
	return &domain.ResultEnvelope{
		Answer:     formatTotals(totals),
		Confidence: domain.ConfidenceHigh,
		Sources:    []domain.Source{{Type: domain.SourceTypeDatabase, Aggregate: true}},
		Backend:    domain.BackendDatabaseAggregate,
	}, nil
}

func breakdownEnvelope(details []domain.SectionDetail, deficiencies, applicability bool) *domain.ResultEnvelope {
	sources := make([]domain.Source, 0, len(details))
	for _, d := range details {
		items := len(d.Indicators)
		if deficiencies {
			items = len(d.Deficiencies)
		}
		sources = append(sources, domain.Source{
			Type:         domain.SourceTypeDatabase,
			QuestionCode: d.Code.String(),
			ItemCount:    intPtr(items),
		})
	}
	return &domain.ResultEnvelope{
		Answer:     formatBreakdown(details, deficiencies, applicability),
		Confidence: domain.ConfidenceHigh,
		Sources:    sources,
		Backend:    domain.BackendDatabaseBreakdown,
	}
}

// sumEnvelope labels the sum with every requested identifier, found or not.
func sumEnvelope(lowered string, ids []domain.Identifier, details []domain.SectionDetail, deficiencies bool) *domain.ResultEnvelope {
	total := 0
	for _, d := range details {
		if deficiencies {
			total += d.Stats.DeficiencyCount
		} else {
			total += d.Stats.IndicatorCount
		}
	}
	return &domain.ResultEnvelope{
		Answer:     formatSectionSum(sectionFamilyName(lowered), ids, total, deficiencies),
		Confidence: domain.ConfidenceHigh,
		Sources: []domain.Source{{
			Type:     domain.SourceTypeDatabase,
			Sections: domain.IdentifierStrings(ids),
			Count:    intPtr(total),
		}},
		Backend: domain.BackendDatabaseAggregate,
	}
}

func comparisonEnvelope(details []domain.SectionDetail) *domain.ResultEnvelope {
	codes := make([]string, 0, len(details))
	for _, d := range details {
		codes = append(codes, d.Code.String())
	}
	return &domain.ResultEnvelope{
		Answer:     formatComparison(details),
		Confidence: domain.ConfidenceHigh,
		Sources:    []domain.Source{{Type: domain.SourceTypeDatabase, Sections: codes}},
		Backend:    domain.BackendDatabaseComparison,
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
