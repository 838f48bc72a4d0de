package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

type structuredOp int

const (
	opGetSection structuredOp = iota
	opCount
	opList
)

// structuredIntent is re-derived from the question wording; the classifier's
// operation tag only records which pattern fired.
type structuredIntent struct {
	op           structuredOp
	deficiencies bool
}

func deriveIntent(lowered string) structuredIntent {
	intent := structuredIntent{deficiencies: strings.Contains(lowered, "deficienc")}
	switch {
	case hasCountCue(lowered):
		intent.op = opCount
	case strings.Contains(lowered, "list"), strings.Contains(lowered, "show"), strings.Contains(lowered, "all"):
		intent.op = opList
	default:
		intent.op = opGetSection
	}
	return intent
}

func hasCountCue(lowered string) bool {
	return strings.Contains(lowered, "how many") || strings.Contains(lowered, "count")
}

func (uc *QueryUseCase) executeDatabase(ctx context.Context, question string, route domain.QueryRoute) (*domain.ResultEnvelope, error) {
	ids := route.Identifiers()
	if len(ids) == 0 {
		return lowEnvelope(noSectionAnswer, domain.BackendDatabaseError), nil
	}

	intent := deriveIntent(strings.ToLower(question))
	switch intent.op {
	case opCount:
		return uc.databaseCount(ctx, ids, intent.deficiencies)
	case opList:
		return uc.databaseList(ctx, ids, intent.deficiencies)
	default:
		return uc.databaseSection(ctx, ids)
	}
}

func (uc *QueryUseCase) databaseCount(ctx context.Context, ids []domain.Identifier, deficiencies bool) (*domain.ResultEnvelope, error) {
	var (
		found   []domain.CountResult
		missing domain.Identifier
	)
	for _, id := range ids {
		res, err := uc.count(ctx, id, deficiencies)
		if domain.IsKind(err, domain.ErrSectionNotFound) {
			if missing == "" {
				missing = id
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		found = append(found, res)
	}
	if len(found) == 0 {
		return lowEnvelope(notFoundAnswer(missing), domain.BackendDatabase), nil
	}

	if len(found) == 1 {
		res := found[0]
		return &domain.ResultEnvelope{
			Answer:     formatCount(res, deficiencies),
			Confidence: domain.ConfidenceHigh,
			Sources: []domain.Source{{
				Type:         domain.SourceTypeDatabase,
				QuestionCode: res.Code.String(),
				Count:        intPtr(res.Count),
			}},
			Backend: domain.BackendDatabase,
		}, nil
	}

	total := 0
	codes := make([]domain.Identifier, 0, len(found))
	for _, res := range found {
		total += res.Count
		codes = append(codes, res.Code)
	}
	return &domain.ResultEnvelope{
		Answer:     formatSectionSum("the selected sections", codes, total, deficiencies),
		Confidence: domain.ConfidenceHigh,
		Sources: []domain.Source{{
			Type:     domain.SourceTypeDatabase,
			Sections: domain.IdentifierStrings(codes),
			Count:    intPtr(total),
		}},
		Backend: domain.BackendDatabase,
	}, nil
}

func (uc *QueryUseCase) count(ctx context.Context, id domain.Identifier, deficiencies bool) (domain.CountResult, error) {
	callCtx, cancel := uc.callContext(ctx)
	defer cancel()

	if deficiencies {
		res, err := uc.store.CountDeficiencies(callCtx, id)
		if err != nil {
			return domain.CountResult{}, fmt.Errorf("count deficiencies: %w", err)
		}
		return res, nil
	}
	res, err := uc.store.CountIndicators(callCtx, id)
	if err != nil {
		return domain.CountResult{}, fmt.Errorf("count indicators: %w", err)
	}
	return res, nil
}

func (uc *QueryUseCase) databaseList(ctx context.Context, ids []domain.Identifier, deficiencies bool) (*domain.ResultEnvelope, error) {
	var (
		blocks  []string
		sources []domain.Source
		missing domain.Identifier
	)
	for _, id := range ids {
		block, items, err := uc.listBlock(ctx, id, deficiencies)
		if domain.IsKind(err, domain.ErrSectionNotFound) {
			if missing == "" {
				missing = id
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
		sources = append(sources, domain.Source{
			Type:         domain.SourceTypeDatabase,
			QuestionCode: id.String(),
			ItemCount:    intPtr(items),
		})
	}
	if len(blocks) == 0 {
		return lowEnvelope(notFoundAnswer(missing), domain.BackendDatabase), nil
	}
	return &domain.ResultEnvelope{
		Answer:     withFooter(blocks...),
		Confidence: domain.ConfidenceHigh,
		Sources:    sources,
		Backend:    domain.BackendDatabase,
	}, nil
}

func (uc *QueryUseCase) listBlock(ctx context.Context, id domain.Identifier, deficiencies bool) (string, int, error) {
	callCtx, cancel := uc.callContext(ctx)
	defer cancel()

	if deficiencies {
		list, err := uc.store.ListDeficiencies(callCtx, id)
		if err != nil {
			return "", 0, fmt.Errorf("list deficiencies: %w", err)
		}
		return deficiencyListBlock(list), len(list.Deficiencies), nil
	}
	list, err := uc.store.ListIndicators(callCtx, id)
	if err != nil {
		return "", 0, fmt.Errorf("list indicators: %w", err)
	}
	return indicatorListBlock(list), len(list.Indicators), nil
}

func (uc *QueryUseCase) databaseSection(ctx context.Context, ids []domain.Identifier) (*domain.ResultEnvelope, error) {
	details, missing, err := uc.sectionDetails(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return lowEnvelope(notFoundAnswer(missing), domain.BackendDatabase), nil
	}

	blocks := make([]string, 0, len(details))
	sources := make([]domain.Source, 0, len(details))
	for _, d := range details {
		blocks = append(blocks, sectionDetailBlock(d))
		sources = append(sources, databaseSource(d.Code))
	}
	return &domain.ResultEnvelope{
		Answer:     withFooter(blocks...),
		Confidence: domain.ConfidenceHigh,
		Sources:    sources,
		Backend:    domain.BackendDatabase,
	}, nil
}

// sectionDetails fetches every identifier, skipping misses. The first missing
// identifier is returned for the not-found answer.
func (uc *QueryUseCase) sectionDetails(ctx context.Context, ids []domain.Identifier) ([]domain.SectionDetail, domain.Identifier, error) {
	var (
		details []domain.SectionDetail
		missing domain.Identifier
	)
	for _, id := range ids {
		callCtx, cancel := uc.callContext(ctx)
		detail, err := uc.store.GetSection(callCtx, id)
		cancel()
		if domain.IsKind(err, domain.ErrSectionNotFound) {
			if missing == "" {
				missing = id
			}
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("get section: %w", err)
		}
		details = append(details, detail)
	}
	return details, missing, nil
}
