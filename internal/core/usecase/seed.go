package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
	"github.com/kirillkom/compliance-assistant/internal/core/ports"
)

// SeedGuideUseCase replaces the structured guide with a parsed export.
type SeedGuideUseCase struct {
	loader ports.GuideLoader
}

func NewSeedGuideUseCase(loader ports.GuideLoader) *SeedGuideUseCase {
	return &SeedGuideUseCase{loader: loader}
}

// Seed returns the totals that were handed to the store. Repeated question codes
// inside one section count once, matching what ReplaceGuide keeps.
func (uc *SeedGuideUseCase) Seed(ctx context.Context, sections []domain.GuideSection) (domain.Totals, error) {
	if len(sections) == 0 {
		return domain.Totals{}, domain.WrapError(domain.ErrInvalidInput, "seed guide", errors.New("no sections"))
	}

	var totals domain.Totals
	seenSections := make(map[string]struct{}, len(sections))
	for _, s := range sections {
		if _, dup := seenSections[s.Section.Code]; dup {
			return domain.Totals{}, domain.WrapError(domain.ErrInvalidInput, "seed guide", fmt.Errorf("duplicate section %s", s.Section.Code))
		}
		seenSections[s.Section.Code] = struct{}{}
		totals.Sections++

		seenQuestions := make(map[string]struct{}, len(s.Questions))
		for _, q := range s.Questions {
			if _, dup := seenQuestions[q.Question.Code]; dup {
				continue
			}
			seenQuestions[q.Question.Code] = struct{}{}
			totals.Questions++
			totals.Indicators += len(q.Indicators)
			totals.Deficiencies += len(q.Deficiencies)
		}
	}

	if err := uc.loader.ReplaceGuide(ctx, sections); err != nil {
		return domain.Totals{}, fmt.Errorf("seed guide: %w", err)
	}
	return totals, nil
}
