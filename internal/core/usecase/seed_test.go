package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

type guideLoaderFake struct {
	sections []domain.GuideSection
	err      error
}

func (f *guideLoaderFake) ReplaceGuide(_ context.Context, sections []domain.GuideSection) error {
	if f.err != nil {
		return f.err
	}
	f.sections = sections
	return nil
}

func seedSections() []domain.GuideSection {
	tvi3 := domain.GuideQuestion{
		Question:     domain.Question{Code: "TVI3", Text: "Notice?"},
		Indicators:   []domain.Indicator{{Letter: "a"}, {Letter: "b"}},
		Deficiencies: []domain.Deficiency{{Code: "TVI3-1"}},
	}
	return []domain.GuideSection{
		{Section: domain.Section{Code: "TVI", Name: "Title VI"}, Questions: []domain.GuideQuestion{tvi3, tvi3}},
		{Section: domain.Section{Code: "L", Name: "Legal"}, Questions: []domain.GuideQuestion{
			{Question: domain.Question{Code: "L1"}, Indicators: []domain.Indicator{{Letter: "a"}}},
		}},
	}
}

func TestSeedGuideCountsDistinctQuestions(t *testing.T) {
	loader := &guideLoaderFake{}
	totals, err := NewSeedGuideUseCase(loader).Seed(context.Background(), seedSections())
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	want := domain.Totals{Sections: 2, Questions: 2, Indicators: 3, Deficiencies: 1}
	if totals != want {
		t.Fatalf("unexpected totals %+v, want %+v", totals, want)
	}
	if len(loader.sections) != 2 {
		t.Fatalf("expected sections to reach the store")
	}
}

func TestSeedGuideRejectsDuplicateSectionsAndEmptyInput(t *testing.T) {
	uc := NewSeedGuideUseCase(&guideLoaderFake{})
	if _, err := uc.Seed(context.Background(), nil); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for empty guide, got %v", err)
	}

	sections := seedSections()
	sections[1].Section.Code = "TVI"
	if _, err := uc.Seed(context.Background(), sections); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for duplicate section, got %v", err)
	}
}

func TestSeedGuidePropagatesStoreError(t *testing.T) {
	uc := NewSeedGuideUseCase(&guideLoaderFake{err: errors.New("tx aborted")})
	if _, err := uc.Seed(context.Background(), seedSections()); err == nil {
		t.Fatalf("expected error")
	}
}
