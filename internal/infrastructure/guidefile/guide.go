package guidefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

// The guide export is JSON; hand-maintained copies may be YAML.
type guideFile struct {
	Sections []sectionEntry `json:"sections" yaml:"sections"`
}

type sectionEntry struct {
	Section struct {
		ID        string `json:"id" yaml:"id"`
		Title     string `json:"title" yaml:"title"`
		PageRange string `json:"page_range" yaml:"page_range"`
		Purpose   string `json:"purpose" yaml:"purpose"`
	} `json:"section" yaml:"section"`
	SubAreas []subArea `json:"sub_areas" yaml:"sub_areas"`
}

type subArea struct {
	ID                      string `json:"id" yaml:"id"`
	Question                string `json:"question" yaml:"question"`
	BasicRequirement        string `json:"basic_requirement" yaml:"basic_requirement"`
	Applicability           string `json:"applicability" yaml:"applicability"`
	DetailedExplanation     string `json:"detailed_explanation" yaml:"detailed_explanation"`
	InstructionsForReviewer string `json:"instructions_for_reviewer" yaml:"instructions_for_reviewer"`
	Indicators              []struct {
		ID   string `json:"indicator_id" yaml:"indicator_id"`
		Text string `json:"text" yaml:"text"`
	} `json:"indicators_of_compliance" yaml:"indicators_of_compliance"`
	Deficiencies []struct {
		Code             string `json:"code" yaml:"code"`
		Title            string `json:"title" yaml:"title"`
		Determination    string `json:"determination" yaml:"determination"`
		CorrectiveAction string `json:"suggested_corrective_action" yaml:"suggested_corrective_action"`
	} `json:"deficiencies" yaml:"deficiencies"`
}

func LoadGuide(path string) ([]domain.GuideSection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read guide file: %w", err)
	}
	return ParseGuide(raw)
}

// ParseGuide maps the sections -> sub_areas export onto domain seed types.
func ParseGuide(raw []byte) ([]domain.GuideSection, error) {
	var file guideFile
	var err error
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		err = json.Unmarshal(trimmed, &file)
	} else {
		err = yaml.Unmarshal(raw, &file)
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse guide", err)
	}
	if len(file.Sections) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse guide", errors.New("no sections found"))
	}

	var errs []error
	out := make([]domain.GuideSection, 0, len(file.Sections))
	for i, entry := range file.Sections {
		code := strings.TrimSpace(entry.Section.ID)
		if code == "" || strings.TrimSpace(entry.Section.Title) == "" {
			errs = append(errs, fmt.Errorf("section %d: id and title are required", i+1))
			continue
		}
		section := domain.GuideSection{
			Section: domain.Section{
				Code:      code,
				Name:      strings.TrimSpace(entry.Section.Title),
				PageRange: entry.Section.PageRange,
				Purpose:   entry.Section.Purpose,
			},
			Questions: make([]domain.GuideQuestion, 0, len(entry.SubAreas)),
		}
		for _, area := range entry.SubAreas {
			q, err := toQuestion(area)
			if err != nil {
				errs = append(errs, fmt.Errorf("section %s: %w", code, err))
				continue
			}
			section.Questions = append(section.Questions, q)
		}
		out = append(out, section)
	}
	if len(errs) > 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "parse guide", errors.Join(errs...))
	}
	return out, nil
}

func toQuestion(area subArea) (domain.GuideQuestion, error) {
	code := strings.TrimSpace(area.ID)
	if code == "" || strings.TrimSpace(area.Question) == "" {
		return domain.GuideQuestion{}, errors.New("sub_area id and question are required")
	}
	q := domain.GuideQuestion{
		Question: domain.Question{
			Code:                    code,
			Text:                    strings.TrimSpace(area.Question),
			BasicRequirement:        area.BasicRequirement,
			Applicability:           area.Applicability,
			DetailedExplanation:     area.DetailedExplanation,
			InstructionsForReviewer: area.InstructionsForReviewer,
		},
		Indicators:   make([]domain.Indicator, 0, len(area.Indicators)),
		Deficiencies: make([]domain.Deficiency, 0, len(area.Deficiencies)),
	}
	for _, ind := range area.Indicators {
		if strings.TrimSpace(ind.ID) == "" {
			return domain.GuideQuestion{}, fmt.Errorf("%s: indicator without indicator_id", code)
		}
		q.Indicators = append(q.Indicators, domain.Indicator{Letter: strings.TrimSpace(ind.ID), Text: ind.Text})
	}
	for _, def := range area.Deficiencies {
		if strings.TrimSpace(def.Code) == "" || strings.TrimSpace(def.Title) == "" {
			return domain.GuideQuestion{}, fmt.Errorf("%s: deficiency code and title are required", code)
		}
		q.Deficiencies = append(q.Deficiencies, domain.Deficiency{
			Code:             strings.TrimSpace(def.Code),
			Title:            def.Title,
			Determination:    def.Determination,
			CorrectiveAction: def.CorrectiveAction,
		})
	}
	return q, nil
}
