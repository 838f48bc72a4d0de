package guidefile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

const sampleGuideJSON = `{
	"sections": [
		{
			"section": {"id": "TVI", "title": "Title VI", "page_range": "14-1 to 14-30", "purpose": "Nondiscrimination"},
			"sub_areas": [
				{
					"id": "TVI3",
					"question": "Has the recipient posted its Title VI notice?",
					"applicability": "All recipients",
					"indicators_of_compliance": [
						{"indicator_id": "a", "text": "Notice posted at stations."},
						{"indicator_id": "b", "text": "Notice on website."}
					],
					"deficiencies": [
						{"code": "TVI3-1", "title": "Notice not posted", "determination": "Deficient", "suggested_corrective_action": "Post the notice"}
					]
				}
			]
		}
	]
}`

func TestParseGuideJSON(t *testing.T) {
	sections, err := ParseGuide([]byte(sampleGuideJSON))
	if err != nil {
		t.Fatalf("ParseGuide() error = %v", err)
	}
	if len(sections) != 1 || sections[0].Section.Code != "TVI" || sections[0].Section.PageRange != "14-1 to 14-30" {
		t.Fatalf("unexpected sections %+v", sections)
	}
	q := sections[0].Questions[0]
	if q.Question.Code != "TVI3" || q.Question.Applicability != "All recipients" {
		t.Fatalf("unexpected question %+v", q.Question)
	}
	if len(q.Indicators) != 2 || q.Indicators[1].Letter != "b" {
		t.Fatalf("unexpected indicators %+v", q.Indicators)
	}
	if q.Deficiencies[0].CorrectiveAction != "Post the notice" {
		t.Fatalf("unexpected deficiency %+v", q.Deficiencies[0])
	}
}

func TestParseGuideYAML(t *testing.T) {
	raw := `
sections:
  - section: {id: L, title: Legal}
    sub_areas:
      - id: L1
        question: Is an opinion of counsel on file?
        indicators_of_compliance:
          - {indicator_id: a, text: Opinion of counsel on file.}
`
	sections, err := ParseGuide([]byte(raw))
	if err != nil {
		t.Fatalf("ParseGuide() error = %v", err)
	}
	if sections[0].Questions[0].Indicators[0].Text != "Opinion of counsel on file." {
		t.Fatalf("unexpected sections %+v", sections)
	}
}

func TestParseGuideRejectsIncompleteEntries(t *testing.T) {
	tests := map[string]string{
		"no sections":    `{"sections": []}`,
		"section title":  `{"sections": [{"section": {"id": "L"}, "sub_areas": []}]}`,
		"question text":  `{"sections": [{"section": {"id": "L", "title": "Legal"}, "sub_areas": [{"id": "L1"}]}]}`,
		"indicator id":   `{"sections": [{"section": {"id": "L", "title": "Legal"}, "sub_areas": [{"id": "L1", "question": "q", "indicators_of_compliance": [{"text": "x"}]}]}]}`,
		"not structured": `just text`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseGuide([]byte(raw)); !domain.IsKind(err, domain.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestLoadGuideReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guide.json")
	if err := os.WriteFile(path, []byte(sampleGuideJSON), 0o600); err != nil {
		t.Fatalf("write guide: %v", err)
	}
	if _, err := LoadGuide(path); err != nil {
		t.Fatalf("LoadGuide() error = %v", err)
	}
	if _, err := LoadGuide(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParsePhraseMap(t *testing.T) {
	raw := "title vi: [tvi1, TVI2]\ncharter service: [CS1]\n"
	phrases, err := ParsePhraseMap([]byte(raw))
	if err != nil {
		t.Fatalf("ParsePhraseMap() error = %v", err)
	}
	if got := phrases["title vi"]; len(got) != 2 || got[0] != "TVI1" {
		t.Fatalf("expected canonical identifiers, got %v", got)
	}
}

func TestParsePhraseMapRejectsInvalidMaps(t *testing.T) {
	tests := map[string]string{
		"duplicate": "title vi: [TVI1]\ntitle vi: [TVI2]\n",
		"uppercase": "Title VI: [TVI1]\n",
		"empty ids": "title vi: []\n",
		"not list":  "title vi: {a: b}\n",
		"sequence":  "- title vi\n",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePhraseMap([]byte(raw))
			if !domain.IsKind(err, domain.ErrInvalidInput) {
				t.Fatalf("expected invalid input, got %v", err)
			}
			if name == "duplicate" && !strings.Contains(err.Error(), "duplicate phrase") {
				t.Fatalf("expected duplicate diagnostic, got %v", err)
			}
		})
	}
}
