package domain

// Section is a top-level chapter of the compliance guide (Legal, Title VI, ...).
type Section struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	PageRange string `json:"page_range,omitempty"`
	Purpose   string `json:"purpose,omitempty"`
}

// Question is one reviewable area inside a section, addressed by its Identifier.
type Question struct {
	Code                    string `json:"code"`
	Text                    string `json:"text"`
	BasicRequirement        string `json:"basic_requirement,omitempty"`
	Applicability           string `json:"applicability,omitempty"`
	DetailedExplanation     string `json:"detailed_explanation,omitempty"`
	InstructionsForReviewer string `json:"instructions_for_reviewer,omitempty"`
}

// Indicator is a lettered indicator of compliance (a, b, c ...).
type Indicator struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

type Deficiency struct {
	Code             string `json:"code"`
	Title            string `json:"title"`
	Determination    string `json:"determination"`
	CorrectiveAction string `json:"corrective_action,omitempty"`
}

type SectionStats struct {
	IndicatorCount  int `json:"indicator_count"`
	DeficiencyCount int `json:"deficiency_count"`
}

// SectionDetail is the full payload for one identifier.
type SectionDetail struct {
	Code         Identifier   `json:"question_code"`
	Section      Section      `json:"section"`
	Question     Question     `json:"question"`
	Indicators   []Indicator  `json:"indicators"`
	Deficiencies []Deficiency `json:"deficiencies"`
	Stats        SectionStats `json:"stats"`
}

type CountResult struct {
	Code     Identifier `json:"question_code"`
	Question Question   `json:"question"`
	Count    int        `json:"count"`
}

type IndicatorList struct {
	Code       Identifier  `json:"question_code"`
	Question   Question    `json:"question"`
	Indicators []Indicator `json:"indicators"`
}

type DeficiencyList struct {
	Code         Identifier   `json:"question_code"`
	Question     Question     `json:"question"`
	Deficiencies []Deficiency `json:"deficiencies"`
}

type Totals struct {
	Sections     int `json:"sections"`
	Questions    int `json:"questions"`
	Indicators   int `json:"indicators"`
	Deficiencies int `json:"deficiencies"`
}

// GuideSection is the seed shape of one section with its questions.
type GuideSection struct {
	Section   Section         `json:"section"`
	Questions []GuideQuestion `json:"questions"`
}

type GuideQuestion struct {
	Question     Question     `json:"question"`
	Indicators   []Indicator  `json:"indicators"`
	Deficiencies []Deficiency `json:"deficiencies"`
}
