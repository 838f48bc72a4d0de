package routing

import (
	"regexp"
	"strings"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

// identifierPattern covers every question-code family in the guide:
// TVI3, TVI10-1, ADA-GEN12, ADA-CPT8, TC-PjM4, L1, PTASP5, DBE12, 5307:1.
var identifierPattern = regexp.MustCompile(
	`(?i)\b(TVI\d+(?:-\d+)?|ADA-(?:GEN|CPT)\d+|TC-(?:PjM|AM|PrgM)\d+|[A-Z]{1,6}\d+|\d{4}:\d+)\b`,
)

// IdentifierExtractor pulls canonical identifiers out of free text.
// It is immutable after construction and safe for concurrent use.
type IdentifierExtractor struct {
	phrases domain.PhraseMap
	keys    []string
}

func NewIdentifierExtractor(phrases domain.PhraseMap) *IdentifierExtractor {
	copied := make(domain.PhraseMap, len(phrases))
	for phrase, ids := range phrases {
		copied[phrase] = append([]domain.Identifier(nil), ids...)
	}
	return &IdentifierExtractor{
		phrases: copied,
		keys:    copied.Phrases(),
	}
}

// Extract returns the sorted union of explicit codes and phrase-mapped identifiers.
// Overlapping phrases all contribute; there is no most-specific-match rule.
func (e *IdentifierExtractor) Extract(question string) []domain.Identifier {
	var found []domain.Identifier
	for _, match := range identifierPattern.FindAllString(question, -1) {
		found = append(found, domain.CanonicalIdentifier(match))
	}

	lowered := strings.ToLower(question)
	for _, phrase := range e.keys {
		if strings.Contains(lowered, phrase) {
			found = append(found, e.phrases[phrase]...)
		}
	}
	return domain.SortedIdentifiers(found)
}

// PhraseCount is exposed for startup logging.
func (e *IdentifierExtractor) PhraseCount() int {
	return len(e.keys)
}

// GroupIdentifier returns the first code found in a chunk of evidence text.
// Phrase names are ignored so one chunk maps to exactly one group.
func GroupIdentifier(text string) (domain.Identifier, bool) {
	match := identifierPattern.FindString(text)
	if match == "" {
		return "", false
	}
	return domain.CanonicalIdentifier(match), true
}

// IsIdentifierHeader reports whether a line opens with a question code,
// as in "TVI3. Has the recipient posted its notice?".
func IsIdentifierHeader(line string) bool {
	loc := identifierPattern.FindStringIndex(strings.TrimSpace(line))
	return loc != nil && loc[0] == 0
}
