package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Identifier is the canonical uppercase code of one structured-data section,
// for example TVI3, ADA-GEN12, TC-PjM4 (stored as TC-PJM4) or 5307:1.
type Identifier string

// CanonicalIdentifier uppercases and trims a raw code.
func CanonicalIdentifier(raw string) Identifier {
	return Identifier(strings.ToUpper(strings.TrimSpace(raw)))
}

func (id Identifier) String() string {
	return string(id)
}

// SortedIdentifiers returns the deduplicated, ascending set of ids.
func SortedIdentifiers(ids []Identifier) []Identifier {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[Identifier]struct{}, len(ids))
	out := make([]Identifier, 0, len(ids))
	for _, id := range ids {
		id = CanonicalIdentifier(string(id))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func IdentifierStrings(ids []Identifier) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}

// PhraseMap maps a lowercase natural-language phrase to the identifiers it names.
type PhraseMap map[string][]Identifier

// Validate checks the map invariants: keys are lowercase and trimmed, values are non-empty.
// Duplicate keys cannot exist in a Go map, so loaders must detect them before building one.
func (m PhraseMap) Validate() error {
	var errs []error
	for phrase, ids := range m {
		if phrase == "" {
			errs = append(errs, errors.New("empty phrase"))
			continue
		}
		if phrase != strings.ToLower(strings.TrimSpace(phrase)) {
			errs = append(errs, fmt.Errorf("phrase %q must be lowercase and trimmed", phrase))
		}
		if len(ids) == 0 {
			errs = append(errs, fmt.Errorf("phrase %q has no identifiers", phrase))
		}
	}
	if len(errs) > 0 {
		return WrapError(ErrInvalidInput, "validate phrase map", errors.Join(errs...))
	}
	return nil
}

// Phrases returns the keys in a stable order.
func (m PhraseMap) Phrases() []string {
	out := make([]string, 0, len(m))
	for phrase := range m {
		out = append(out, phrase)
	}
	sort.Strings(out)
	return out
}
