package routing

import (
	"reflect"
	"testing"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

func TestExtractExplicitCodesCanonicalized(t *testing.T) {
	e := NewIdentifierExtractor(domain.PhraseMap{})

	got := e.Extract("compare tvi10-1, ada-cpt2, tc-prgm3 and 5310:2 with TVI10-1")
	want := []domain.Identifier{"5310:2", "ADA-CPT2", "TC-PRGM3", "TVI10-1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected identifiers: %v", got)
	}
}

func TestExtractPhraseUnion(t *testing.T) {
	e := NewIdentifierExtractor(domain.PhraseMap{
		"charter bus": {"CB1", "CB2"},
	})

	got := e.Extract("Does CB3 apply to Charter Bus operators?")
	want := []domain.Identifier{"CB1", "CB2", "CB3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected identifiers: %v", got)
	}
}

func TestExtractOverlappingPhrasesBothFire(t *testing.T) {
	e := NewIdentifierExtractor(domain.PhraseMap{
		"bus":        {"SB1"},
		"school bus": {"SB2"},
	})

	got := e.Extract("school bus rules")
	want := []domain.Identifier{"SB1", "SB2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected both overlapping phrases to contribute, got %v", got)
	}
}

func TestExtractNoIdentifiers(t *testing.T) {
	e := NewIdentifierExtractor(DefaultPhraseMap())
	if got := e.Extract("What are the ADA compliance requirements?"); got != nil {
		t.Fatalf("expected no identifiers, got %v", got)
	}
}

func TestExtractorCopiesPhraseMap(t *testing.T) {
	phrases := domain.PhraseMap{"legal": {"L1"}}
	e := NewIdentifierExtractor(phrases)
	phrases["legal"][0] = "X9"

	got := e.Extract("legal questions")
	if !reflect.DeepEqual(got, []domain.Identifier{"L1"}) {
		t.Fatalf("extractor must not share caller state, got %v", got)
	}
}

func TestGroupIdentifier(t *testing.T) {
	id, ok := GroupIdentifier("**TVI3**: Title VI notice\na. posted notice")
	if !ok || id != "TVI3" {
		t.Fatalf("expected TVI3, got %q ok=%v", id, ok)
	}
	if _, ok := GroupIdentifier("no code here"); ok {
		t.Fatalf("expected no group for plain text")
	}
}

func TestDefaultPhraseMapIsValid(t *testing.T) {
	phrases := DefaultPhraseMap()
	if err := phrases.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if _, ok := phrases["ada"]; ok {
		t.Fatalf("bare ada phrase must not be mapped")
	}
	for _, id := range phrases["procurement"] {
		if id == "P3" {
			t.Fatalf("P3 must not be mapped")
		}
	}
	if got := len(phrases["title vi"]); got != 10 {
		t.Fatalf("expected 10 Title VI codes, got %d", got)
	}
}

func TestIsIdentifierHeader(t *testing.T) {
	tests := map[string]bool{
		"TVI3. Has the recipient posted its notice?": true,
		"  ada-gen12: Complaint process":              true,
		"5307:1 Financial capacity":                   true,
		"See TVI3 for details":                        false,
		"a. Notice posted in stations":                false,
		"":                                            false,
	}
	for line, want := range tests {
		if got := IsIdentifierHeader(line); got != want {
			t.Fatalf("IsIdentifierHeader(%q) = %v, want %v", line, got, want)
		}
	}
}
