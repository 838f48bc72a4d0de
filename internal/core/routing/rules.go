package routing

import (
	"regexp"
	"strings"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

type matcher interface {
	MatchString(s string) bool
}

type matcherFunc func(string) bool

func (f matcherFunc) MatchString(s string) bool { return f(s) }

type operationPattern struct {
	re *regexp.Regexp
	op domain.Operation
}

// Evaluated in order against the lowercased question; the first hit names the operation.
var databasePatterns = []operationPattern{
	{regexp.MustCompile(`how many (?:indicators|deficiencies|questions).+?(?:in|for|under|within)\s+`), domain.OpCountInSection},
	{regexp.MustCompile(`count.+?(?:indicators|deficiencies|questions)`), domain.OpCountInSection},

	{regexp.MustCompile(`list\s+all\s+(?:indicators|deficiencies|questions)`), domain.OpListInSection},
	{regexp.MustCompile(`show\s+(?:me\s+)?(?:indicators|deficiencies|questions)`), domain.OpListInSection},
	{regexp.MustCompile(`(?:all|get)\s+(?:indicators|deficiencies|questions)\s+(?:in|for|under)`), domain.OpListInSection},

	{regexp.MustCompile(`what is \w+\??$`), domain.OpGetSection},
	{regexp.MustCompile(`describe \w+`), domain.OpGetSection},
	{regexp.MustCompile(`explain \w+\??$`), domain.OpGetSection},
	{regexp.MustCompile(`\w+\s+(?:question|requirements|compliance)`), domain.OpGetSection},
}

var (
	corpusWideCount = regexp.MustCompile(`(?:all|total)\s+(?:indicators|deficiencies)`)
	scopedToSection = regexp.MustCompile(`^\s+(?:in|for)\s+\w+`)
)

// corpusWideCountMatch finds "all indicators" or "total deficiencies" that is not
// followed by "in X" / "for X".
func corpusWideCountMatch(lowered string) bool {
	for _, loc := range corpusWideCount.FindAllStringIndex(lowered, -1) {
		if !scopedToSection.MatchString(lowered[loc[1]:]) {
			return true
		}
	}
	return false
}

// Comparison, purpose and corpus-wide phrasing that needs both backends.
var hybridPatterns = []matcher{
	regexp.MustCompile(`(?:compare|difference|similar|related)`),
	regexp.MustCompile(`how does \w+.+?(?:relate|differ|compare)`),
	matcherFunc(corpusWideCountMatch),
	regexp.MustCompile(`how many.+?(?:indicators|deficiencies)\s+(?:are there|total|overall)`),
	regexp.MustCompile(`\w+.+?(?:why|purpose|rationale|best practice)`),
	regexp.MustCompile(`(?:what|what's).+?(?:purpose|rationale)`),
	regexp.MustCompile(`\w+.+?(?:how does|relate)`),
}

var aggregateWord = regexp.MustCompile(`\b(?:total|all|overall|across|entire)\b`)

var countOrListCue = regexp.MustCompile(`\b(?:how many|count|number of|list|show|total|sum)\b`)

var aggregatePhrases = []string{
	"how many indicators",
	"how many deficiencies",
	"count all",
	"list all",
}

// isAggregateQuestion reports whole-corpus count/list phrasing: an aggregate word
// together with count or list language, or one of the fixed aggregate phrases.
func isAggregateQuestion(lowered string) bool {
	for _, phrase := range aggregatePhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return aggregateWord.MatchString(lowered) && countOrListCue.MatchString(lowered)
}

func matchOperation(lowered string) (domain.Operation, bool) {
	for _, p := range databasePatterns {
		if p.re.MatchString(lowered) {
			return p.op, true
		}
	}
	return "", false
}

func matchesHybrid(lowered string) bool {
	for _, m := range hybridPatterns {
		if m.MatchString(lowered) {
			return true
		}
	}
	return false
}

var keywordToken = regexp.MustCompile(`\b\w+\b`)

var keywordStopwords = map[string]struct{}{
	"what": {}, "is": {}, "are": {}, "the": {}, "a": {}, "an": {}, "how": {},
	"do": {}, "does": {}, "can": {}, "should": {}, "tell": {}, "me": {},
	"about": {}, "for": {}, "to": {}, "in": {}, "on": {}, "with": {},
}

const maxKeywords = 5

// extractKeywords keeps the first five non-stopword tokens longer than three characters.
func extractKeywords(lowered string) []string {
	out := make([]string, 0, maxKeywords)
	for _, token := range keywordToken.FindAllString(lowered, -1) {
		if _, stop := keywordStopwords[token]; stop {
			continue
		}
		if len([]rune(token)) <= 3 {
			continue
		}
		out = append(out, token)
		if len(out) == maxKeywords {
			break
		}
	}
	return out
}
