package routing

import "strings"

// QueryProfile selects retrieval depth and generation instructions for RAG work.
type QueryProfile string

const (
	ProfileSpecific  QueryProfile = "specific"
	ProfileAggregate QueryProfile = "aggregate"
	ProfileCount     QueryProfile = "count"
)

var countCues = []string{
	"how many",
	"count of",
	"number of",
	"total number",
	"how much",
	"total of",
}

var summaryCues = []string{
	"list all",
	"summarize all",
	"across all",
	"in the entire",
	"throughout the guide",
	"all sections",
	"every section",
	"across the guide",
	"in all",
}

// ProfileOf checks count cues before summary cues.
func ProfileOf(question string) QueryProfile {
	lowered := strings.ToLower(question)
	if containsAny(lowered, countCues) {
		return ProfileCount
	}
	if containsAny(lowered, summaryCues) {
		return ProfileAggregate
	}
	return ProfileSpecific
}

// TopK is the number of fused chunks kept for generation.
func (p QueryProfile) TopK() int {
	switch p {
	case ProfileCount:
		return 50
	case ProfileAggregate:
		return 30
	default:
		return 5
	}
}

// Counting reports whether the generated answer is reconciled against its item count.
func (p QueryProfile) Counting() bool {
	return p == ProfileCount
}

// Enumerating reports whether evidence is deduplicated and capped per section
// before generation. Counting and summary questions both enumerate items.
func (p QueryProfile) Enumerating() bool {
	return p == ProfileCount || p == ProfileAggregate
}

func (p QueryProfile) PromptModifier() string {
	switch p {
	case ProfileCount:
		return `
IMPORTANT: This is a COUNTING/ENUMERATION query.
- Count all distinct occurrences across ALL provided sources
- List each distinct item you find
- Provide the total count
- Be thorough and check every source for matches
`
	case ProfileAggregate:
		return `
IMPORTANT: This is a SUMMARY/AGGREGATION query.
- Synthesize information from ALL provided sources
- Look for patterns and commonalities
- Provide a comprehensive overview
- Group similar items together
`
	default:
		return ""
	}
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
