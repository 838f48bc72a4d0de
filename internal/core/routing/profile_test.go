package routing

import (
	"strings"
	"testing"
)

func TestProfileOf(t *testing.T) {
	cases := map[string]QueryProfile{
		"How many deficiencies are listed across all sections?": ProfileCount,
		"Give me the number of reviews":                         ProfileCount,
		"Summarize all safety topics":                           ProfileAggregate,
		"What changed throughout the guide?":                    ProfileAggregate,
		"What is charter service?":                              ProfileSpecific,
	}
	for q, want := range cases {
		if got := ProfileOf(q); got != want {
			t.Fatalf("%q: expected %s, got %s", q, want, got)
		}
	}
}

func TestProfileParameters(t *testing.T) {
	if ProfileSpecific.TopK() != 5 || ProfileAggregate.TopK() != 30 || ProfileCount.TopK() != 50 {
		t.Fatalf("unexpected top_k values")
	}
	if !ProfileCount.Counting() || ProfileAggregate.Counting() {
		t.Fatalf("only count profile is counting")
	}
	if !ProfileCount.Enumerating() || !ProfileAggregate.Enumerating() || ProfileSpecific.Enumerating() {
		t.Fatalf("count and aggregate profiles enumerate, specific does not")
	}
	if ProfileSpecific.PromptModifier() != "" {
		t.Fatalf("specific profile has no modifier")
	}
	if !strings.Contains(ProfileCount.PromptModifier(), "COUNTING/ENUMERATION") {
		t.Fatalf("count modifier missing header")
	}
	if !strings.Contains(ProfileAggregate.PromptModifier(), "SUMMARY/AGGREGATION") {
		t.Fatalf("aggregate modifier missing header")
	}
}
