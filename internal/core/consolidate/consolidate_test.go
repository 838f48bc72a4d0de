package consolidate

import (
	"math"
	"strings"
	"testing"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

func TestSimilarityRatio(t *testing.T) {
	if got := Similarity("abcdefghij", "abcdefghiX"); math.Abs(got-0.9) > 1e-9 {
		t.Fatalf("expected ratio 0.9, got %v", got)
	}
	if got := Similarity("same text", "same text"); got != 1 {
		t.Fatalf("expected identical texts to score 1, got %v", got)
	}
}

func TestDeduplicateKeepsFirstOfNearDuplicates(t *testing.T) {
	chunks := []domain.EvidenceChunk{
		{ID: "first", Text: "abcdefghij"},
		{ID: "second", Text: "abcdefghiX"},
	}

	got := Deduplicate(chunks, DefaultOptions())
	if len(got) != 1 || got[0].ID != "first" {
		t.Fatalf("expected only the first chunk, got %+v", got)
	}
}

func TestDeduplicateKeepsDistinctChunks(t *testing.T) {
	chunks := []domain.EvidenceChunk{
		{ID: "a", Text: "abcdefghij"},
		{ID: "b", Text: "abcdefghiX"},
	}

	got := Deduplicate(chunks, Options{SimilarityThreshold: 0.95, MaxPerGroup: 3})
	if len(got) != 2 {
		t.Fatalf("expected both chunks under a 0.95 threshold, got %d", len(got))
	}
}

func TestDeduplicateCapsChunksPerGroup(t *testing.T) {
	chunks := []domain.EvidenceChunk{
		{ID: "1", Text: "TVI3 notice posted in stations and vehicles"},
		{ID: "2", Text: "TVI3 complaint procedures documented for riders"},
		{ID: "3", Text: "L1 legal authority opinion of counsel"},
		{ID: "4", Text: "TVI3 language assistance plan for LEP persons"},
		{ID: "5", Text: "TVI3 public participation outreach schedule"},
		{ID: "6", Text: "general guidance with no section code at all"},
	}

	got := Deduplicate(chunks, DefaultOptions())

	ids := make([]string, 0, len(got))
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	if strings.Join(ids, ",") != "1,2,3,4,6" {
		t.Fatalf("unexpected surviving chunks: %v", ids)
	}
}

func TestDeduplicateOutputHasNoNearDuplicatePairs(t *testing.T) {
	chunks := []domain.EvidenceChunk{
		{ID: "1", Text: "The recipient must post the Title VI notice."},
		{ID: "2", Text: "The recipient must post the Title VI notices."},
		{ID: "3", Text: "Charter service is limited to exceptions."},
		{ID: "4", Text: "The recipient must post a Title VI notice."},
		{ID: "5", Text: "Charter service is limited to the exceptions."},
	}
	opts := DefaultOptions()

	got := Deduplicate(chunks, opts)
	for i := range got {
		for j := i + 1; j < len(got); j++ {
			if Similarity(got[i].Text, got[j].Text) >= opts.SimilarityThreshold {
				t.Fatalf("chunks %s and %s are near-duplicates", got[i].ID, got[j].ID)
			}
		}
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("unexpected survivors: %+v", got)
	}
}

func TestReconcileAnswerRemovesRepeatedSection(t *testing.T) {
	input := strings.Join([]string{
		"There are **5 indicators of compliance**:",
		"",
		"**TVI3**: Title VI notice",
		"a. Notice posted",
		"b. Notice translated",
		"",
		"**L1**: Legal authority",
		"c. Opinion of counsel",
		"",
		"**TVI3: Title VI notice**",
		"a. Notice posted",
		"b. Notice translated",
	}, "\n")

	want := strings.Join([]string{
		"There are **3 indicators of compliance**:",
		"",
		"**TVI3**: Title VI notice",
		"a. Notice posted",
		"b. Notice translated",
		"",
		"**L1**: Legal authority",
		"c. Opinion of counsel",
		"",
	}, "\n")

	got := ReconcileAnswer(input)
	if got != want {
		t.Fatalf("unexpected reconciled answer:\n%s", got)
	}
}

func TestReconcileAnswerIsIdempotent(t *testing.T) {
	input := strings.Join([]string{
		"There are 9 deficiencies:",
		"**CB1**: Charter service",
		"a. Unauthorized charter",
		"**CB2**: Charter records",
		"b. Missing records",
		"**CB1**: Charter service",
		"c. Unauthorized charter",
		"**SB1**: School bus",
		"d. Exclusive school service",
	}, "\n")

	once := ReconcileAnswer(input)
	twice := ReconcileAnswer(once)
	if once != twice {
		t.Fatalf("reconcile is not idempotent:\n%s\n---\n%s", once, twice)
	}
	if !strings.HasPrefix(once, "There are 3 deficiencies:") {
		t.Fatalf("expected recount of 3, got:\n%s", once)
	}
	if strings.Count(once, "**CB1**") != 1 {
		t.Fatalf("expected a single CB1 block, got:\n%s", once)
	}
}

func TestReconcileAnswerKeepsSameCodeWithDifferentTitles(t *testing.T) {
	input := "There are 2 items\n**TVI3**: Notice\na. one\n**TVI3**: Complaints\nb. two"
	if got := ReconcileAnswer(input); got != input {
		t.Fatalf("expected answer unchanged, got:\n%s", got)
	}
}

func TestReconcileAnswerWithoutItemsKeepsCount(t *testing.T) {
	input := "There are 4 sections covering charter service."
	if got := ReconcileAnswer(input); got != input {
		t.Fatalf("expected answer unchanged, got %q", got)
	}
}
