package consolidate

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
	"github.com/kirillkom/compliance-assistant/internal/core/routing"
)

type Options struct {
	SimilarityThreshold float64
	MaxPerGroup         int
}

func DefaultOptions() Options {
	return Options{SimilarityThreshold: 0.85, MaxPerGroup: 3}
}

// Similarity is the character-level matching ratio of two texts, in [0, 1].
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, "")).Ratio()
}

// Deduplicate walks chunks in rank order and keeps a chunk only if it is not a
// near-duplicate of an accepted chunk and its group (the first code in its text)
// is still under MaxPerGroup. Chunks without a code are never group-limited.
func Deduplicate(chunks []domain.EvidenceChunk, opts Options) []domain.EvidenceChunk {
	if len(chunks) == 0 {
		return chunks
	}

	accepted := make([]domain.EvidenceChunk, 0, len(chunks))
	perGroup := make(map[domain.Identifier]int)

	for _, candidate := range chunks {
		group, grouped := routing.GroupIdentifier(candidate.Text)
		if grouped && opts.MaxPerGroup > 0 && perGroup[group] >= opts.MaxPerGroup {
			continue
		}
		if nearDuplicate(candidate, accepted, opts.SimilarityThreshold) {
			continue
		}
		accepted = append(accepted, candidate)
		if grouped {
			perGroup[group]++
		}
	}
	return accepted
}

func nearDuplicate(candidate domain.EvidenceChunk, accepted []domain.EvidenceChunk, threshold float64) bool {
	for _, kept := range accepted {
		if Similarity(candidate.Text, kept.Text) >= threshold {
			return true
		}
	}
	return false
}
