package fusion

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

// Weights are applied as-is; they are not required to sum to 1.
type Weights struct {
	Semantic float64
	Lexical  float64
}

func DefaultWeights() Weights {
	return Weights{Semantic: 0.7, Lexical: 0.3}
}

func (w Weights) Validate() error {
	if w.Semantic < 0 || w.Lexical < 0 {
		return domain.WrapError(domain.ErrInvalidInput, "validate fusion weights",
			fmt.Errorf("weights must be non-negative, got semantic=%v lexical=%v", w.Semantic, w.Lexical))
	}
	return nil
}

// Engine merges semantic hits with lexical relevance from the current index.
// The index is swapped atomically so in-flight queries keep the snapshot they started with.
type Engine struct {
	weights Weights
	index   atomic.Pointer[Index]
}

func NewEngine(weights Weights) (*Engine, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{weights: weights}
	e.index.Store(BuildIndex(nil))
	return e, nil
}

func (e *Engine) Weights() Weights {
	return e.weights
}

// Rebuild replaces the lexical index wholesale and returns the new document count.
func (e *Engine) Rebuild(docs []domain.CorpusDocument) int {
	idx := BuildIndex(docs)
	e.index.Store(idx)
	return idx.Size()
}

func (e *Engine) Size() int {
	return e.index.Load().Size()
}

// Fuse scores semantic hits against the current index and returns the topK best.
func (e *Engine) Fuse(hits []domain.SemanticHit, question string, topK int) []domain.EvidenceChunk {
	lexical := e.index.Load().LexicalScores(question)
	return FuseHits(hits, lexical, e.weights, topK)
}

// LexicalOnly ranks the indexed corpus with semantic scores fixed at zero.
// It serves retrieval when the vector store cannot be reached. Documents with
// no lexical overlap are left out.
func (e *Engine) LexicalOnly(question string, topK int) []domain.EvidenceChunk {
	idx := e.index.Load()
	normalized := NormalizeScores(idx.Scores(question))

	candidates := make([]domain.EvidenceChunk, 0, len(normalized))
	for i, lexical := range normalized {
		if lexical <= 0 {
			continue
		}
		doc := idx.docs[i]
		candidates = append(candidates, domain.EvidenceChunk{
			ID:             doc.ID,
			Text:           doc.Text,
			SourceMetadata: doc.Metadata,
			Collection:     doc.Collection,
			LexicalScore:   lexical,
			FusedScore:     e.weights.Lexical * lexical,
		})
	}
	return rankCandidates(candidates, topK)
}

// FuseHits computes fused = semantic*w.Semantic + lexical*w.Lexical per hit, where
// semantic = 1 - distance and a hit missing from the lexical map scores 0.
// Ties keep the input order of hits.
func FuseHits(hits []domain.SemanticHit, lexical map[string]float64, w Weights, topK int) []domain.EvidenceChunk {
	candidates := make([]domain.EvidenceChunk, 0, len(hits))
	for _, hit := range hits {
		semantic := 1 - hit.Distance
		lex := lexical[hit.ID]
		candidates = append(candidates, domain.EvidenceChunk{
			ID:             hit.ID,
			Text:           hit.Text,
			SourceMetadata: hit.Metadata,
			Collection:     hit.Collection,
			LexicalScore:   lex,
			SemanticScore:  semantic,
			FusedScore:     w.Semantic*semantic + w.Lexical*lex,
		})
	}
	return rankCandidates(candidates, topK)
}

func rankCandidates(candidates []domain.EvidenceChunk, topK int) []domain.EvidenceChunk {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FusedScore > candidates[j].FusedScore
	})
	return trimCandidates(candidates, topK)
}

func trimCandidates(candidates []domain.EvidenceChunk, limit int) []domain.EvidenceChunk {
	if limit <= 0 || len(candidates) <= limit {
		return candidates
	}
	return candidates[:limit]
}

// CollectionHits is the result of one semantic query against one collection.
type CollectionHits struct {
	Collection string
	Hits       []domain.SemanticHit
}

// MergeCollections concatenates per-collection results in the given order, tags
// each hit with its collection and sorts the union by ascending distance.
func MergeCollections(results []CollectionHits) []domain.SemanticHit {
	total := 0
	for _, r := range results {
		total += len(r.Hits)
	}
	merged := make([]domain.SemanticHit, 0, total)
	for _, r := range results {
		for _, hit := range r.Hits {
			hit.Collection = r.Collection
			merged = append(merged, hit)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Distance < merged[j].Distance
	})
	return merged
}
