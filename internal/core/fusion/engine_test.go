package fusion

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

func corpus() []domain.CorpusDocument {
	return []domain.CorpusDocument{
		{ID: "c1", Text: "ADA paratransit eligibility determinations", Collection: "fta_compliance_guide"},
		{ID: "c2", Text: "Title VI notice to beneficiaries", Collection: "fta_compliance_guide"},
		{ID: "c3", Text: "Charter bus service restrictions", Collection: "historical_audits"},
	}
}

func TestLexicalScoresWithoutOverlapAreZero(t *testing.T) {
	idx := BuildIndex(corpus())

	raw := idx.Scores("omega")
	for i, s := range raw {
		if s != 0 {
			t.Fatalf("expected raw score 0 at %d, got %v", i, s)
		}
	}
	normalized := NormalizeScores(raw)
	if len(normalized) != 3 {
		t.Fatalf("expected 3 normalized scores, got %d", len(normalized))
	}
	for i, s := range normalized {
		if s != 0 || math.IsNaN(s) {
			t.Fatalf("expected normalized score 0 at %d, got %v", i, s)
		}
	}
}

func TestLexicalScoresNormalizedByMax(t *testing.T) {
	idx := BuildIndex(corpus())

	scores := idx.LexicalScores("paratransit eligibility")
	if scores["c1"] != 1 {
		t.Fatalf("expected best match normalized to 1, got %v", scores["c1"])
	}
	if scores["c2"] != 0 || scores["c3"] != 0 {
		t.Fatalf("expected non-matching docs at 0, got %v", scores)
	}
}

func TestBuildIndexFloorsNegativeIDF(t *testing.T) {
	idx := BuildIndex([]domain.CorpusDocument{
		{ID: "a", Text: "bus rail"},
		{ID: "b", Text: "bus ferry"},
		{ID: "c", Text: "bus tram"},
		{ID: "d", Text: "bus metro"},
		{ID: "e", Text: "cable"},
	})

	unique := math.Log(4.5) - math.Log(1.5)
	rawBus := math.Log(1.5) - math.Log(4.5)
	want := bm25Epsilon * (rawBus + 5*unique) / 6
	if math.Abs(idx.idf["bus"]-want) > 1e-9 {
		t.Fatalf("expected floored idf %v, got %v", want, idx.idf["bus"])
	}
	if math.Abs(idx.idf["rail"]-unique) > 1e-9 {
		t.Fatalf("unexpected idf for rail: %v", idx.idf["rail"])
	}
}

func TestFuseHitsWeightedSum(t *testing.T) {
	hits := []domain.SemanticHit{
		{ID: "a", Text: "a", Distance: 0.2},
		{ID: "b", Text: "b", Distance: 0.4},
	}
	lexical := map[string]float64{"b": 1}

	got := FuseHits(hits, lexical, DefaultWeights(), 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if got[0].ID != "b" {
		t.Fatalf("expected b first, got %s", got[0].ID)
	}
	if math.Abs(got[0].FusedScore-(0.7*0.6+0.3)) > 1e-9 {
		t.Fatalf("unexpected fused score %v", got[0].FusedScore)
	}
	if math.Abs(got[1].SemanticScore-0.8) > 1e-9 || got[1].LexicalScore != 0 {
		t.Fatalf("unexpected scores for a: %+v", got[1])
	}
}

func TestFuseHitsTiesKeepSemanticOrder(t *testing.T) {
	hits := []domain.SemanticHit{
		{ID: "first", Distance: 0.3},
		{ID: "second", Distance: 0.3},
		{ID: "third", Distance: 0.3},
	}
	got := FuseHits(hits, nil, DefaultWeights(), 0)
	for i, want := range []string{"first", "second", "third"} {
		if got[i].ID != want {
			t.Fatalf("expected %s at %d, got %s", want, i, got[i].ID)
		}
	}
}

func TestFuseHitsTruncatesToTopK(t *testing.T) {
	hits := []domain.SemanticHit{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	if got := FuseHits(hits, nil, DefaultWeights(), 2); len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
}

func TestFuseHitsMonotonicInSemanticWeight(t *testing.T) {
	hits := []domain.SemanticHit{
		{ID: "lexical-favourite", Distance: 0.3},
		{ID: "semantic-best", Distance: 0.1},
		{ID: "other", Distance: 0.5},
	}
	lexical := map[string]float64{"lexical-favourite": 1, "other": 0.4}

	prevRank := len(hits)
	for _, w := range []float64{0, 0.2, 0.7, 1.5, 5, 20} {
		ranked := FuseHits(hits, lexical, Weights{Semantic: w, Lexical: 0.3}, 0)
		rank := -1
		for i, c := range ranked {
			if c.ID == "semantic-best" {
				rank = i
			}
		}
		if rank > prevRank {
			t.Fatalf("semantic weight %v lowered rank of best semantic chunk: %d > %d", w, rank, prevRank)
		}
		prevRank = rank
	}
	if prevRank != 0 {
		t.Fatalf("expected best semantic chunk first at high weight, got rank %d", prevRank)
	}
}

func TestMergeCollectionsSortsByDistance(t *testing.T) {
	merged := MergeCollections([]CollectionHits{
		{Collection: "fta_compliance_guide", Hits: []domain.SemanticHit{
			{ID: "a", Distance: 0.4},
			{ID: "b", Distance: 0.2},
		}},
		{Collection: "historical_audits", Hits: []domain.SemanticHit{
			{ID: "c", Distance: 0.3},
			{ID: "d", Distance: 0.4},
		}},
	})

	wantIDs := []string{"b", "c", "a", "d"}
	wantCollections := []string{"fta_compliance_guide", "historical_audits", "fta_compliance_guide", "historical_audits"}
	for i := range wantIDs {
		if merged[i].ID != wantIDs[i] || merged[i].Collection != wantCollections[i] {
			t.Fatalf("unexpected merge order at %d: %+v", i, merged[i])
		}
	}
}

func TestEngineLexicalOnly(t *testing.T) {
	e, err := NewEngine(DefaultWeights())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if n := e.Rebuild(corpus()); n != 3 {
		t.Fatalf("expected 3 indexed docs, got %d", n)
	}

	got := e.LexicalOnly("charter bus", 5)
	if len(got) != 1 || got[0].ID != "c3" {
		t.Fatalf("expected only c3, got %+v", got)
	}
	if got[0].SemanticScore != 0 || got[0].Collection != "historical_audits" {
		t.Fatalf("unexpected lexical-only chunk: %+v", got[0])
	}
	if math.Abs(got[0].FusedScore-0.3) > 1e-9 {
		t.Fatalf("expected fused score 0.3, got %v", got[0].FusedScore)
	}
}

func TestEngineRejectsNegativeWeights(t *testing.T) {
	_, err := NewEngine(Weights{Semantic: -1, Lexical: 0.3})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestEngineAcceptsUnnormalizedWeights(t *testing.T) {
	e, err := NewEngine(Weights{Semantic: 2, Lexical: 3})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if w := e.Weights(); w.Semantic != 2 || w.Lexical != 3 {
		t.Fatalf("weights must be kept as given, got %+v", w)
	}
}

func TestEngineRebuildDuringQueries(t *testing.T) {
	e, err := NewEngine(DefaultWeights())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	e.Rebuild(corpus())

	hits := []domain.SemanticHit{{ID: "c1", Distance: 0.1}, {ID: "c2", Distance: 0.2}}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if got := e.Fuse(hits, "title vi notice", 2); len(got) != 2 {
					t.Errorf("expected 2 chunks, got %d", len(got))
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			e.Rebuild(corpus())
		}()
	}
	wg.Wait()

	if e.Size() != 3 {
		t.Fatalf("expected 3 docs after rebuilds, got %d", e.Size())
	}
}
