package fusion

import (
	"math"
	"strings"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
)

// Okapi BM25 parameters. Negative idf values are floored to epsilon * mean idf.
const (
	bm25K1      = 1.5
	bm25B       = 0.75
	bm25Epsilon = 0.25
)

// Index is an immutable BM25 index over the evidence corpus.
// Rebuild by constructing a new Index; never mutate one that readers hold.
type Index struct {
	docs      []domain.CorpusDocument
	termFreqs []map[string]int
	docLens   []int
	avgDocLen float64
	idf       map[string]float64
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// BuildIndex tokenizes every document on whitespace after lowercasing.
func BuildIndex(docs []domain.CorpusDocument) *Index {
	idx := &Index{
		docs:      append([]domain.CorpusDocument(nil), docs...),
		termFreqs: make([]map[string]int, len(docs)),
		docLens:   make([]int, len(docs)),
		idf:       make(map[string]float64),
	}
	if len(docs) == 0 {
		return idx
	}

	docFreq := make(map[string]int)
	totalLen := 0
	for i, doc := range docs {
		tokens := tokenize(doc.Text)
		freqs := make(map[string]int, len(tokens))
		for _, token := range tokens {
			freqs[token]++
		}
		for term := range freqs {
			docFreq[term]++
		}
		idx.termFreqs[i] = freqs
		idx.docLens[i] = len(tokens)
		totalLen += len(tokens)
	}
	idx.avgDocLen = float64(totalLen) / float64(len(docs))

	n := float64(len(docs))
	idfSum := 0.0
	var negative []string
	for term, freq := range docFreq {
		value := math.Log(n-float64(freq)+0.5) - math.Log(float64(freq)+0.5)
		idx.idf[term] = value
		idfSum += value
		if value < 0 {
			negative = append(negative, term)
		}
	}
	if len(docFreq) > 0 {
		floor := bm25Epsilon * (idfSum / float64(len(docFreq)))
		for _, term := range negative {
			idx.idf[term] = floor
		}
	}
	return idx
}

func (idx *Index) Size() int {
	if idx == nil {
		return 0
	}
	return len(idx.docs)
}

// Scores returns one raw BM25 score per indexed document, in corpus order.
func (idx *Index) Scores(query string) []float64 {
	if idx.Size() == 0 {
		return nil
	}
	scores := make([]float64, len(idx.docs))
	if idx.avgDocLen == 0 {
		return scores
	}
	for _, term := range tokenize(query) {
		idf := idx.idf[term]
		for i, freqs := range idx.termFreqs {
			tf := float64(freqs[term])
			if tf == 0 {
				continue
			}
			norm := bm25K1 * (1 - bm25B + bm25B*float64(idx.docLens[i])/idx.avgDocLen)
			scores[i] += idf * (tf * (bm25K1 + 1) / (tf + norm))
		}
	}
	return scores
}

// NormalizeScores divides by the batch maximum. A maximum of zero or below yields all zeros.
func NormalizeScores(scores []float64) []float64 {
	out := make([]float64, len(scores))
	maxScore := 0.0
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	if maxScore <= 0 {
		return out
	}
	for i, s := range scores {
		out[i] = s / maxScore
	}
	return out
}

// LexicalScores maps document id to its normalized BM25 score for the query.
func (idx *Index) LexicalScores(query string) map[string]float64 {
	normalized := NormalizeScores(idx.Scores(query))
	out := make(map[string]float64, len(normalized))
	for i, score := range normalized {
		out[idx.docs[i].ID] = score
	}
	return out
}
