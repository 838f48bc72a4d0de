package usecase

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/compliance-assistant/internal/core/domain"
	"github.com/kirillkom/compliance-assistant/internal/core/fusion"
	"github.com/kirillkom/compliance-assistant/internal/core/ports"
)

// IndexRebuildUseCase reloads the whole evidence corpus from the vector store and
// swaps a fresh lexical index into the fusion engine.
type IndexRebuildUseCase struct {
	vector      ports.VectorSearch
	engine      *fusion.Engine
	collections []string
}

func NewIndexRebuildUseCase(vector ports.VectorSearch, engine *fusion.Engine, collections []string) *IndexRebuildUseCase {
	return &IndexRebuildUseCase{
		vector:      vector,
		engine:      engine,
		collections: append([]string(nil), collections...),
	}
}

// Rebuild keeps the current index when any collection cannot be read.
func (uc *IndexRebuildUseCase) Rebuild(ctx context.Context) (int, error) {
	if uc.vector == nil {
		return 0, domain.WrapError(domain.ErrUnavailable, "rebuild lexical index", fmt.Errorf("vector store is not configured"))
	}

	perCollection := make([][]domain.CorpusDocument, len(uc.collections))
	g, gctx := errgroup.WithContext(ctx)
	for i, collection := range uc.collections {
		g.Go(func() error {
			docs, err := uc.vector.Scroll(gctx, collection)
			if err != nil {
				return fmt.Errorf("scroll %s: %w", collection, err)
			}
			for j := range docs {
				docs[j].Collection = collection
			}
			perCollection[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("rebuild lexical index: %w", err)
	}

	var corpus []domain.CorpusDocument
	for _, docs := range perCollection {
		corpus = append(corpus, docs...)
	}
	return uc.engine.Rebuild(corpus), nil
}
