package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/compliance-assistant/internal/core/consolidate"
	"github.com/kirillkom/compliance-assistant/internal/core/domain"
	"github.com/kirillkom/compliance-assistant/internal/core/fusion"
	"github.com/kirillkom/compliance-assistant/internal/core/routing"
)

func (uc *QueryUseCase) ragAvailable() bool {
	return uc.generator != nil && uc.vector != nil && uc.embedder != nil && uc.engine != nil
}

func (uc *QueryUseCase) executeRAG(ctx context.Context, question string, history []domain.ConversationTurn) (*domain.ResultEnvelope, error) {
	if !uc.ragAvailable() {
		return lowEnvelope(ragUnavailableAnswer, domain.BackendRAGUnavailable), nil
	}

	profile := routing.ProfileOf(question)
	chunks, backend, err := uc.retrieve(ctx, question, profile.TopK())
	if err != nil {
		return nil, err
	}
	if profile.Enumerating() {
		chunks = consolidate.Deduplicate(chunks, uc.settings.Consolidation)
	}
	if len(chunks) == 0 {
		return lowEnvelope(noEvidenceAnswer, backend), nil
	}

	systemPrompt := answerSystemPrompt + profile.PromptModifier()
	userPrompt := buildUserPrompt(question, buildContext(chunks, uc.settings.ContextCharLimit), history)

	callCtx, cancel := uc.callContext(ctx)
	raw, err := uc.generator.Generate(callCtx, systemPrompt, userPrompt)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	generated := parseGeneratedAnswer(raw)
	answer := generated.Answer
	if profile.Counting() {
		answer = consolidate.ReconcileAnswer(answer)
	}

	ranked := documentSources(chunks)
	top := ranked
	if len(top) > 3 {
		top = top[:3]
	}
	return &domain.ResultEnvelope{
		Answer:       answer,
		Confidence:   generated.Confidence,
		Sources:      append([]domain.Source(nil), top...),
		RankedChunks: ranked,
		Backend:      backend,
	}, nil
}

// retrieve queries every collection in parallel and fuses the merged hits. When
// no collection answers (or the query cannot be embedded) it falls back to the
// lexical index alone.
func (uc *QueryUseCase) retrieve(ctx context.Context, question string, topK int) ([]domain.EvidenceChunk, domain.BackendTag, error) {
	embedCtx, cancel := uc.callContext(ctx)
	queryVector, err := uc.embedder.EmbedQuery(embedCtx, question)
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", ctx.Err()
		}
		uc.degraded("embed_failed", err)
		return uc.engine.LexicalOnly(question, topK), domain.BackendRAGLexicalOnly, nil
	}

	results, searchErr := uc.searchCollections(ctx, queryVector, topK)
	if ctx.Err() != nil {
		return nil, "", ctx.Err()
	}
	if len(results) == 0 {
		uc.degraded("vector_search_failed", searchErr)
		return uc.engine.LexicalOnly(question, topK), domain.BackendRAGLexicalOnly, nil
	}
	if searchErr != nil {
		uc.degraded("partial_collections", searchErr)
	}

	merged := fusion.MergeCollections(results)
	return uc.engine.Fuse(merged, question, topK), domain.BackendRAG, nil
}

// searchCollections returns the collections that answered, in configured order,
// and the combined error of those that did not.
func (uc *QueryUseCase) searchCollections(ctx context.Context, queryVector []float32, limit int) ([]fusion.CollectionHits, error) {
	collections := uc.settings.Collections
	slots := make([]*fusion.CollectionHits, len(collections))

	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs *multierror.Error
	)
	for i, collection := range collections {
		g.Go(func() error {
			callCtx, cancel := uc.callContext(ctx)
			defer cancel()

			hits, err := uc.vector.Search(callCtx, collection, queryVector, limit)
			if err != nil {
				mu.Lock()
				errs = multierror.Append(errs, fmt.Errorf("search %s: %w", collection, err))
				mu.Unlock()
				return nil
			}
			slots[i] = &fusion.CollectionHits{Collection: collection, Hits: hits}
			return nil
		})
	}
	_ = g.Wait()

	results := make([]fusion.CollectionHits, 0, len(slots))
	for _, slot := range slots {
		if slot != nil {
			results = append(results, *slot)
		}
	}
	return results, errs.ErrorOrNil()
}
