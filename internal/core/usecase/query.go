package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/compliance-assistant/internal/core/consolidate"
	"github.com/kirillkom/compliance-assistant/internal/core/domain"
	"github.com/kirillkom/compliance-assistant/internal/core/fusion"
	"github.com/kirillkom/compliance-assistant/internal/core/ports"
)

type QuerySettings struct {
	Collections      []string
	ContextCharLimit int
	CallTimeout      time.Duration
	CacheTTL         time.Duration
	Consolidation    consolidate.Options
}

// QueryObserver receives per-execution measurements. Implemented by the metrics package.
type QueryObserver interface {
	ObserveQuery(route domain.RouteKind, backend domain.BackendTag, cached bool, duration time.Duration)
	ObserveDegraded(reason string)
}

type QueryUseCase struct {
	classifier ports.RouteClassifier
	store      ports.StructuredStore
	embedder   ports.Embedder
	vector     ports.VectorSearch
	generator  ports.Generator
	engine     *fusion.Engine
	settings   QuerySettings

	cache    ports.AnswerCache
	queryLog ports.QueryLog
	observer QueryObserver
	logger   *slog.Logger
	now      func() time.Time
}

// NewQueryUseCase wires the orchestrator. embedder, vector and generator may be nil;
// RAG work then answers with the unavailable envelope.
func NewQueryUseCase(
	classifier ports.RouteClassifier,
	store ports.StructuredStore,
	embedder ports.Embedder,
	vector ports.VectorSearch,
	generator ports.Generator,
	engine *fusion.Engine,
	settings QuerySettings,
) *QueryUseCase {
	if len(settings.Collections) == 0 {
		settings.Collections = []string{"fta_compliance_guide", "historical_audits"}
	}
	if settings.ContextCharLimit <= 0 {
		settings.ContextCharLimit = 3000
	}
	if settings.Consolidation.SimilarityThreshold <= 0 {
		settings.Consolidation = consolidate.DefaultOptions()
	}

	return &QueryUseCase{
		classifier: classifier,
		store:      store,
		embedder:   embedder,
		vector:     vector,
		generator:  generator,
		engine:     engine,
		settings:   settings,
		logger:     slog.Default(),
		now:        time.Now,
	}
}

func (uc *QueryUseCase) WithAnswerCache(cache ports.AnswerCache) *QueryUseCase {
	uc.cache = cache
	return uc
}

func (uc *QueryUseCase) WithQueryLog(log ports.QueryLog) *QueryUseCase {
	uc.queryLog = log
	return uc
}

func (uc *QueryUseCase) WithObserver(observer QueryObserver) *QueryUseCase {
	uc.observer = observer
	return uc
}

func (uc *QueryUseCase) WithLogger(logger *slog.Logger) *QueryUseCase {
	if logger != nil {
		uc.logger = logger
	}
	return uc
}

// Classify exposes the routing decision without executing it.
func (uc *QueryUseCase) Classify(question string) domain.QueryRoute {
	return uc.classifier.Classify(question)
}

// Execute answers one question. Routing ambiguity, missing or failing collaborators,
// malformed generator output and structured-store misses all produce an envelope.
// Only an empty question or a cancelled context is returned as an error.
func (uc *QueryUseCase) Execute(
	ctx context.Context,
	question string,
	history []domain.ConversationTurn,
) (*domain.ResultEnvelope, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "execute query", errors.New("question is required"))
	}
	start := uc.now()
	useCache := uc.cache != nil && len(history) == 0

	if useCache {
		if cached, ok := uc.lookupCache(ctx, question); ok {
			cached.Metadata.Cached = true
			cached.Metadata.ExecutionTimeMS = elapsedMS(start, uc.now())
			uc.finish(ctx, question, cached, start)
			return cached, nil
		}
	}

	route := uc.classifier.Classify(question)

	var (
		env *domain.ResultEnvelope
		err error
	)
	switch route.Kind {
	case domain.RouteDatabase:
		env, err = uc.executeDatabase(ctx, question, route)
	case domain.RouteRAG:
		env, err = uc.executeRAG(ctx, question, history)
	default:
		env, err = uc.executeHybrid(ctx, question, route)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		env = uc.failureEnvelope(route.Kind, err)
	}

	normalizeEnvelope(env)
	env.Metadata = domain.EnvelopeMetadata{
		Route:           route.Kind,
		Confidence:      route.Confidence,
		Reasoning:       route.Reasoning,
		ExecutionTimeMS: elapsedMS(start, uc.now()),
		Identifiers:     domain.IdentifierStrings(route.Identifiers()),
		Keywords:        route.Keywords(),
	}
	if route.Database != nil {
		env.Metadata.Operation = route.Database.Operation
	}
	if err != nil {
		env.Metadata.Error = err.Error()
	}

	if useCache && env.Backend.Cacheable() {
		if err := uc.cache.Set(ctx, question, env, uc.settings.CacheTTL); err != nil {
			uc.logger.Warn("answer_cache_store_failed", "error", err)
		}
	}
	uc.finish(ctx, question, env, start)
	return env, nil
}

func (uc *QueryUseCase) lookupCache(ctx context.Context, question string) (*domain.ResultEnvelope, bool) {
	env, ok, err := uc.cache.Get(ctx, question)
	if err != nil {
		uc.logger.Warn("answer_cache_lookup_failed", "error", err)
		return nil, false
	}
	if !ok || env == nil {
		return nil, false
	}
	normalizeEnvelope(env)
	return env, true
}

func (uc *QueryUseCase) finish(ctx context.Context, question string, env *domain.ResultEnvelope, start time.Time) {
	duration := uc.now().Sub(start)

	uc.logger.Info(
		"query_routed",
		"route", env.Metadata.Route,
		"confidence", env.Metadata.Confidence,
		"backend", env.Backend,
		"cached", env.Metadata.Cached,
		"identifiers", len(env.Metadata.Identifiers),
		"duration_ms", duration.Milliseconds(),
	)
	if uc.observer != nil {
		uc.observer.ObserveQuery(env.Metadata.Route, env.Backend, env.Metadata.Cached, duration)
	}
	if uc.queryLog == nil {
		return
	}
	entry := domain.QueryLogEntry{
		ID:          uuid.NewString(),
		RequestID:   requestIDFromContext(ctx),
		Question:    question,
		Route:       env.Metadata.Route,
		Backend:     env.Backend,
		Confidence:  env.Confidence,
		Identifiers: env.Metadata.Identifiers,
		LatencyMS:   env.Metadata.ExecutionTimeMS,
		CreatedAt:   uc.now().UTC(),
	}
	if err := uc.queryLog.Append(ctx, entry); err != nil {
		uc.logger.Warn("query_log_append_failed", "error", err)
	}
}

// failureEnvelope answers for a collaborator that failed mid-request. RAG routes
// fail on the generator; database and hybrid routes fail on the structured store.
func (uc *QueryUseCase) failureEnvelope(kind domain.RouteKind, err error) *domain.ResultEnvelope {
	uc.logger.Warn("query_backend_failed", "route", kind, "error", err)
	if kind == domain.RouteRAG {
		return lowEnvelope(generationFailedAnswer, domain.BackendRAGUnavailable)
	}
	return lowEnvelope(databaseUnavailableAnswer, domain.BackendDatabaseUnavailable)
}

func (uc *QueryUseCase) degraded(reason string, err error) {
	uc.logger.Warn("vector_search_degraded", "reason", reason, "error", err)
	if uc.observer != nil {
		uc.observer.ObserveDegraded(reason)
	}
}

// callContext bounds one external call with the configured timeout.
func (uc *QueryUseCase) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if uc.settings.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, uc.settings.CallTimeout)
}

func normalizeEnvelope(env *domain.ResultEnvelope) {
	if env.Sources == nil {
		env.Sources = []domain.Source{}
	}
	if env.RankedChunks == nil {
		env.RankedChunks = []domain.Source{}
	}
	if env.Confidence == "" {
		env.Confidence = domain.ConfidenceLow
	}
}

func elapsedMS(start, end time.Time) float64 {
	return round(float64(end.Sub(start).Microseconds())/1000, 2)
}

type requestIDKey struct{}

// ContextWithRequestID tags ctx so query log entries can be joined with access logs.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func requestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}
