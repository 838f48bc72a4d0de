package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/compliance-assistant/internal/config"
	"github.com/kirillkom/compliance-assistant/internal/core/consolidate"
	"github.com/kirillkom/compliance-assistant/internal/core/domain"
	"github.com/kirillkom/compliance-assistant/internal/core/fusion"
	"github.com/kirillkom/compliance-assistant/internal/core/ports"
	"github.com/kirillkom/compliance-assistant/internal/core/routing"
	"github.com/kirillkom/compliance-assistant/internal/core/usecase"
	"github.com/kirillkom/compliance-assistant/internal/infrastructure/cache/rediscache"
	"github.com/kirillkom/compliance-assistant/internal/infrastructure/chunking"
	"github.com/kirillkom/compliance-assistant/internal/infrastructure/extractor"
	"github.com/kirillkom/compliance-assistant/internal/infrastructure/guidefile"
	"github.com/kirillkom/compliance-assistant/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/compliance-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/compliance-assistant/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/compliance-assistant/internal/infrastructure/resilience"
	"github.com/kirillkom/compliance-assistant/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/compliance-assistant/internal/infrastructure/vector/qdrant"
)

// Store is the postgres side of the application, enough for the CLI commands
// that only touch structured data and the query log.
type Store struct {
	DB         *sql.DB
	Compliance *postgres.ComplianceRepository
	Documents  *postgres.DocumentRepository
	QueryLog   *postgres.QueryLogRepository
}

func NewStore(ctx context.Context, cfg config.Config, executor *resilience.Executor) (*Store, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{
		DB:         db,
		Compliance: postgres.NewComplianceRepository(db, executor),
		Documents:  postgres.NewDocumentRepository(db),
		QueryLog:   postgres.NewQueryLogRepository(db),
	}, nil
}

func (s *Store) Close() {
	_ = s.DB.Close()
}

type App struct {
	Config   config.Config
	Executor *resilience.Executor
	Store    *Store
	Queue    ports.MessageQueue
	Engine   *fusion.Engine

	Classifier *routing.Classifier
	QueryUC    *usecase.QueryUseCase
	IngestUC   ports.DocumentIngestor
	ProcessUC  *usecase.ProcessDocumentUseCase
	DocsUC     ports.DocumentReader
	RebuildUC  ports.IndexRebuilder
	SeedUC     ports.GuideSeeder

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	executor := resilience.NewExecutor(ResilienceConfig(cfg))

	phrases, err := LoadPhraseMap(cfg)
	if err != nil {
		return nil, err
	}
	classifier := routing.NewClassifier(routing.NewIdentifierExtractor(phrases))

	engine, err := fusion.NewEngine(fusion.Weights{Semantic: cfg.RAGSemanticWeight, Lexical: cfg.RAGLexicalWeight})
	if err != nil {
		return nil, fmt.Errorf("init fusion engine: %w", err)
	}

	store, err := NewStore(ctx, cfg, executor)
	if err != nil {
		return nil, err
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSIngestSubject, cfg.NATSCorpusSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)
	vectorDB := qdrant.New(cfg.QdrantURL, executor)

	queryUC := usecase.NewQueryUseCase(classifier, store.Compliance, embedder, vectorDB, generator, engine, usecase.QuerySettings{
		Collections:      cfg.RAGCollections,
		ContextCharLimit: cfg.RAGContextCharLimit,
		CallTimeout:      time.Duration(cfg.ExternalCallTimeoutSec) * time.Second,
		CacheTTL:         time.Duration(cfg.AnswerCacheTTLSeconds) * time.Second,
		Consolidation: consolidate.Options{
			SimilarityThreshold: cfg.RAGDedupThreshold,
			MaxPerGroup:         cfg.RAGMaxPerGroup,
		},
	}).WithQueryLog(store.QueryLog)

	closers := []func(){queue.Close, store.Close}
	if cfg.RedisURL != "" {
		client, err := rediscache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			slog.Warn("answer_cache_disabled", "error", err)
		} else {
			queryUC.WithAnswerCache(rediscache.New(client))
			closers = append(closers, func() { _ = client.Close() })
		}
	}

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	textExtractor := extractor.New(storage)

	return &App{
		Config:   cfg,
		Executor: executor,
		Store:    store,
		Queue:    queue,
		Engine:   engine,

		Classifier: classifier,
		QueryUC:    queryUC,
		IngestUC:   usecase.NewIngestDocumentUseCase(store.Documents, storage, queue, cfg.RAGCollections),
		ProcessUC:  usecase.NewProcessDocumentUseCase(store.Documents, textExtractor, chunker, embedder, vectorDB, queue),
		DocsUC:     usecase.NewDocumentQueryUseCase(store.Documents),
		RebuildUC:  usecase.NewIndexRebuildUseCase(vectorDB, engine, cfg.RAGCollections),
		SeedUC:     usecase.NewSeedGuideUseCase(store.Compliance),

		closeFn: func() {
			for _, closeFn := range closers {
				closeFn()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// RebuildIndex rebuilds the lexical index and logs the outcome. A failed
// rebuild leaves the previous index in place.
func (a *App) RebuildIndex(ctx context.Context, reason string) (int, error) {
	start := time.Now()
	n, err := a.RebuildUC.Rebuild(ctx)
	if err != nil {
		slog.Error("lexical_index_rebuild_failed", "reason", reason, "error", err)
		return 0, err
	}
	slog.Info("lexical_index_rebuilt",
		"reason", reason,
		"documents", n,
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return n, nil
}

// WatchCorpus rebuilds the lexical index on every corpus-changed event until
// ctx is done. onRebuild, when set, sees each outcome.
func (a *App) WatchCorpus(ctx context.Context, onRebuild func(int, error)) error {
	return a.Queue.SubscribeCorpusChanged(ctx, func(handlerCtx context.Context, collection string) error {
		n, err := a.RebuildIndex(handlerCtx, "corpus_changed:"+collection)
		if onRebuild != nil {
			onRebuild(n, err)
		}
		return err
	})
}

// LoadPhraseMap returns the built-in phrase map unless a replacement file is configured.
func LoadPhraseMap(cfg config.Config) (domain.PhraseMap, error) {
	if cfg.RoutingPhrasesFile == "" {
		return routing.DefaultPhraseMap(), nil
	}
	phrases, err := guidefile.LoadPhraseMap(cfg.RoutingPhrasesFile)
	if err != nil {
		return nil, fmt.Errorf("load routing phrases: %w", err)
	}
	slog.Info("routing_phrases_loaded", "path", cfg.RoutingPhrasesFile, "phrases", len(phrases))
	return phrases, nil
}

func ResilienceConfig(cfg config.Config) resilience.Config {
	return resilience.Config{
		RetryMaxAttempts:    cfg.ResilienceRetryMaxAttempts,
		RetryInitialBackoff: time.Duration(cfg.ResilienceRetryInitialBackoffMS) * time.Millisecond,
		RetryMaxBackoff:     time.Duration(cfg.ResilienceRetryMaxBackoffMS) * time.Millisecond,
		RetryMultiplier:     2.0,
		AttemptTimeout:      time.Duration(cfg.ExternalCallTimeoutSec) * time.Second,

		BreakerEnabled:          cfg.ResilienceBreakerEnabled,
		BreakerMinRequests:      uint32(max(cfg.ResilienceBreakerMinRequests, 0)),
		BreakerFailureRatio:     cfg.ResilienceBreakerFailureRatio,
		BreakerOpenTimeout:      time.Duration(cfg.ResilienceBreakerOpenTimeoutSec) * time.Second,
		BreakerHalfOpenMaxCalls: uint32(max(cfg.ResilienceBreakerHalfOpenMaxCalls, 0)),
	}
}
