package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/kirillkom/compliance-assistant/internal/adapters/http"
	"github.com/kirillkom/compliance-assistant/internal/bootstrap"
	"github.com/kirillkom/compliance-assistant/internal/config"
	"github.com/kirillkom/compliance-assistant/internal/observability/logging"
	"github.com/kirillkom/compliance-assistant/internal/observability/metrics"
)

const serviceName = "compliance-api"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	app.Executor.WithStateListener(httpMetrics.ObserveBreakerState)
	app.QueryUC.WithObserver(httpMetrics)

	// A cold index only degrades RAG to semantic-only ranking, so startup continues.
	n, err := app.RebuildIndex(ctx, "startup")
	httpMetrics.RecordIndexRebuild(n, err)

	go func() {
		if err := app.WatchCorpus(ctx, httpMetrics.RecordIndexRebuild); err != nil {
			slog.Error("corpus_watch_failed", "error", err)
		}
	}()

	router := httpadapter.NewRouter(cfg, httpadapter.Services{
		Query:      app.QueryUC,
		Classifier: app.Classifier,
		Ingest:     app.IngestUC,
		Documents:  app.DocsUC,
		Rebuilder:  app.RebuildUC,
	}).WithMetrics(httpMetrics).Handler()

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("api_listening", "port", cfg.APIPort, "collections", cfg.RAGCollections)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api_shutdown_failed", "error", err)
	}
}
