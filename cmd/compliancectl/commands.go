package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kirillkom/compliance-assistant/internal/bootstrap"
	"github.com/kirillkom/compliance-assistant/internal/config"
	"github.com/kirillkom/compliance-assistant/internal/core/routing"
	"github.com/kirillkom/compliance-assistant/internal/core/usecase"
	"github.com/kirillkom/compliance-assistant/internal/infrastructure/guidefile"
	"github.com/kirillkom/compliance-assistant/internal/infrastructure/queue/nats"
	"github.com/kirillkom/compliance-assistant/internal/infrastructure/resilience"
)

type configLoader func() config.Config

// newClassifyCmd needs no infrastructure: routing is pure.
func newClassifyCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <question>",
		Short: "Show how a question would be routed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			phrases, err := bootstrap.LoadPhraseMap(load())
			if err != nil {
				return err
			}
			classifier := routing.NewClassifier(routing.NewIdentifierExtractor(phrases))
			renderRoute(cmd.OutOrStdout(), classifier.Classify(strings.Join(args, " ")))
			return nil
		},
	}
}

func newAskCmd(load configLoader) *cobra.Command {
	var showChunks bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question against the configured stores",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := bootstrap.New(ctx, load())
			if err != nil {
				return err
			}
			defer app.Close()

			// Without an index the RAG path still runs on semantic scores alone.
			_, _ = app.RebuildIndex(ctx, "cli_ask")

			env, err := app.QueryUC.Execute(usecase.ContextWithRequestID(ctx, "cli"), strings.Join(args, " "), nil)
			if err != nil {
				return err
			}
			renderEnvelope(cmd.OutOrStdout(), env, showChunks)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showChunks, "chunks", false, "also print every ranked chunk")
	return cmd
}

func newSeedCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "seed <guide-file>",
		Short: "Replace the structured guide with a JSON or YAML export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sections, err := guidefile.LoadGuide(args[0])
			if err != nil {
				return err
			}

			cfg := load()
			store, err := bootstrap.NewStore(cmd.Context(), cfg, resilience.NewExecutor(bootstrap.ResilienceConfig(cfg)))
			if err != nil {
				return err
			}
			defer store.Close()

			totals, err := usecase.NewSeedGuideUseCase(store.Compliance).Seed(cmd.Context(), sections)
			if err != nil {
				return err
			}
			renderTotals(cmd.OutOrStdout(), totals)
			return nil
		},
	}
}

func newReindexCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Ask every API instance to rebuild its lexical index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := bootstrap.New(ctx, load())
			if err != nil {
				return err
			}
			defer app.Close()

			n, err := app.RebuildIndex(ctx, "cli_reindex")
			if err != nil {
				return err
			}
			if err := app.Queue.PublishCorpusChanged(ctx, nats.AllCollections); err != nil {
				return fmt.Errorf("publish corpus change: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s corpus has %s documents, rebuild requested\n",
				successText("ok"), highlightText(fmt.Sprint(n)))
			return nil
		},
	}
}

func newHistoryCmd(load configLoader) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently executed questions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := load()
			store, err := bootstrap.NewStore(cmd.Context(), cfg, nil)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.QueryLog.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			renderHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	return cmd
}
