package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kirillkom/compliance-assistant/internal/config"
	"github.com/kirillkom/compliance-assistant/internal/observability/logging"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorText("error: "+err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfg config.Config

	root := &cobra.Command{
		Use:           "compliancectl",
		Short:         "Operate the compliance assistant from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			cfg = config.Load()
			slog.SetDefault(logging.NewJSONLoggerTo(cmd.ErrOrStderr(), "compliancectl", cfg.LogLevel))
		},
	}

	load := func() config.Config { return cfg }
	root.AddCommand(
		newClassifyCmd(load),
		newAskCmd(load),
		newSeedCmd(load),
		newReindexCmd(load),
		newHistoryCmd(load),
	)
	return root
}
