package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"reforma/internal/adapter/watcher"
	"reforma/internal/usecase"
)

var watchCategories []string

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Re-ingest the knowledge base whenever a document changes",
	Long: `Run an ingestion, then watch the content tree and ingest again after each
burst of edits. Validation failures are reported but do not stop watching.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringArrayVar(&watchCategories, "category", nil, "only ingest this category (repeatable)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	root, err := contentRoot(args)
	if err != nil {
		return err
	}
	cfg := GetConfig()
	opts := usecase.IngestOptions{Categories: watchCategories, Prune: true}

	// One embedder for the session: its cache spans runs.
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := func(ctx context.Context) {
		result, err := ingestOnce(ctx, cfg, root, opts, embedder, false)
		if err != nil {
			logger.Error("ingestion failed", zap.Error(err))
			return
		}
		printIngestReport(result, verbose)
	}

	fmt.Printf("Ingesting %s...\n", root)
	run(ctx)

	w := watcher.New(root, cfg.Content.Extension, func(ctx context.Context, changed []string) {
		fmt.Printf("\n%d file(s) changed, re-ingesting...\n", len(changed))
		run(ctx)
	}, watcher.WithDebounce(cfg.Watch.Debounce), watcher.WithLogger(logger))
	return w.Run(ctx)
}
