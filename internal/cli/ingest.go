package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"reforma/config"
	"reforma/internal/adapter/chunker"
	"reforma/internal/adapter/fs"
	"reforma/internal/adapter/validator"
	"reforma/internal/port"
	"reforma/internal/usecase"
)

var (
	ingestDryRun     bool
	ingestForce      bool
	ingestPrune      bool
	ingestCategories []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Validate, chunk and store knowledge-base documents",
	Long: `Ingest the markdown knowledge base. Unchanged documents are skipped by
content hash; changed ones are validated, chunked, embedded and replace their
previous chunks.

Exit code is 1 when a document fails validation (unless --force) or on a
fatal error.

Examples:
  reforma ingest                          # Ingest content/ under the project
  reforma ingest content --dry-run        # Report without writing
  reforma ingest --category faq --category regimes`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "compute results without writing")
	ingestCmd.Flags().BoolVar(&ingestForce, "force", false, "ignore stored hashes and validation errors")
	ingestCmd.Flags().BoolVar(&ingestPrune, "prune", true, "delete stored sources whose file was removed")
	ingestCmd.Flags().StringArrayVar(&ingestCategories, "category", nil, "only ingest this category (repeatable)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	root, err := contentRoot(args)
	if err != nil {
		return err
	}
	cfg := GetConfig()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var embedder port.Embedder
	if !ingestDryRun {
		if embedder, err = buildEmbedder(cfg); err != nil {
			return err
		}
	}

	fmt.Printf("Scanning %s...\n", root)
	result, err := ingestOnce(ctx, cfg, root, usecase.IngestOptions{
		DryRun:     ingestDryRun,
		Force:      ingestForce,
		Categories: ingestCategories,
		Prune:      ingestPrune,
	}, embedder, true)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	printIngestReport(result, verbose)
	if !ingestForce {
		return result.Err()
	}
	return nil
}

// ingestOnce wires the pipeline for one run over root. The embedder is
// built by the caller so its cache outlives a single run; nil stores chunks
// without vectors.
func ingestOnce(ctx context.Context, cfg *config.Config, root string, opts usecase.IngestOptions, embedder port.Embedder, progress bool) (*usecase.IngestResult, error) {
	st, err := openStore(ctx, cfg, opts.DryRun)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	chk, err := chunker.NewMarkdownChunker(cfg.Chunking.Options())
	if err != nil {
		return nil, err
	}
	walker := fs.NewWalker(cfg.Content.Includes, cfg.Content.Excludes, cfg.Content.Extension, nil)

	ucOpts := []usecase.IngestOption{
		usecase.WithLogger(logger),
		usecase.WithBatchSize(cfg.Embedding.BatchSize),
		usecase.WithValidatorOptions(
			validator.WithWordThresholds(cfg.Validation.MinPublishedWords, cfg.Validation.MinDraftWords),
			validator.WithStaleAfter(time.Duration(cfg.Validation.StaleDays)*24*time.Hour),
		),
	}
	if !opts.DryRun {
		if embedder != nil {
			ucOpts = append(ucOpts, usecase.WithEmbedder(embedder))
		}
		opts.RequireEmbeddings = cfg.Storage.Backend == "postgres"
	}
	if progress {
		ucOpts = append(ucOpts, usecase.WithProgress(newProgress()))
	}

	return usecase.NewIngestUseCase(st, walker, chk, ucOpts...).Ingest(ctx, root, opts)
}

func newProgress() usecase.ProgressFunc {
	var bar *progressbar.ProgressBar
	var mu sync.Mutex
	return func(done, total int, r usecase.FileResult) {
		mu.Lock()
		defer mu.Unlock()
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(done)
	}
}

func printIngestReport(result *usecase.IngestResult, detail bool) {
	title := "Ingestion complete"
	if result.DryRun {
		title = "Dry run complete (nothing written)"
	}
	fmt.Printf("\n%s:\n", title)
	fmt.Printf("  Created:    %d\n", result.Created)
	fmt.Printf("  Updated:    %d\n", result.Updated)
	fmt.Printf("  Unchanged:  %d\n", result.Unchanged)
	fmt.Printf("  Deleted:    %d\n", result.Deleted)
	fmt.Printf("  Errors:     %d\n", result.Errors)
	fmt.Printf("  Chunks:     %d\n", result.Chunks)

	for _, f := range result.Files {
		if f.Status == usecase.StatusError {
			fmt.Printf("  ✗ %s: %s\n", f.Path, f.Message)
		} else if detail && f.Status != usecase.StatusUnchanged {
			fmt.Printf("  %s %s (%d chunks)\n", f.Status, f.Path, f.Chunks)
		}
	}

	if result.ValidationFailed == 0 && result.Warnings == 0 {
		return
	}
	fmt.Printf("\nValidation: %d document(s) with errors, %d warning(s)\n", result.ValidationFailed, result.Warnings)
	for _, f := range result.Files {
		if f.Validation == nil {
			continue
		}
		if len(f.Validation.Errors) == 0 && (!detail || len(f.Validation.Warnings) == 0) {
			continue
		}
		fmt.Printf("  %s\n", f.Path)
		for _, is := range f.Validation.Errors {
			fmt.Printf("    error   %-12s %s\n", is.Field, is.Message)
		}
		if detail {
			for _, is := range f.Validation.Warnings {
				fmt.Printf("    warning %-12s %s\n", is.Field, is.Message)
			}
		}
	}
}
