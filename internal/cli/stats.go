package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"reforma/config"
	"reforma/internal/adapter/chunker"
	"reforma/internal/adapter/frontmatter"
	"reforma/internal/adapter/fs"
	"reforma/internal/adapter/store"
)

var (
	statsCategories []string
	statsSource     string
)

var statsCmd = &cobra.Command{
	Use:   "stats [path]",
	Short: "Show chunking statistics for the knowledge base",
	Long: `Run the chunker over every document without storing anything and report
section, merge and token counts per file, followed by the local index totals.
With --source, list the chunks the local index holds for one document instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringArrayVar(&statsCategories, "category", nil, "only include this category (repeatable)")
	statsCmd.Flags().StringVar(&statsSource, "source", "", "list the indexed chunks of this relative path")
}

func runStats(cmd *cobra.Command, args []string) error {
	root, err := contentRoot(args)
	if err != nil {
		return err
	}
	cfg := GetConfig()
	if statsSource != "" {
		return printSourceChunks(cmd, cfg, statsSource)
	}

	chk, err := chunker.NewMarkdownChunker(cfg.Chunking.Options())
	if err != nil {
		return err
	}
	walker := fs.NewWalker(cfg.Content.Includes, cfg.Content.Excludes, cfg.Content.Extension, statsCategories)
	files, err := walker.Walk(root)
	if err != nil {
		return fmt.Errorf("failed to walk directory: %w", err)
	}

	fmt.Printf("%-48s %8s %7s %7s %7s %7s\n", "FILE", "SECTIONS", "MERGED", "CHUNKS", "AVG", "TOKENS")
	var sections, merged, chunks, tokens int
	for _, f := range files {
		raw, err := fs.ReadFile(f.Path)
		if err != nil {
			fmt.Printf("%-48s error: %v\n", f.RelPath, err)
			continue
		}
		doc, err := frontmatter.ParseDocument(f.Path, f.RelPath, f.Category, raw)
		if err != nil {
			fmt.Printf("%-48s error: %v\n", f.RelPath, err)
			continue
		}
		s := chk.Stats(doc)
		fmt.Printf("%-48s %8d %7d %7d %7.0f %7d\n", f.RelPath, s.Sections, s.Merged, s.Chunks, s.AvgTokens, s.TotalTokens)
		sections += s.Sections
		merged += s.Merged
		chunks += s.Chunks
		tokens += s.TotalTokens
	}

	avg := 0.0
	if chunks > 0 {
		avg = float64(tokens) / float64(chunks)
	}
	fmt.Printf("%-48s %8d %7d %7d %7.0f %7d\n", fmt.Sprintf("TOTAL (%d files)", len(files)), sections, merged, chunks, avg, tokens)

	return printIndexStats(cmd, cfg)
}

// printIndexStats reports the local bolt index when it exists.
func printIndexStats(cmd *cobra.Command, cfg *config.Config) error {
	if cfg.Storage.Backend != "bolt" {
		return nil
	}
	dbPath := config.IndexDBPath(GetRootDir())
	if _, err := os.Stat(dbPath); err != nil {
		return nil
	}
	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}
	defer st.Close()

	stats, err := st.Stats(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("\nIndex %s:\n", dbPath)
	fmt.Printf("  Sources:    %d\n", stats.Sources)
	fmt.Printf("  Chunks:     %d\n", stats.Chunks)
	fmt.Printf("  Embedded:   %d\n", stats.Embedded)
	fmt.Printf("  Avg tokens: %.1f\n", stats.AvgTokens)
	if rebuild, reason, err := st.NeedsRebuild(cfg); err == nil && rebuild {
		fmt.Printf("  Rebuild pending: %s\n", reason)
	}
	return nil
}

// printSourceChunks lists the chunks stored for one source path.
func printSourceChunks(cmd *cobra.Command, cfg *config.Config, path string) error {
	if cfg.Storage.Backend != "bolt" {
		return fmt.Errorf("--source needs the bolt backend, got %q", cfg.Storage.Backend)
	}
	st, err := store.NewBoltStore(config.IndexDBPath(GetRootDir()))
	if err != nil {
		return fmt.Errorf("failed to open index store: %w", err)
	}
	defer st.Close()
	return writeSourceChunks(cmd.Context(), os.Stdout, st, path)
}

func writeSourceChunks(ctx context.Context, w io.Writer, st *store.BoltStore, path string) error {
	chunks, err := st.GetChunks(ctx, path)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("no indexed chunks for %s", path)
	}
	fmt.Fprintf(w, "%-4s %-40s %7s %8s %s\n", "IDX", "SECTION", "TOKENS", "OVERLAP", "EMBEDDED")
	for _, c := range chunks {
		fmt.Fprintf(w, "%-4d %-40s %7d %8d %v\n", c.ChunkIndex, c.SectionTitle, c.TokenEstimate, c.OverlapChars, len(c.Embedding) > 0)
	}
	return nil
}
