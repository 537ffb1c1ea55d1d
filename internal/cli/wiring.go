package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"reforma/config"
	"reforma/internal/adapter/cache"
	"reforma/internal/adapter/embedding"
	"reforma/internal/adapter/memstore"
	"reforma/internal/adapter/pgstore"
	"reforma/internal/adapter/store"
	"reforma/internal/port"
)

// contentRoot resolves the content directory from args or config.
func contentRoot(args []string) (string, error) {
	path := cfg.Content.Root
	if len(args) > 0 {
		path = args[0]
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(GetRootDir(), path)
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", path)
	}
	return path, nil
}

// openStore opens the configured chunk store. Dry runs read stored hashes
// when a store is reachable without setup and never migrate it; otherwise
// they fall back to an empty in-memory store.
func openStore(ctx context.Context, cfg *config.Config, dryRun bool) (port.ChunkStore, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return memstore.NewMemoryStore(), nil
	case "postgres":
		url := os.Getenv(cfg.Storage.DatabaseURLEnv)
		if url == "" {
			if dryRun {
				return memstore.NewMemoryStore(), nil
			}
			return nil, fmt.Errorf("%s is not set", cfg.Storage.DatabaseURLEnv)
		}
		pg, err := pgstore.Connect(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		if dryRun {
			return pg, nil
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	default:
		if dryRun {
			dbPath := config.IndexDBPath(GetRootDir())
			if _, err := os.Stat(dbPath); err != nil {
				return memstore.NewMemoryStore(), nil
			}
			st, err := store.NewBoltStore(dbPath)
			if err != nil {
				return nil, err
			}
			return st, nil
		}
		st, err := openBoltStore(cfg)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
}

// openBoltStore opens the local index and clears it when the chunking or
// embedding settings changed since it was built.
func openBoltStore(cfg *config.Config) (*store.BoltStore, error) {
	if err := config.EnsureDataDir(GetRootDir()); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	dbPath := config.IndexDBPath(GetRootDir())
	st, err := store.NewBoltStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}

	migration, err := st.CheckMigration(cfg)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to check migration: %w", err)
	}
	if migration.NeedsRebuild {
		fmt.Printf("Index rebuild required: %s\n", migration.Reason)
		if err := st.Clear(); err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to clear index: %w", err)
		}
	}
	if migration.NeedsMigration || migration.NeedsRebuild {
		if err := st.Migrate(cfg); err != nil {
			st.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
	}
	return st, nil
}

// buildEmbedder returns nil when the provider has no credentials.
func buildEmbedder(cfg *config.Config) (port.Embedder, error) {
	if !embedding.HasCredentials(cfg.Embedding) {
		logger.Info("no embedding credentials, chunks will be stored without vectors",
			zap.String("provider", cfg.Embedding.Provider))
		return nil, nil
	}
	e, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	c := cache.NewEmbeddingCache(cfg.Embedding.CacheSize, cfg.Embedding.CacheTTL)
	return cache.NewCachingEmbedder(e, c), nil
}
