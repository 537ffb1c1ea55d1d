// Package pgstore keeps content chunks in Postgres with pgvector. The
// migration also installs match_content_chunks, the function the chat
// backend calls for similarity search.
package pgstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"reforma/internal/domain"
	"reforma/internal/port"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a ChunkStore backed by a pgx connection pool.
type Store struct {
	Pool *pgxpool.Pool
}

var (
	_ port.ChunkStore    = (*Store)(nil)
	_ port.ChunkReplacer = (*Store)(nil)
	_ port.SourceLister  = (*Store)(nil)
)

// Connect opens a pool and pings the server.
func Connect(ctx context.Context, url string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

// Migrate applies the embedded goose migrations.
func (s *Store) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.Pool)
	defer db.Close()
	return migrate(ctx, db)
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// ChunkID derives the row id of a chunk from its path and index, so
// re-ingesting a document reuses the same ids.
func ChunkID(path string, index int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(path+"#"+strconv.Itoa(index)))
}

// formatVector renders an embedding in pgvector's text form. Empty
// embeddings become NULL.
func formatVector(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'f', 6, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (s *Store) GetExistingHash(ctx context.Context, path string) (string, bool, error) {
	var hash string
	err := s.Pool.QueryRow(ctx,
		`SELECT content_hash FROM content_chunks WHERE source_path = $1 LIMIT 1`, path).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read hash for %s: %w", path, err)
	}
	return strings.TrimSpace(hash), true, nil
}

func (s *Store) DeleteChunks(ctx context.Context, path string) (int, error) {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM content_chunks WHERE source_path = $1`, path)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks for %s: %w", path, err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) InsertChunks(ctx context.Context, chunks []domain.ContentChunk) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insert(ctx, tx, chunks); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ReplaceChunks deletes and inserts a path's chunks in one transaction.
func (s *Store) ReplaceChunks(ctx context.Context, path string, chunks []domain.ContentChunk) (int, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM content_chunks WHERE source_path = $1`, path)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks for %s: %w", path, err)
	}
	if err := insert(ctx, tx, chunks); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

const insertChunkSQL = `
INSERT INTO content_chunks (
	id, source_path, chunk_index, title, section_title, category, difficulty,
	content, content_hash, token_estimate, overlap_chars, metadata, embedding
) VALUES (
	$1, $2, $3, $4, NULLIF($5, ''), $6, NULLIF($7, ''),
	$8, $9, $10, $11, $12::jsonb, $13::vector
)`

func insert(ctx context.Context, tx pgx.Tx, chunks []domain.ContentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, c := range chunks {
		metadata, err := json.Marshal(c.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		batch.Queue(insertChunkSQL,
			ChunkID(c.SourcePath, c.ChunkIndex), c.SourcePath, c.ChunkIndex, c.Title,
			c.SectionTitle, c.Category, c.Difficulty,
			c.Content, c.ContentHash, c.TokenEstimate, c.OverlapChars, string(metadata),
			formatVector(c.Embedding),
		)
	}
	results := tx.SendBatch(ctx, batch)
	for _, c := range chunks {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to insert chunk %s#%d: %w", c.SourcePath, c.ChunkIndex, err)
		}
	}
	return results.Close()
}

// SourcePaths lists the distinct stored source paths.
func (s *Store) SourcePaths(ctx context.Context) ([]string, error) {
	rows, err := s.Pool.Query(ctx, `SELECT DISTINCT source_path FROM content_chunks ORDER BY source_path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	paths, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("error iterating sources: %w", err)
	}
	return paths, nil
}

func (s *Store) Close() error {
	s.Pool.Close()
	return nil
}
