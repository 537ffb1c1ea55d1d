package port

import (
	"context"

	"reforma/internal/domain"
)

// ChunkStore persists content chunks keyed by source path.
type ChunkStore interface {
	// GetExistingHash returns the content hash stored for path.
	// The boolean is false when the path has never been ingested.
	GetExistingHash(ctx context.Context, path string) (string, bool, error)

	// DeleteChunks removes every chunk of path and returns how many were removed.
	DeleteChunks(ctx context.Context, path string) (int, error)

	// InsertChunks stores chunks. Callers delete the path's previous chunks first.
	InsertChunks(ctx context.Context, chunks []domain.ContentChunk) error

	Close() error
}

// ChunkReplacer is implemented by stores that can delete and insert a path's
// chunks in one transaction.
type ChunkReplacer interface {
	ReplaceChunks(ctx context.Context, path string, chunks []domain.ContentChunk) (int, error)
}

// SourceLister is implemented by stores that can enumerate ingested paths.
type SourceLister interface {
	SourcePaths(ctx context.Context) ([]string, error)
}
