package port

import "reforma/internal/domain"

type Chunker interface {
	Chunk(doc domain.Document) ([]domain.ContentChunk, error)

	// Stats runs the same pipeline as Chunk without building chunks.
	Stats(doc domain.Document) domain.ChunkingStats
}
