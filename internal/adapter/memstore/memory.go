package memstore

import (
	"context"
	"sort"
	"sync"

	"reforma/internal/domain"
	"reforma/internal/port"
)

// MemoryStore is a ChunkStore held in process memory. Used for dry runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	hashes map[string]string
	chunks map[string][]domain.ContentChunk

	// FailInsert, when set, is returned by InsertChunks for any matching path.
	FailInsert func(path string) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hashes: make(map[string]string),
		chunks: make(map[string][]domain.ContentChunk),
	}
}

func (s *MemoryStore) GetExistingHash(ctx context.Context, path string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hashes[path]
	return h, ok, nil
}

func (s *MemoryStore) DeleteChunks(ctx context.Context, path string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.chunks[path])
	delete(s.chunks, path)
	delete(s.hashes, path)
	return n, nil
}

func (s *MemoryStore) InsertChunks(ctx context.Context, chunks []domain.ContentChunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailInsert != nil {
		for _, c := range chunks {
			if err := s.FailInsert(c.SourcePath); err != nil {
				return err
			}
		}
	}
	for _, c := range chunks {
		s.chunks[c.SourcePath] = append(s.chunks[c.SourcePath], c)
		s.hashes[c.SourcePath] = c.ContentHash
	}
	return nil
}

// Chunks returns a copy of the stored chunks for path in index order.
func (s *MemoryStore) Chunks(path string) []domain.ContentChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]domain.ContentChunk(nil), s.chunks[path]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChunkIndex < out[j].ChunkIndex })
	return out
}

func (s *MemoryStore) SourcePaths(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.hashes))
	for p := range s.hashes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

var _ port.ChunkStore = (*MemoryStore)(nil)
