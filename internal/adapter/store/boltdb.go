package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"reforma/internal/domain"
)

var (
	bucketSources      = []byte("sources")
	bucketChunks       = []byte("chunks")
	bucketSourceChunks = []byte("source_chunks")
	bucketStats        = []byte("stats")
)

// BoltStore keeps content chunks in a local bbolt file.
type BoltStore struct {
	db  *bbolt.DB
	now func() time.Time
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketSources, bucketChunks, bucketSourceChunks, bucketStats}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db, now: time.Now}, nil
}

// SourceInfo describes one ingested source document.
type SourceInfo struct {
	Path       string    `json:"path"`
	Hash       string    `json:"hash"`
	Category   string    `json:"category"`
	Chunks     int       `json:"chunks"`
	Tokens     int       `json:"tokens"`
	IngestedAt time.Time `json:"ingested_at"`
}

// CorpusStats aggregates the stored sources.
type CorpusStats struct {
	Sources   int     `json:"sources"`
	Chunks    int     `json:"chunks"`
	Tokens    int     `json:"tokens"`
	Embedded  int     `json:"embedded"`
	AvgTokens float64 `json:"avg_tokens"`
}

func chunkKey(path string, index int) []byte {
	return []byte(fmt.Sprintf("%s#%06d", path, index))
}

func (s *BoltStore) GetExistingHash(ctx context.Context, path string) (string, bool, error) {
	var hash string
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSources).Get([]byte(path))
		if data == nil {
			return nil
		}
		var info SourceInfo
		if err := json.Unmarshal(data, &info); err != nil {
			return err
		}
		hash, found = info.Hash, true
		return nil
	})
	return hash, found, err
}

func (s *BoltStore) DeleteChunks(ctx context.Context, path string) (int, error) {
	var n int
	err := s.db.Update(func(tx *bbolt.Tx) error {
		var err error
		n, err = deleteSource(tx, path)
		return err
	})
	return n, err
}

func (s *BoltStore) InsertChunks(ctx context.Context, chunks []domain.ContentChunk) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return s.insert(tx, chunks)
	})
}

// ReplaceChunks deletes the path's chunks and inserts the new ones in one
// transaction.
func (s *BoltStore) ReplaceChunks(ctx context.Context, path string, chunks []domain.ContentChunk) (int, error) {
	var n int
	err := s.db.Update(func(tx *bbolt.Tx) error {
		var err error
		if n, err = deleteSource(tx, path); err != nil {
			return err
		}
		return s.insert(tx, chunks)
	})
	return n, err
}

func deleteSource(tx *bbolt.Tx, path string) (int, error) {
	sourceChunks := tx.Bucket(bucketSourceChunks)
	data := sourceChunks.Get([]byte(path))
	n := 0
	if data != nil {
		var keys []string
		if err := json.Unmarshal(data, &keys); err != nil {
			return 0, err
		}
		chunkBucket := tx.Bucket(bucketChunks)
		for _, k := range keys {
			if err := chunkBucket.Delete([]byte(k)); err != nil {
				return 0, err
			}
		}
		n = len(keys)
		if err := sourceChunks.Delete([]byte(path)); err != nil {
			return 0, err
		}
	}
	return n, tx.Bucket(bucketSources).Delete([]byte(path))
}

func (s *BoltStore) insert(tx *bbolt.Tx, chunks []domain.ContentChunk) error {
	chunkBucket := tx.Bucket(bucketChunks)
	sourceChunks := tx.Bucket(bucketSourceChunks)
	sources := tx.Bucket(bucketSources)

	keysByPath := make(map[string][]string)
	infoByPath := make(map[string]*SourceInfo)
	var order []string

	for _, chunk := range chunks {
		data, err := json.Marshal(chunk)
		if err != nil {
			return err
		}
		key := chunkKey(chunk.SourcePath, chunk.ChunkIndex)
		if err := chunkBucket.Put(key, data); err != nil {
			return err
		}

		info, ok := infoByPath[chunk.SourcePath]
		if !ok {
			info = &SourceInfo{
				Path:       chunk.SourcePath,
				Hash:       chunk.ContentHash,
				Category:   chunk.Category,
				IngestedAt: s.now().UTC(),
			}
			if existing := sourceChunks.Get([]byte(chunk.SourcePath)); existing != nil {
				var keys []string
				if err := json.Unmarshal(existing, &keys); err != nil {
					return err
				}
				keysByPath[chunk.SourcePath] = keys
			}
			if existing := sources.Get([]byte(chunk.SourcePath)); existing != nil {
				var prev SourceInfo
				if err := json.Unmarshal(existing, &prev); err != nil {
					return err
				}
				info.Chunks, info.Tokens = prev.Chunks, prev.Tokens
			}
			infoByPath[chunk.SourcePath] = info
			order = append(order, chunk.SourcePath)
		}
		keysByPath[chunk.SourcePath] = append(keysByPath[chunk.SourcePath], string(key))
		info.Chunks++
		info.Tokens += chunk.TokenEstimate
	}

	for _, path := range order {
		keysData, err := json.Marshal(keysByPath[path])
		if err != nil {
			return err
		}
		if err := sourceChunks.Put([]byte(path), keysData); err != nil {
			return err
		}
		infoData, err := json.Marshal(infoByPath[path])
		if err != nil {
			return err
		}
		if err := sources.Put([]byte(path), infoData); err != nil {
			return err
		}
	}
	return nil
}

// GetChunks returns the stored chunks of path in index order.
func (s *BoltStore) GetChunks(ctx context.Context, path string) ([]domain.ContentChunk, error) {
	var chunks []domain.ContentChunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSourceChunks).Get([]byte(path))
		if data == nil {
			return nil
		}
		var keys []string
		if err := json.Unmarshal(data, &keys); err != nil {
			return err
		}
		chunkBucket := tx.Bucket(bucketChunks)
		for _, k := range keys {
			raw := chunkBucket.Get([]byte(k))
			if raw == nil {
				continue
			}
			var c domain.ContentChunk
			if err := json.Unmarshal(raw, &c); err != nil {
				return err
			}
			chunks = append(chunks, c)
		}
		return nil
	})
	sort.SliceStable(chunks, func(i, j int) bool { return chunks[i].ChunkIndex < chunks[j].ChunkIndex })
	return chunks, err
}

// ListSources returns every stored source in path order.
func (s *BoltStore) ListSources(ctx context.Context) ([]SourceInfo, error) {
	var out []SourceInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSources).ForEach(func(k, v []byte) error {
			var info SourceInfo
			if err := json.Unmarshal(v, &info); err != nil {
				return err
			}
			out = append(out, info)
			return nil
		})
	})
	return out, err
}

// SourcePaths lists the stored source paths.
func (s *BoltStore) SourcePaths(ctx context.Context) ([]string, error) {
	sources, err := s.ListSources(ctx)
	if err != nil {
		return nil, err
	}
	paths := make([]string, len(sources))
	for i, src := range sources {
		paths[i] = src.Path
	}
	return paths, nil
}

func (s *BoltStore) Stats(ctx context.Context) (CorpusStats, error) {
	var stats CorpusStats
	err := s.db.View(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketSources).ForEach(func(k, v []byte) error {
			var info SourceInfo
			if err := json.Unmarshal(v, &info); err != nil {
				return err
			}
			stats.Sources++
			stats.Chunks += info.Chunks
			stats.Tokens += info.Tokens
			return nil
		}); err != nil {
			return err
		}
		return tx.Bucket(bucketChunks).ForEach(func(k, v []byte) error {
			var c struct {
				Embedding []float32 `json:"embedding"`
			}
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			if len(c.Embedding) > 0 {
				stats.Embedded++
			}
			return nil
		})
	})
	if stats.Chunks > 0 {
		stats.AvgTokens = float64(stats.Tokens) / float64(stats.Chunks)
	}
	return stats, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
