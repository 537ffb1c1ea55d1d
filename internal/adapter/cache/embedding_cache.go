package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"reforma/internal/port"
)

// EmbeddingCache is a bounded LRU of embedding vectors with a TTL. The clock
// is injected so expiry can be tested without sleeping.
type EmbeddingCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	hits   int
	misses int
}

type cacheEntry struct {
	vector    []float32
	timestamp time.Time
}

type Option func(*EmbeddingCache)

func WithClock(now func() time.Time) Option {
	return func(c *EmbeddingCache) { c.now = now }
}

func NewEmbeddingCache(maxSize int, ttl time.Duration, opts ...Option) *EmbeddingCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	c := &EmbeddingCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cacheKey(model, text string) string {
	hash := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(hash[:16])
}

func (c *EmbeddingCache) Get(model, text string) ([]float32, bool) {
	key := cacheKey(model, text)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return nil, false
	}

	if c.now().Sub(entry.timestamp) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses++
		return nil, false
	}

	c.moveToEnd(key)
	c.hits++
	return entry.vector, true
}

func (c *EmbeddingCache) Put(model, text string, vector []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(model, text)

	if _, exists := c.entries[key]; exists {
		c.entries[key] = &cacheEntry{vector: vector, timestamp: c.now()}
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &cacheEntry{vector: vector, timestamp: c.now()}
	c.order = append(c.order, key)
}

func (c *EmbeddingCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*cacheEntry)
	c.order = c.order[:0]
}

func (c *EmbeddingCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counts since creation.
func (c *EmbeddingCache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

func (c *EmbeddingCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *EmbeddingCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *EmbeddingCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// CachingEmbedder serves repeated texts from the cache and sends only the
// misses to the wrapped embedder, preserving input order.
type CachingEmbedder struct {
	embedder port.Embedder
	cache    *EmbeddingCache
}

func NewCachingEmbedder(embedder port.Embedder, cache *EmbeddingCache) *CachingEmbedder {
	return &CachingEmbedder{
		embedder: embedder,
		cache:    cache,
	}
}

func (e *CachingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	model := e.embedder.ModelName()
	out := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, t := range texts {
		if v, ok := e.cache.Get(model, t); ok {
			out[i] = v
			continue
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	vectors, err := e.embedder.Embed(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vectors), len(missing))
	}
	for j, v := range vectors {
		out[missingIdx[j]] = v
		e.cache.Put(model, missing[j], v)
	}
	return out, nil
}

func (e *CachingEmbedder) Dimension() int {
	return e.embedder.Dimension()
}

func (e *CachingEmbedder) ModelName() string {
	return e.embedder.ModelName()
}
