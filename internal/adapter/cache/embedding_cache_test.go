package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

type countingEmbedder struct {
	calls [][]string
}

func (e *countingEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.calls = append(e.calls, append([]string(nil), texts...))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t))}
	}
	return out, nil
}

func (e *countingEmbedder) Dimension() int    { return 1 }
func (e *countingEmbedder) ModelName() string { return "counting" }

func TestEmbeddingCacheTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewEmbeddingCache(10, time.Hour, WithClock(clock.now))

	c.Put("m", "texto", []float32{1})
	if _, ok := c.Get("m", "texto"); !ok {
		t.Fatal("expected hit")
	}
	if _, ok := c.Get("outro", "texto"); ok {
		t.Error("model must be part of the key")
	}

	clock.t = clock.t.Add(59 * time.Minute)
	if _, ok := c.Get("m", "texto"); !ok {
		t.Error("expected hit before TTL")
	}

	clock.t = clock.t.Add(2 * time.Minute)
	if _, ok := c.Get("m", "texto"); ok {
		t.Error("expected expiry after TTL")
	}
	if c.Size() != 0 {
		t.Errorf("expired entry not removed, size %d", c.Size())
	}
	hits, misses := c.Stats()
	if hits != 2 || misses != 2 {
		t.Errorf("unexpected stats hits=%d misses=%d", hits, misses)
	}
}

func TestEmbeddingCacheEvictsLeastRecent(t *testing.T) {
	c := NewEmbeddingCache(2, time.Hour)
	c.Put("m", "a", []float32{1})
	c.Put("m", "b", []float32{2})
	c.Get("m", "a")
	c.Put("m", "c", []float32{3})

	if _, ok := c.Get("m", "b"); ok {
		t.Error("expected b evicted")
	}
	if _, ok := c.Get("m", "a"); !ok {
		t.Error("expected a kept after recent use")
	}

	c.Invalidate()
	if c.Size() != 0 {
		t.Error("invalidate left entries")
	}
}

func TestCachingEmbedderOnlyEmbedsMisses(t *testing.T) {
	inner := &countingEmbedder{}
	e := NewCachingEmbedder(inner, NewEmbeddingCache(10, time.Hour))

	if _, err := e.Embed(context.Background(), []string{"um", "dois"}); err != nil {
		t.Fatal(err)
	}
	got, err := e.Embed(context.Background(), []string{"dois", "três", "um"})
	if err != nil {
		t.Fatal(err)
	}

	if len(inner.calls) != 2 || len(inner.calls[1]) != 1 || inner.calls[1][0] != "três" {
		t.Errorf("expected second call to embed only the miss, got %v", inner.calls)
	}
	want := []float32{4, 5, 2}
	for i := range want {
		if got[i][0] != want[i] {
			t.Errorf("vector %d = %v, want %v", i, got[i][0], want[i])
		}
	}

	if _, err := e.Embed(context.Background(), []string{"um"}); err != nil {
		t.Fatal(err)
	}
	if len(inner.calls) != 2 {
		t.Error("full hit should not call the embedder")
	}
}
