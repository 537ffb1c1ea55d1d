package embedding

import (
	"context"
	"math"
	"sync"
)

// MockEmbedder derives unit vectors from the text runes. Equal texts get equal vectors.
type MockEmbedder struct {
	dimension int

	mu    sync.Mutex
	calls int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

func (e *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, e.dimension)
		j := 0
		for _, r := range text {
			vec[j%e.dimension] += float32(r) / 1000.0
			j++
		}
		embeddings[i] = normalize(vec)
	}
	return embeddings, nil
}

// Calls returns how many Embed requests the mock has served.
func (e *MockEmbedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func (e *MockEmbedder) Dimension() int {
	return e.dimension
}

func (e *MockEmbedder) ModelName() string {
	return "mock"
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	n := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= n
	}
	return v
}
