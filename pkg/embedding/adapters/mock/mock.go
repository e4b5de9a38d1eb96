// Package mock provides a deterministic in-process embedder for tests.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
)

// Embedder implements embedding.Embedder with deterministic vectors derived
// from token hashes, so texts sharing words land near each other. A non-nil
// Err makes every call fail, which is how tests simulate an unreachable
// backend.
type Embedder struct {
	// Dim is the vector dimension (default 16).
	Dim int

	// Err, when set, is returned by every Embed call.
	Err error

	mu    sync.Mutex
	calls int
}

// NewEmbedder creates a mock embedder with the default dimension.
func NewEmbedder() *Embedder {
	return &Embedder{Dim: 16}
}

// Calls reports how many Embed invocations were made.
func (e *Embedder) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Embed returns one deterministic unit vector per text.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	e.calls++
	err := e.Err
	e.mu.Unlock()

	if err != nil {
		return nil, err
	}

	dim := e.Dim
	if dim <= 0 {
		dim = 16
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = vectorize(text, dim)
	}
	return out, nil
}

// vectorize builds a bag-of-words style vector: each token bumps the
// component selected by its hash. Normalized so cosine similarity behaves.
func vectorize(text string, dim int) []float32 {
	vec := make([]float64, dim)

	start := -1
	bump := func(word string) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[int(h.Sum32())%dim] += 1.0
	}
	for i, r := range text {
		isWord := r == '_' || (r >= '0' && r <= '9') ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if isWord && start < 0 {
			start = i
		}
		if !isWord && start >= 0 {
			bump(text[start:i])
			start = -1
		}
	}
	if start >= 0 {
		bump(text[start:])
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		// Avoid the zero vector so downstream normalization stays sane.
		vec[0] = 1
		norm = 1
	}

	out := make([]float32, dim)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}
