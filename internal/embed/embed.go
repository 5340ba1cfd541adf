// Package embed turns text into vectors and compares them.
package embed

import (
	"context"
	"fmt"
	"math"
)

// Vector is a fixed-dimension text embedding.
type Vector []float32

// Embedder encodes text into vectors. Implementations must be safe for
// concurrent use and return the same vector for the same text within a run.
type Embedder interface {
	Encode(ctx context.Context, text string) (Vector, error)
	// EncodeBatch returns one vector per input, in input order.
	EncodeBatch(ctx context.Context, texts []string) ([]Vector, error)
	// Model identifies the embedding model in logs and stats.
	Model() string
}

// CosineSimilarity returns the cosine of the angle between a and b, in
// [-1, 1]. Mismatched lengths and zero vectors score 0.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	return math.Max(-1, math.Min(1, sim))
}

// encodeOne runs a single-text batch and unwraps the result.
func encodeOne(ctx context.Context, e Embedder, text string) (Vector, error) {
	vecs, err := e.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("expected 1 embedding, got %d", len(vecs))
	}
	return vecs[0], nil
}

// l2Normalize scales v to unit length in place.
func l2Normalize(v Vector) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}

// batches splits texts into consecutive slices of at most size elements.
func batches(texts []string, size int) [][]string {
	if size <= 0 {
		size = len(texts)
	}
	var out [][]string
	for start := 0; start < len(texts); start += size {
		out = append(out, texts[start:min(start+size, len(texts))])
	}
	return out
}
