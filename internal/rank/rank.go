// Package rank orders items by cosine similarity to a query vector.
package rank

import (
	"context"
	"fmt"
	"sort"

	"github.com/dgallion1/docrank/internal/embed"
)

// Item is anything that can be ranked by its text.
type Item[T any] struct {
	Value T
	Text  string
}

// Scored is a ranked item. Rank is 1-based and dense.
type Scored[T any] struct {
	Value T
	Text  string
	Score float64
	Rank  int
}

// Ranker scores texts against a query vector using an embedder.
type Ranker struct {
	emb embed.Embedder
}

func NewRanker(emb embed.Embedder) *Ranker {
	return &Ranker{emb: emb}
}

// Scores encodes texts in one batch and returns their similarity to q, in
// input order.
func (r *Ranker) Scores(ctx context.Context, texts []string, q embed.Vector) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vecs, err := r.emb.EncodeBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("encode %d texts: %w", len(texts), err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(vecs), len(texts))
	}
	scores := make([]float64, len(vecs))
	for i, v := range vecs {
		scores[i] = embed.CosineSimilarity(v, q)
	}
	return scores, nil
}

// Rank returns the topK items most similar to q, best first. Nothing is
// encoded when topK <= 0 or items is empty.
func Rank[T any](ctx context.Context, r *Ranker, items []Item[T], q embed.Vector, topK int) ([]Scored[T], error) {
	if topK <= 0 || len(items) == 0 {
		return []Scored[T]{}, nil
	}
	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.Text
	}
	scores, err := r.Scores(ctx, texts, q)
	if err != nil {
		return nil, err
	}
	return TopK(items, scores, topK), nil
}

// TopK sorts items by descending score, keeping input order for ties, and
// keeps the first k. scores must be parallel to items.
func TopK[T any](items []Item[T], scores []float64, k int) []Scored[T] {
	if k <= 0 || len(items) == 0 {
		return []Scored[T]{}
	}
	scored := make([]Scored[T], len(items))
	for i, it := range items {
		scored[i] = Scored[T]{Value: it.Value, Text: it.Text, Score: scores[i]}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if k < len(scored) {
		scored = scored[:k]
	}
	for i := range scored {
		scored[i].Rank = i + 1
	}
	return scored
}
