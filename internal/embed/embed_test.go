package embed

import (
	"context"
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector
		want float64
	}{
		{"identical", Vector{1, 2, 3}, Vector{1, 2, 3}, 1},
		{"opposite", Vector{1, 0}, Vector{-1, 0}, -1},
		{"orthogonal", Vector{1, 0}, Vector{0, 1}, 0},
		{"scaled", Vector{1, 1}, Vector{3, 3}, 1},
		{"length mismatch", Vector{1, 0}, Vector{1, 0, 0}, 0},
		{"zero vector", Vector{0, 0}, Vector{1, 0}, 0},
		{"empty", Vector{}, Vector{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestHash_Deterministic(t *testing.T) {
	h := NewHash(64)
	ctx := context.Background()
	a, err := h.Encode(ctx, "Graph neural networks for drug discovery")
	if err != nil {
		t.Fatal(err)
	}
	b, err := h.Encode(ctx, "Graph neural networks for drug discovery")
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 64 {
		t.Fatalf("expected dimension 64, got %d", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d: %f vs %f", i, a[i], b[i])
		}
	}
	if got := CosineSimilarity(a, b); math.Abs(got-1) > 1e-6 {
		t.Errorf("expected self-similarity 1, got %f", got)
	}
}

func TestHash_SharedVocabularyScoresHigher(t *testing.T) {
	h := NewHash(DefaultHashDimension)
	ctx := context.Background()
	vecs, err := h.EncodeBatch(ctx, []string{
		"benchmark datasets for protein folding",
		"we evaluate on benchmark datasets for protein structure",
		"quarterly revenue grew in the retail segment",
	})
	if err != nil {
		t.Fatal(err)
	}
	related := CosineSimilarity(vecs[0], vecs[1])
	unrelated := CosineSimilarity(vecs[0], vecs[2])
	if related <= unrelated {
		t.Errorf("expected related %f > unrelated %f", related, unrelated)
	}
}

func TestHash_StopwordsOnlyIsZero(t *testing.T) {
	h := NewHash(32)
	v, err := h.Encode(context.Background(), "the and of")
	if err != nil {
		t.Fatal(err)
	}
	for i, x := range v {
		if x != 0 {
			t.Fatalf("expected zero vector, got %f at %d", x, i)
		}
	}
}

func TestHash_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHash(8).EncodeBatch(ctx, []string{"x"}); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestHash_Model(t *testing.T) {
	if got := NewHash(0).Model(); got != "hash-384" {
		t.Errorf("expected hash-384, got %q", got)
	}
}

func TestBatches(t *testing.T) {
	texts := []string{"a", "b", "c", "d", "e"}
	got := batches(texts, 2)
	if len(got) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(got))
	}
	if len(got[0]) != 2 || len(got[1]) != 2 || len(got[2]) != 1 {
		t.Errorf("unexpected batch sizes: %v", got)
	}
	if got[2][0] != "e" {
		t.Errorf("expected last batch [e], got %v", got[2])
	}
	if len(batches(nil, 4)) != 0 {
		t.Error("expected no batches for empty input")
	}
	if len(batches(texts, 0)) != 1 {
		t.Error("expected one batch when size is unset")
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	e, err := New(Settings{Provider: "hash", Dimension: 16}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if e.Model() != "hash-16" {
		t.Errorf("expected hash-16, got %q", e.Model())
	}

	stats := NewStats(0)
	e, err = New(Settings{Provider: "hash", Dimension: 16}, stats, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := e.(*Instrumented); !ok {
		t.Errorf("expected instrumented embedder, got %T", e)
	}

	if _, err := New(Settings{Provider: "openai"}, nil, nil); err == nil {
		t.Error("expected error for openai without api key")
	}
	if _, err := New(Settings{Provider: "word2vec"}, nil, nil); err == nil {
		t.Error("expected error for unknown provider")
	}
}
