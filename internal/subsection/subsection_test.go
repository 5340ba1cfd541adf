package subsection

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dgallion1/docrank/internal/document"
	"github.com/dgallion1/docrank/internal/embed"
	"github.com/dgallion1/docrank/internal/rank"
)

type fixedEmbedder struct {
	vectors map[string]embed.Vector
	err     error
	seen    []string
}

func (f *fixedEmbedder) Model() string { return "fixed" }

func (f *fixedEmbedder) Encode(ctx context.Context, text string) (embed.Vector, error) {
	vecs, err := f.EncodeBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fixedEmbedder) EncodeBatch(ctx context.Context, texts []string) ([]embed.Vector, error) {
	f.seen = append(f.seen, texts...)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]embed.Vector, len(texts))
	for i, t := range texts {
		if v, ok := f.vectors[t]; ok {
			out[i] = v
		} else {
			out[i] = embed.Vector{0, 1}
		}
	}
	return out, nil
}

var query = embed.Vector{1, 0}

func TestExtract_AbstractSection(t *testing.T) {
	emb := &fixedEmbedder{vectors: map[string]embed.Vector{
		"This paper studies X": {1, 1},
		"It improves Y":        {1, 0},
	}}
	ex := New(rank.NewRanker(emb), nil)
	sec := document.Section{DocumentID: "a.pdf", Page: 1, Title: "ABSTRACT", Body: "This paper studies X. It improves Y."}

	got, err := ex.Extract(context.Background(), sec, query, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"It improves Y", "This paper studies X"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
	if !reflect.DeepEqual(emb.seen, []string{"This paper studies X", "It improves Y"}) {
		t.Errorf("unexpected fragments encoded: %q", emb.seen)
	}
}

func TestExtract_LimitsToSubK(t *testing.T) {
	emb := &fixedEmbedder{vectors: map[string]embed.Vector{"b": {1, 0}}}
	ex := New(rank.NewRanker(emb), nil)
	got, err := ex.Extract(context.Background(), document.Section{Body: "a. b. c. d"}, query, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("expected [b a], got %q", got)
	}
}

func TestExtract_NoFragments(t *testing.T) {
	emb := &fixedEmbedder{}
	ex := New(rank.NewRanker(emb), nil)
	got, err := ex.Extract(context.Background(), document.Section{Body: " . .. . "}, query, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no fragments, got %q", got)
	}
	if len(emb.seen) != 0 {
		t.Errorf("expected no encoding, got %q", emb.seen)
	}
}

func TestExtract_FewerFragmentsThanSubK(t *testing.T) {
	ex := New(rank.NewRanker(&fixedEmbedder{}), nil)
	got, err := ex.Extract(context.Background(), document.Section{Body: "Only one sentence"}, query, 5)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"Only one sentence"}) {
		t.Errorf("unexpected fragments %q", got)
	}
}

func TestExtract_PropagatesError(t *testing.T) {
	boom := errors.New("embedder down")
	ex := New(rank.NewRanker(&fixedEmbedder{err: boom}), nil)
	_, err := ex.Extract(context.Background(), document.Section{Body: "a. b"}, query, 2)
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestPeriodSplitter(t *testing.T) {
	got := Fragments(PeriodSplitter{}, "Accuracy was 3.5 points higher.  Runs were repeated. ")
	want := []string{"Accuracy was 3", "5 points higher", "Runs were repeated"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSentenceSplitter(t *testing.T) {
	got := Fragments(SentenceSplitter{}, "Accuracy was 3.5 points higher. Why? Runs were repeated!")
	want := []string{"Accuracy was 3.5 points higher.", "Why?", "Runs were repeated!"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestExtract_CustomSplitter(t *testing.T) {
	ex := New(rank.NewRanker(&fixedEmbedder{}), SentenceSplitter{})
	got, err := ex.Extract(context.Background(), document.Section{Body: "Version 2.1 shipped. It works."}, query, 2)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Version 2.1 shipped.", "It works."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %q, got %q", want, got)
	}
}
