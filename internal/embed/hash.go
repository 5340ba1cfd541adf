package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

// DefaultHashDimension matches the width of small sentence-transformer models.
const DefaultHashDimension = 384

// Hash is an offline embedder that hashes word unigrams and bigrams into a
// fixed number of signed buckets. Identical text always yields an identical
// vector, and texts sharing vocabulary score higher under cosine similarity.
type Hash struct {
	dim       int
	tokens    *regexp.Regexp
	stopwords map[string]struct{}
}

// NewHash creates a hashing embedder of the given dimension.
func NewHash(dimension int) *Hash {
	if dimension <= 0 {
		dimension = DefaultHashDimension
	}
	return &Hash{
		dim:       dimension,
		tokens:    regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*|\p{N}+`),
		stopwords: defaultStopwords(),
	}
}

func (h *Hash) Model() string { return fmt.Sprintf("hash-%d", h.dim) }

// Dimension returns the vector width.
func (h *Hash) Dimension() int { return h.dim }

func (h *Hash) Encode(ctx context.Context, text string) (Vector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.vector(text), nil
}

func (h *Hash) EncodeBatch(ctx context.Context, texts []string) ([]Vector, error) {
	out := make([]Vector, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *Hash) vector(text string) Vector {
	vec := make(Vector, h.dim)
	terms := h.tokenize(text)
	for i, term := range terms {
		h.add(vec, term, 1)
		if i > 0 {
			h.add(vec, terms[i-1]+" "+term, 0.5)
		}
	}
	l2Normalize(vec)
	return vec
}

func (h *Hash) add(vec Vector, feature string, weight float32) {
	f := fnv.New64a()
	f.Write([]byte(feature))
	sum := f.Sum64()
	idx := int(sum % uint64(h.dim))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

func (h *Hash) tokenize(text string) []string {
	raw := h.tokens.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := h.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
