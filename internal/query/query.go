// Package query builds the single vector that every section and fragment
// is scored against.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/docrank/internal/embed"
)

// Persona describes the reader the ranking is biased toward.
type Persona struct {
	Role  string `json:"role" yaml:"role"`
	Focus string `json:"focus" yaml:"focus"`
}

// Text joins persona and job into the query sentence that gets embedded.
func Text(p Persona, job string) string {
	return strings.TrimSpace(p.Role + " " + p.Focus + " " + job)
}

// Encoder turns persona and job-to-be-done into a query vector.
type Encoder struct {
	emb embed.Embedder
}

func NewEncoder(emb embed.Embedder) *Encoder {
	return &Encoder{emb: emb}
}

// Encode embeds the query text. An all-blank query is rejected.
func (e *Encoder) Encode(ctx context.Context, p Persona, job string) (embed.Vector, error) {
	text := Text(p, job)
	if text == "" {
		return nil, errors.New("query: persona and job are both empty")
	}
	vec, err := e.emb.Encode(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	return vec, nil
}
