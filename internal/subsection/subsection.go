// Package subsection picks the sentences of a section that best match the
// query.
package subsection

import (
	"context"

	"github.com/dgallion1/docrank/internal/document"
	"github.com/dgallion1/docrank/internal/embed"
	"github.com/dgallion1/docrank/internal/rank"
)

// Extractor ranks the fragments of a single section.
type Extractor struct {
	ranker   *rank.Ranker
	splitter FragmentSplitter
}

// New creates an Extractor. A nil splitter splits on periods.
func New(r *rank.Ranker, s FragmentSplitter) *Extractor {
	if s == nil {
		s = PeriodSplitter{}
	}
	return &Extractor{ranker: r, splitter: s}
}

// Extract returns up to subK fragments of sec's body, best first. A body
// with no non-empty fragments yields nothing.
func (e *Extractor) Extract(ctx context.Context, sec document.Section, q embed.Vector, subK int) ([]string, error) {
	frags := Fragments(e.splitter, sec.Body)
	if len(frags) == 0 || subK <= 0 {
		return nil, nil
	}

	items := make([]rank.Item[int], len(frags))
	for i, f := range frags {
		items[i] = rank.Item[int]{Value: i, Text: f}
	}
	ranked, err := rank.Rank(ctx, e.ranker, items, q, min(subK, len(frags)))
	if err != nil {
		return nil, err
	}

	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.Text
	}
	return out, nil
}
