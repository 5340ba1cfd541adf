package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docrank/internal/document"
	"github.com/dgallion1/docrank/internal/embed"
	"github.com/dgallion1/docrank/internal/parser"
	"github.com/dgallion1/docrank/internal/query"
	"github.com/dgallion1/docrank/internal/rank"
	"github.com/dgallion1/docrank/internal/report"
	"github.com/dgallion1/docrank/internal/segment"
	"github.com/dgallion1/docrank/internal/subsection"
)

// FailureKind classifies why a document produced no results.
type FailureKind string

const (
	FailureParse    FailureKind = "parse"
	FailureEncoding FailureKind = "encoding"
)

// DocumentError is a failure confined to one document. The batch continues.
type DocumentError struct {
	Document string
	Kind     FailureKind
	Err      error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %s failure: %v", e.Document, e.Kind, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// DocumentStatus is the per-document result of a run.
type DocumentStatus string

const (
	StatusRanked DocumentStatus = "ranked"
	StatusEmpty  DocumentStatus = "empty"
	StatusError  DocumentStatus = "error"
)

// Outcome is what one document contributed to a run.
type Outcome struct {
	Document    string
	Status      DocumentStatus
	Err         *DocumentError
	ContentHash string
	Pages       int
	Sections    []report.ExtractedSection
	Subsections []report.SubsectionAnalysis
}

// Source is one input document in raw form. A non-nil Err means the bytes
// could not be read and the document is recorded as a parse failure.
type Source struct {
	Name string
	Data []byte
	Err  error
}

// Config tunes a Pipeline. Zero values select the defaults.
type Config struct {
	Workers  int
	Parser   parser.Options
	Headings segment.HeadingClassifier
	Splitter subsection.FragmentSplitter
	Now      func() time.Time
}

// Request is one analysis run.
type Request struct {
	Sources     []Source
	Persona     query.Persona
	JobToBeDone string
	TopLevelK   int
	SubLevelK   int

	// Progress, when set, is called once per document as it finishes.
	// Calls are serialized but arrive in completion order.
	Progress func(Outcome)
}

// Result holds the report and the per-document outcomes in input order.
type Result struct {
	Report   *report.Report
	Outcomes []Outcome
}

// Failed counts documents that ended in a DocumentError.
func (r *Result) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// Pipeline segments, ranks and refines documents against a persona query.
type Pipeline struct {
	query     *query.Encoder
	ranker    *rank.Ranker
	segmenter *segment.Segmenter
	extractor *subsection.Extractor
	log       *slog.Logger
	cfg       Config
}

// New creates a Pipeline. emb is shared by all documents and must be safe
// for concurrent use.
func New(emb embed.Embedder, log *slog.Logger, cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ranker := rank.NewRanker(emb)
	return &Pipeline{
		query:     query.NewEncoder(emb),
		ranker:    ranker,
		segmenter: segment.New(cfg.Headings),
		extractor: subsection.New(ranker, cfg.Splitter),
		log:       log,
		cfg:       cfg,
	}
}

// Run processes every source and assembles the report. Per-document
// failures are recorded in the outcomes; an error is returned only when ctx
// ends before the run completes.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	names := make([]string, len(req.Sources))
	for i, src := range req.Sources {
		names[i] = src.Name
	}

	var mu sync.Mutex
	progress := func(o Outcome) {
		if req.Progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		req.Progress(o)
	}

	outcomes := make([]Outcome, len(req.Sources))
	qv, err := p.query.Encode(ctx, req.Persona, req.JobToBeDone)
	if err != nil {
		p.log.Error("query encoding failed", "error", err)
		for i, name := range names {
			outcomes[i] = Outcome{
				Document: name,
				Status:   StatusError,
				Err:      &DocumentError{Document: name, Kind: FailureEncoding, Err: err},
			}
			progress(outcomes[i])
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.cfg.Workers)
		for i, src := range req.Sources {
			g.Go(func() error {
				outcomes[i] = p.processSource(gctx, src, qv, req.TopLevelK, req.SubLevelK)
				progress(outcomes[i])
				return nil
			})
		}
		g.Wait()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := report.New(names, req.Persona, req.JobToBeDone, p.cfg.Now())
	for _, o := range outcomes {
		rep.ExtractedSections = append(rep.ExtractedSections, o.Sections...)
		rep.SubSectionAnalysis = append(rep.SubSectionAnalysis, o.Subsections...)
	}
	return &Result{Report: rep, Outcomes: outcomes}, nil
}

func (p *Pipeline) processSource(ctx context.Context, src Source, qv embed.Vector, topK, subK int) Outcome {
	log := p.log.With("document", src.Name)
	fail := func(err error) Outcome {
		log.Warn("document parse failed", "error", err)
		return Outcome{
			Document: src.Name,
			Status:   StatusError,
			Err:      &DocumentError{Document: src.Name, Kind: FailureParse, Err: err},
		}
	}
	if src.Err != nil {
		return fail(src.Err)
	}
	doc, err := parser.Parse(bytes.NewReader(src.Data), src.Name, p.cfg.Parser)
	if err != nil {
		return fail(err)
	}
	doc.ID = src.Name
	return p.ProcessDocument(ctx, doc, qv, topK, subK)
}

// ProcessDocument ranks one parsed document against the query vector qv.
// A document with no sections is StatusEmpty. An embedding failure discards
// the document's partial results.
func (p *Pipeline) ProcessDocument(ctx context.Context, doc *document.Document, qv embed.Vector, topK, subK int) Outcome {
	log := p.log.With("document", doc.ID)
	out := Outcome{
		Document:    doc.ID,
		ContentHash: ContentHashHex([]byte(doc.Text())),
		Pages:       len(doc.Pages),
	}
	encodingFailed := func(err error) Outcome {
		log.Warn("document encoding failed", "error", err)
		out.Status = StatusError
		out.Err = &DocumentError{Document: doc.ID, Kind: FailureEncoding, Err: err}
		out.Sections = nil
		out.Subsections = nil
		return out
	}

	sections := p.segmenter.SegmentDocument(doc)
	if len(sections) == 0 {
		log.Info("document has no sections", "pages", len(doc.Pages))
		out.Status = StatusEmpty
		return out
	}

	items := make([]rank.Item[document.Section], len(sections))
	for i, sec := range sections {
		items[i] = rank.Item[document.Section]{Value: sec, Text: sec.Body}
	}
	ranked, err := rank.Rank(ctx, p.ranker, items, qv, topK)
	if err != nil {
		return encodingFailed(err)
	}

	for _, s := range ranked {
		sec := s.Value
		out.Sections = append(out.Sections, report.ExtractedSection{
			Document:       doc.ID,
			PageNumber:     sec.Page,
			SectionTitle:   sec.Title,
			ImportanceRank: s.Rank,
		})
		frags, err := p.extractor.Extract(ctx, sec, qv, subK)
		if err != nil {
			return encodingFailed(err)
		}
		for _, f := range frags {
			out.Subsections = append(out.Subsections, report.SubsectionAnalysis{
				Document:    doc.ID,
				PageNumber:  sec.Page,
				RefinedText: f,
			})
		}
	}

	out.Status = StatusRanked
	log.Info("document ranked",
		"sections", len(sections),
		"selected", len(out.Sections),
		"subsections", len(out.Subsections))
	return out
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
