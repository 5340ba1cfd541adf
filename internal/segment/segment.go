// Package segment splits page text into titled sections using a line-level
// heading heuristic.
package segment

import (
	"strings"

	"github.com/dgallion1/docrank/internal/document"
)

// Segmenter turns one page of text into sections.
type Segmenter struct {
	headings HeadingClassifier
}

// New returns a Segmenter using the given classifier, or DefaultHeadings
// when nil.
func New(headings HeadingClassifier) *Segmenter {
	if headings == nil {
		headings = DefaultHeadings{}
	}
	return &Segmenter{headings: headings}
}

// Segment scans the page line by line. A heading line closes the section
// accumulated so far and becomes the title of the next one. Text before the
// first heading is titled "Page N". Sections with no body are never emitted.
func (s *Segmenter) Segment(pageText string, pageNumber int, documentID string) []document.Section {
	if strings.TrimSpace(pageText) == "" {
		return nil
	}

	var sections []document.Section
	title := document.DefaultTitle(pageNumber)
	var buf strings.Builder

	flush := func() {
		body := strings.TrimSpace(buf.String())
		if body != "" {
			sections = append(sections, document.Section{
				DocumentID: documentID,
				Page:       pageNumber,
				Title:      title,
				Body:       body,
			})
		}
		buf.Reset()
	}

	for _, line := range strings.Split(pageText, "\n") {
		if s.headings.IsHeading(line) {
			flush()
			title = strings.TrimSpace(line)
			continue
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(trimmed)
	}
	flush()

	return sections
}

// SegmentDocument segments every page in order and pools the results.
func (s *Segmenter) SegmentDocument(doc *document.Document) []document.Section {
	var pooled []document.Section
	for _, page := range doc.Pages {
		pooled = append(pooled, s.Segment(page.Text, page.Number, doc.ID)...)
	}
	return pooled
}
