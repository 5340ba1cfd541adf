package document

import (
	"fmt"
	"strings"
)

// Document is a parsed input file: its identifier and pages in order.
type Document struct {
	ID    string // Source filename
	Pages []Page // One entry per source page, including pages without text
}

// Page is the plain text of one source page.
type Page struct {
	Number int    // 1-based
	Text   string // Empty when the page has no extractable text
}

// Section is a titled block of text detected on a single page.
type Section struct {
	DocumentID string
	Page       int
	Title      string // Heading line, or DefaultTitle(Page)
	Body       string // Never empty
}

// NewDocument builds a Document from page texts, numbering pages from 1.
func NewDocument(id string, pages []string) *Document {
	doc := &Document{ID: id, Pages: make([]Page, 0, len(pages))}
	for i, text := range pages {
		doc.Pages = append(doc.Pages, Page{Number: i + 1, Text: text})
	}
	return doc
}

// IsEmpty reports whether no page carries any non-whitespace text.
func (d *Document) IsEmpty() bool {
	for _, p := range d.Pages {
		if strings.TrimSpace(p.Text) != "" {
			return false
		}
	}
	return true
}

// Text joins all page texts, separated by form feeds.
func (d *Document) Text() string {
	parts := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		parts[i] = p.Text
	}
	return strings.Join(parts, "\f")
}

// DefaultTitle is the section title used before any heading is seen on a page.
func DefaultTitle(page int) string {
	return fmt.Sprintf("Page %d", page)
}
