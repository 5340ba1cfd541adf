package parser

import (
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strings"

	"github.com/dgallion1/docrank/internal/document"
	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if enabled.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "docrank-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	pages, err := extractPDFPages(tmpPath)
	if err != nil && p.FallbackPdftotext {
		var text string
		text, err = extractPdftotext(tmpPath)
		if err == nil {
			pages = splitPages(text)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	return document.NewDocument(filename, pages), nil
}

// extractPDFPages returns one entry per PDF page. Pages that are null or
// fail text extraction are kept as empty strings so numbering stays stable.
func extractPDFPages(path string) (pages []string, err error) {
	// The pdf library panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	pages = make([]string, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := pageLines(page)
		if err != nil {
			text, err = page.GetPlainText(nil)
		}
		if err != nil {
			text = ""
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// pageLines rebuilds the page text from glyph positions, one output line
// per baseline. GetPlainText ignores Td/TD moves, which would glue every
// line of most PDFs together. A horizontal gap wider than a fifth of the
// font size becomes a space.
func pageLines(page pdflib.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf content: %v", r)
		}
	}()

	var sb strings.Builder
	var lineY, end float64
	started, lastSpace := false, false
	for _, g := range page.Content().Text {
		// TJ arrays are followed by a synthetic newline glyph.
		if g.S == "\n" || g.S == "" {
			continue
		}
		size := math.Abs(g.FontSize)
		switch {
		case !started:
			started = true
			lineY = g.Y
		case math.Abs(g.Y-lineY) > max(size/2, 1):
			sb.WriteByte('\n')
			lineY = g.Y
			lastSpace = true
		case size > 0 && g.X-end > size*0.2 && !lastSpace && g.S != " ":
			sb.WriteByte(' ')
		}
		sb.WriteString(g.S)
		lastSpace = g.S == " "
		end = g.X + g.W
	}
	return sb.String(), nil
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}

// splitPages splits on form feeds. pdftotext terminates every page with
// one, so a trailing empty segment is dropped.
func splitPages(text string) []string {
	pages := strings.Split(text, "\f")
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}
