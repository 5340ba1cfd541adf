package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/docrank/internal/document"
)

// TextParser handles plain text files. Form feeds separate pages;
// a file without them is a single page.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	return document.NewDocument(filename, splitPages(text)), nil
}
