package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docrank/internal/document"
)

// csvRowsPerPage groups rows into pages of manageable size.
const csvRowsPerPage = 20

// CSVParser handles CSV files. Each page holds a batch of data rows headed
// by a "Rows a-b:" line.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return document.NewDocument(filename, nil), nil
	}

	// First row is headers.
	headers := records[0]
	dataRows := records[1:]

	var pages []string
	for i := 0; i < len(dataRows); i += csvRowsPerPage {
		end := min(i+csvRowsPerPage, len(dataRows))

		var page strings.Builder
		fmt.Fprintf(&page, "Rows %d-%d:\n", i+2, end+1) // 1-indexed, skip header
		for _, row := range dataRows[i:end] {
			cells := make([]string, 0, len(row))
			for j, cell := range row {
				cell = strings.TrimSpace(cell)
				if cell == "" {
					continue
				}
				if j < len(headers) && headers[j] != "" {
					cells = append(cells, headers[j]+"="+cell)
				} else {
					cells = append(cells, cell)
				}
			}
			// A colon would turn the row into a heading line.
			page.WriteString(strings.ReplaceAll(strings.Join(cells, ", "), ":", " -"))
			page.WriteByte('\n')
		}
		pages = append(pages, page.String())
	}

	return document.NewDocument(filename, pages), nil
}
