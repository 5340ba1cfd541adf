package parser

import (
	"strings"
	"testing"
)

func TestHTMLParser_BlocksAndHeadings(t *testing.T) {
	input := `<html><head><title>Report</title><style>p{}</style></head>
<body>
<nav>skip me</nav>
<h1>Results</h1>
<p>Accuracy   improved
by 4 points.</p>
<ul><li>first</li><li>second</li></ul>
<script>var x = 1;</script>
</body></html>`
	p := &HTMLParser{}
	doc, err := p.Parse(strings.NewReader(input), "report.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(doc.Pages))
	}

	lines := strings.Split(doc.Pages[0].Text, "\n")
	want := []string{"RESULTS", "Accuracy improved by 4 points.", "first", "second"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line[%d]: expected %q, got %q", i, w, lines[i])
		}
	}
}
