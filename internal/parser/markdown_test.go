package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/docrank/internal/segment"
)

func TestMarkdownParser_HeadingsOnOwnLines(t *testing.T) {
	input := `# Introduction

Intro text that
wraps across lines.

## Methods

We used dataset Z.
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(doc.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(doc.Pages))
	}

	lines := strings.Split(doc.Pages[0].Text, "\n")
	want := []string{
		"INTRODUCTION",
		"Intro text that wraps across lines.",
		"METHODS",
		"We used dataset Z.",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i, w := range want {
		if lines[i] != w {
			t.Errorf("line[%d]: expected %q, got %q", i, w, lines[i])
		}
	}
}

func TestMarkdownParser_ListItemsSeparateLines(t *testing.T) {
	input := "- first item\n- second item\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "list.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(doc.Pages[0].Text, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "first item" || lines[1] != "second item" {
		t.Errorf("unexpected list lines: %q", lines)
	}
}

func TestMarkdownParser_Empty(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !doc.IsEmpty() {
		t.Errorf("expected empty document, got %q", doc.Pages[0].Text)
	}
}

func TestMarkdownParser_SectionTitlesUpperCased(t *testing.T) {
	doc, err := (&MarkdownParser{}).Parse(strings.NewReader("## Related work\n\nPrior studies used Z.\n"), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sections := segment.New(nil).SegmentDocument(doc)
	if len(sections) != 1 || sections[0].Title != "RELATED WORK" {
		t.Errorf("expected one section titled %q, got %+v", "RELATED WORK", sections)
	}
}
