package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
)

func TestDOCXParser_HeadingStyleOnOwnLine(t *testing.T) {
	w := docx.New().WithDefaultTheme()
	w.AddParagraph().Style("Heading1").AddText("Introduction")
	w.AddParagraph().AddText("The study covers   three datasets.")
	w.AddParagraph()
	w.AddParagraph().AddText("Results follow.")

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	doc, err := (&DOCXParser{}).Parse(bytes.NewReader(buf.Bytes()), "paper.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(doc.Pages))
	}

	lines := strings.Split(doc.Pages[0].Text, "\n")
	want := []string{"INTRODUCTION", "The study covers three datasets.", "Results follow."}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d: %q", len(want), len(lines), lines)
	}
	for i, l := range want {
		if lines[i] != l {
			t.Errorf("line[%d]: expected %q, got %q", i, l, lines[i])
		}
	}
}

func TestDOCXParser_InvalidArchive(t *testing.T) {
	if _, err := (&DOCXParser{}).Parse(strings.NewReader("not a zip"), "broken.docx"); err == nil {
		t.Error("expected error for invalid docx")
	}
}
