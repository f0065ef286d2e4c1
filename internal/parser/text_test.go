package parser

import (
	"strings"
	"testing"
)

func TestTextParser_FormFeedSplitsPages(t *testing.T) {
	input := "Unidad 1: Fracciones\nTexto de la unidad.\n\fUnidad 2: Decimales\n\n\nMás texto."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "notes" {
		t.Errorf("expected title %q, got %q", "notes", doc.Title)
	}
	want := []string{
		"Unidad 1: Fracciones\nTexto de la unidad.",
		"Unidad 2: Decimales\nMás texto.",
	}
	if len(doc.Pages) != len(want) {
		t.Fatalf("expected %d pages, got %d: %q", len(want), len(doc.Pages), doc.Pages)
	}
	for i, w := range want {
		if doc.Pages[i] != w {
			t.Errorf("page[%d]: expected %q, got %q", i, w, doc.Pages[i])
		}
	}
}

func TestTextParser_LongTextIsPagedBySize(t *testing.T) {
	line := strings.Repeat("x", 99)
	input := strings.Repeat(line+"\n", 50)
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "long.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(doc.Pages))
	}
	for i, page := range doc.Pages {
		if len(page) > charsPerPage {
			t.Errorf("page %d has %d chars", i, len(page))
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", doc.Title)
	}
	if len(doc.Pages) != 0 {
		t.Errorf("expected 0 pages for empty input, got %d", len(doc.Pages))
	}
}

func TestTextParser_WhitespaceOnlyLinesDropped(t *testing.T) {
	input := "Para one.\n   \nPara two."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "ws.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Pages) != 1 || doc.Pages[0] != "Para one.\nPara two." {
		t.Fatalf("unexpected pages %q", doc.Pages)
	}
}
