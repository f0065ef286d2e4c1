package parser

import (
	"reflect"
	"strings"
	"testing"
)

func TestMarkdownParser_HeadingsBecomeLines(t *testing.T) {
	input := `# Unidad 1: Fracciones

Intro text.

## Clase 1: Numerador y Denominador

El numerador indica
cuántas partes se toman.

- primer punto
- segundo punto
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "curso.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.Title != "curso" {
		t.Errorf("expected title %q, got %q", "curso", doc.Title)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(doc.Pages))
	}

	want := []string{
		"Unidad 1: Fracciones",
		"Intro text.",
		"Clase 1: Numerador y Denominador",
		"El numerador indica",
		"cuántas partes se toman.",
		"primer punto",
		"segundo punto",
	}
	got := strings.Split(doc.Pages[0], "\n")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("lines mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestMarkdownParser_ThematicBreakStartsPage(t *testing.T) {
	input := "# Parte 1: Inicio\n\nTexto.\n\n---\n\n# Parte 2: Final\n"

	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d: %q", len(doc.Pages), doc.Pages)
	}
	if doc.Pages[1] != "Parte 2: Final" {
		t.Errorf("unexpected second page %q", doc.Pages[1])
	}
}

func TestMarkdownParser_CodeBlocksKeepLines(t *testing.T) {
	input := "## Endpoints\n\n```\nGET /api/users\nPOST /api/users\n```\n\nMore text after code.\n"

	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	page := doc.Pages[0]
	for _, want := range []string{"GET /api/users\nPOST /api/users", "More text after code."} {
		if !strings.Contains(page, want) {
			t.Errorf("expected page to contain %q, got %q", want, page)
		}
	}
	if strings.Count(page, "GET /api/users") != 1 {
		t.Errorf("code block text duplicated: %q", page)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Pages) != 0 {
		t.Errorf("expected 0 pages for empty input, got %d", len(doc.Pages))
	}
}

func TestMarkdownParser_TitleStripping(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"dir/plain.md", "plain"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		doc, err := p.Parse(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if doc.Title != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, doc.Title)
		}
	}
}
