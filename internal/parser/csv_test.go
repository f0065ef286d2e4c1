package parser

import (
	"fmt"
	"strings"
	"testing"
)

func TestCSVParser_RowsBecomeLines(t *testing.T) {
	input := "Unidad 1,Fracciones\nClase 1,Numerador y Denominador,\n,,\n"
	p := &CSVParser{}
	doc, err := p.Parse(strings.NewReader(input), "plan.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "plan" {
		t.Errorf("expected title %q, got %q", "plan", doc.Title)
	}
	want := "Unidad 1 - Fracciones\nClase 1 - Numerador y Denominador"
	if len(doc.Pages) != 1 || doc.Pages[0] != want {
		t.Fatalf("unexpected pages %q", doc.Pages)
	}
}

func TestCSVParser_PagesByRowCount(t *testing.T) {
	var b strings.Builder
	for i := range 120 {
		fmt.Fprintf(&b, "fila %d,valor\n", i)
	}
	p := &CSVParser{}
	doc, err := p.Parse(strings.NewReader(b.String()), "big.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(doc.Pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(doc.Pages))
	}
	if n := strings.Count(doc.Pages[0], "\n") + 1; n != csvRowsPerPage {
		t.Errorf("expected %d rows on first page, got %d", csvRowsPerPage, n)
	}
}
