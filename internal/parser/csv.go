package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/coursemap/internal/document"
)

// CSVParser handles CSV files: one line per row, a fixed number of rows
// per page. Non-empty cells are joined with " - ", so an outline row like
// `Unidad 1,Fracciones` reads as the heading "Unidad 1 - Fracciones".
type CSVParser struct{}

const csvRowsPerPage = 50

func (p *CSVParser) Parse(r io.Reader, filename string) (*document.Text, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	b := document.NewPageBuilder(0)
	for i, row := range records {
		if i > 0 && i%csvRowsPerPage == 0 {
			b.Break()
		}
		var cells []string
		for _, cell := range row {
			if c := strings.TrimSpace(cell); c != "" {
				cells = append(cells, c)
			}
		}
		b.Line(strings.Join(cells, " - "))
	}
	return b.Text(titleFromFilename(filename)), nil
}
