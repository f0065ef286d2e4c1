package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/coursemap/internal/document"
)

// TextParser handles plain text files. Form feeds mark page breaks; text
// without them is paged by size.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*document.Text, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	b := document.NewPageBuilder(charsPerPage)
	for scanner.Scan() {
		parts := strings.Split(scanner.Text(), "\f")
		for i, part := range parts {
			if i > 0 {
				b.Break()
			}
			b.Line(part)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return b.Text(titleFromFilename(filename)), nil
}
