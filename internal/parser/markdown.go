package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/coursemap/internal/document"
)

// MarkdownParser handles Markdown files using goldmark. Headings and each
// line of block text become page lines; a thematic break (---) starts a
// new page.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.Text, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	b := document.NewPageBuilder(charsPerPage)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		markdownBlock(n, src, b)
	}
	return b.Text(titleFromFilename(filename)), nil
}

func markdownBlock(n ast.Node, src []byte, b *document.PageBuilder) {
	if _, ok := n.(*ast.ThematicBreak); ok {
		b.Break()
		return
	}
	if c := n.FirstChild(); c != nil && c.Type() == ast.TypeBlock {
		for ; c != nil; c = c.NextSibling() {
			markdownBlock(c, src, b)
		}
		return
	}
	b.Lines(extractText(n, src))
}

// extractText gets the text of a leaf block: its inline children when it
// has any, otherwise its raw lines (code blocks).
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.FirstChild() == nil && n.Type() == ast.TypeBlock {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	inlineText(n, src, &buf)
	return strings.TrimSpace(buf.String())
}

func inlineText(n ast.Node, src []byte, buf *bytes.Buffer) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			inlineText(c, src, buf)
		}
	}
}
