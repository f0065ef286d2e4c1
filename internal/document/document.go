// Package document holds extracted document text as ordered pages.
package document

import (
	"strings"
	"unicode/utf8"
)

// Text is an extracted document: a title and the plain text of each page.
type Text struct {
	Title string
	Pages []string
}

// LineCount returns the number of non-blank lines across all pages.
func (t *Text) LineCount() int {
	n := 0
	for _, p := range t.Pages {
		for _, line := range strings.Split(p, "\n") {
			if strings.TrimSpace(line) != "" {
				n++
			}
		}
	}
	return n
}

// PageBuilder accumulates lines into pages. Formats with physical pages
// call Break; the rest rely on the size limit.
type PageBuilder struct {
	charsPerPage int
	pages        []string
	cur          []string
	size         int
}

// NewPageBuilder starts a new page after about charsPerPage runes. Zero or
// less disables size breaks.
func NewPageBuilder(charsPerPage int) *PageBuilder {
	return &PageBuilder{charsPerPage: charsPerPage}
}

// Line appends one line. Blank lines are dropped; a line is never split.
func (b *PageBuilder) Line(s string) {
	s = strings.TrimRight(s, " \t\r")
	if strings.TrimSpace(s) == "" {
		return
	}
	n := utf8.RuneCountInString(s)
	if b.charsPerPage > 0 && len(b.cur) > 0 && b.size+1+n > b.charsPerPage {
		b.Break()
	}
	if len(b.cur) > 0 {
		b.size++
	}
	b.cur = append(b.cur, s)
	b.size += n
}

// Lines appends each line of a multi-line string.
func (b *PageBuilder) Lines(s string) {
	for _, line := range strings.Split(s, "\n") {
		b.Line(line)
	}
}

// Break ends the current page. Empty pages are not emitted.
func (b *PageBuilder) Break() {
	if len(b.cur) == 0 {
		return
	}
	b.pages = append(b.pages, strings.Join(b.cur, "\n"))
	b.cur = nil
	b.size = 0
}

// Text closes the last page and returns the document.
func (b *PageBuilder) Text(title string) *Text {
	b.Break()
	return &Text{Title: title, Pages: b.pages}
}
