// Package structure detects the Unit → Module → Class outline of an
// educational document from its per-page plain text.
//
// Detection is line based: each non-blank line is tried against a
// priority-ordered PatternSet (unit, module, class, section), then against
// casing heuristics. Surviving headings are deduplicated, sorted by
// (page, line) and folded into a Hierarchy by BuildHierarchy.
package structure

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

// PageSource yields the ordered page texts of one document.
type PageSource interface {
	Pages() ([]string, error)
}

// Pages adapts an in-memory page slice to PageSource.
type Pages []string

func (p Pages) Pages() ([]string, error) { return p, nil }

// Analyzer runs structure detection with a fixed pattern table. It holds no
// mutable state and is safe for concurrent use.
type Analyzer struct {
	patterns *PatternSet

	previewWindow   int
	previewMaxLines int
}

type Option func(*Analyzer)

// WithPatterns replaces the built-in pattern table.
func WithPatterns(ps *PatternSet) Option {
	return func(a *Analyzer) {
		if ps != nil {
			a.patterns = ps
		}
	}
}

// WithPreviewLines sets how many lines after a heading are scanned for its
// content preview and how many of them are kept. Non-positive values keep
// the defaults of 5 and 3.
func WithPreviewLines(window, maxLines int) Option {
	return func(a *Analyzer) {
		if window > 0 {
			a.previewWindow = window
		}
		if maxLines > 0 {
			a.previewMaxLines = maxLines
		}
	}
}

func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		patterns:        DefaultPatterns(),
		previewWindow:   defaultPreviewWindow,
		previewMaxLines: defaultPreviewMaxLines,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

const minLineRunes = 3

// Analyze reads src and detects its structure. A source that cannot be
// read yields the single-unit fallback result rather than an error.
func (a *Analyzer) Analyze(src PageSource) Result {
	pages, err := src.Pages()
	if err != nil {
		return Fallback(err.Error())
	}
	return a.Detect(pages)
}

// Detect runs detection over pages. Identical input always yields an
// identical Result.
func (a *Analyzer) Detect(pages []string) Result {
	elements := a.detectElements(pages)
	h := BuildHierarchy(elements)

	meta := Metadata{TotalElements: len(elements), TotalPages: len(pages)}
	for _, el := range elements {
		switch el.Type {
		case TypeUnit:
			meta.UnitsFound++
		case TypeModule:
			meta.ModulesFound++
		case TypeClass:
			meta.ClassesFound++
		}
	}
	for _, u := range h.Units {
		if u.Synthetic {
			meta.ImplicitUnits++
		}
	}

	return Result{Elements: elements, Hierarchy: h, Metadata: meta}
}

func (a *Analyzer) detectElements(pages []string) []Element {
	var found []Element
	counter := 0
	for p, text := range pages {
		lines := strings.Split(text, "\n")
		for i, raw := range lines {
			line := strings.TrimSpace(raw)
			if utf8.RuneCountInString(line) < minLineRunes {
				continue
			}

			typ, ord, title, ok := a.patterns.Match(line)
			if !ok {
				if typ = DetectByFormat(line); typ == "" {
					continue
				}
				title = line
			}

			counter++
			found = append(found, Element{
				Type:           typ,
				Title:          CleanTitle(title),
				Ordinal:        ord,
				Level:          typ.Level(),
				PageNumber:     p + 1,
				LineNumber:     i,
				ID:             fmt.Sprintf("%s_%d", typ, counter),
				ContentPreview: contentPreview(lines, i, a.previewWindow, a.previewMaxLines),
			})
		}
	}
	return filterElements(found)
}

const minTitleRunes = 4

// filterElements drops short titles and repeats, then orders by position.
func filterElements(found []Element) []Element {
	out := []Element{}
	seen := make(map[string]bool, len(found))
	for _, el := range found {
		if utf8.RuneCountInString(el.Title) < minTitleRunes {
			continue
		}
		key := dedupKey(el)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, el)
	}
	slices.SortStableFunc(out, func(x, y Element) int {
		if x.PageNumber != y.PageNumber {
			return x.PageNumber - y.PageNumber
		}
		return x.LineNumber - y.LineNumber
	})
	return out
}

// Fallback is the degraded result used when page text is unavailable: one
// synthetic "Full Document" unit and no elements.
func Fallback(reason string) Result {
	return Result{
		Elements: []Element{},
		Hierarchy: Hierarchy{
			Units: []UnitNode{{
				ID:        "fallback_unit",
				Title:     "Full Document",
				PageStart: 1,
				Synthetic: true,
				Modules:   []ModuleNode{},
			}},
			Orphaned: []Element{},
		},
		Metadata: Metadata{FallbackUsed: true, FallbackReason: reason},
	}
}

// DefaultCharsPerPage is the simulated page size used by SplitContent.
const DefaultCharsPerPage = 2000

// SplitContent turns raw text into simulated pages. Form feeds are honoured
// as page breaks; otherwise whole lines are packed into pages of about
// charsPerPage bytes so no heading is split across pages.
func SplitContent(content string, charsPerPage int) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	if strings.Contains(content, "\f") {
		return strings.Split(content, "\f")
	}
	if charsPerPage <= 0 {
		charsPerPage = DefaultCharsPerPage
	}

	var pages []string
	var cur strings.Builder
	for _, line := range strings.Split(content, "\n") {
		if cur.Len() > 0 && cur.Len()+1+len(line) > charsPerPage {
			pages = append(pages, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(line)
	}
	if cur.Len() > 0 {
		pages = append(pages, cur.String())
	}
	return pages
}
