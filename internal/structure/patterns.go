package structure

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Tier is the ordered pattern list for one element type.
type Tier struct {
	Type     ElementType
	Patterns []*regexp.Regexp
}

// PatternSet is an immutable, priority-ordered table of heading patterns.
// Every pattern has a named group "title" and may have a named group "ord"
// for the ordinal. Patterns are always compiled case-insensitive.
type PatternSet struct {
	tiers []Tier
}

const (
	// Roman ordinals stay upper-case under (?i) so words like "civil" are not ordinals.
	roman     = `(?-i:[IVXLC]+)`
	ordinal   = `(?P<ord>\d+|` + roman + `)`
	separator = `(?:\s*[.:\-–—]\s*|\s+)`
	titleAny  = `(?P<title>.+)`
	// titleWord refuses a leading digit so "1.1 x" is never read as "1." plus "1 x".
	titleWord = `(?P<title>[^\d\s.].*)`
)

func keyword(words string) string {
	return `^(?:` + words + `)\s+` + ordinal + separator + titleAny + `$`
}

var defaultSources = patternFile{
	Unit: []string{
		keyword(`unidad|unit|cap[ií]tulo|chapter|parte|part|bloque|block`),
		keyword(`secci[oó]n\s+principal`),
		`^(?P<ord>\d+)\s*[-–—]\s*` + titleAny + `$`,
		`^(?P<ord>\d+)\.\s*` + titleWord + `$`,
		`^(?P<ord>` + roman + `)\s*[-–—]\s*` + titleAny + `$`,
	},
	Module: []string{
		keyword(`m[oó]dulo|module|subm[oó]dulo|submodule|secci[oó]n|section|tema|topic|apartado|contenido|content`),
		`^(?P<ord>\d+\.\d+(?:\.\d+)?)\.?\s*` + titleWord + `$`,
		`^(?P<ord>[a-z]\.\d+)\.?\s*` + titleWord + `$`,
	},
	Class: []string{
		keyword(`clase|class|lecci[oó]n|lesson|actividad|activity|ejercicio|exercise|pr[aá]ctica|practice|taller|workshop|evaluaci[oó]n|evaluation`),
		`^(?P<ord>\d+\.\d+\.\d+\.\d+)\.?\s*` + titleWord + `$`,
		`^(?P<ord>[a-z])\)\s*` + titleAny + `$`,
	},
	Section: []string{
		keyword(`subsecci[oó]n|subsection|punto|point|[ií]tem|item`),
		`^(?P<ord>\d+\.)\s*` + titleAny + `$`,
		`^(?P<ord>\d+\.\d+\.?)\s*` + titleAny + `$`,
	},
}

// DefaultPatterns returns the built-in Spanish/English pattern tables.
func DefaultPatterns() *PatternSet {
	ps, err := compile(defaultSources)
	if err != nil {
		panic(fmt.Sprintf("structure: default patterns: %v", err))
	}
	return ps
}

type patternFile struct {
	Unit    []string `yaml:"unit"`
	Module  []string `yaml:"module"`
	Class   []string `yaml:"class"`
	Section []string `yaml:"section"`
}

// LoadPatterns reads a YAML pattern table:
//
//	unit:    ['^unidad\s+(?P<ord>\d+):\s*(?P<title>.+)$']
//	module:  [...]
//	class:   [...]
//	section: [...]
//
// Tier priority is always unit, module, class, section regardless of key order.
func LoadPatterns(r io.Reader) (*PatternSet, error) {
	var pf patternFile
	if err := yaml.NewDecoder(r).Decode(&pf); err != nil {
		return nil, fmt.Errorf("decode patterns: %w", err)
	}
	return compile(pf)
}

func compile(pf patternFile) (*PatternSet, error) {
	ps := &PatternSet{}
	for _, src := range []struct {
		typ  ElementType
		pats []string
	}{
		{TypeUnit, pf.Unit},
		{TypeModule, pf.Module},
		{TypeClass, pf.Class},
		{TypeSection, pf.Section},
	} {
		tier := Tier{Type: src.typ}
		for _, p := range src.pats {
			if !strings.HasPrefix(p, "(?i)") {
				p = "(?i)" + p
			}
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, fmt.Errorf("%s pattern %q: %w", src.typ, p, err)
			}
			if re.SubexpIndex("title") < 0 {
				return nil, fmt.Errorf("%s pattern %q: missing (?P<title>...) group", src.typ, p)
			}
			tier.Patterns = append(tier.Patterns, re)
		}
		ps.tiers = append(ps.tiers, tier)
	}
	return ps, nil
}

// Tiers returns the tiers in priority order. The slice is a copy.
func (ps *PatternSet) Tiers() []Tier {
	out := make([]Tier, len(ps.tiers))
	copy(out, ps.tiers)
	return out
}

// Match classifies line with the first matching pattern in priority order.
func (ps *PatternSet) Match(line string) (typ ElementType, ord, title string, ok bool) {
	for _, tier := range ps.tiers {
		for _, re := range tier.Patterns {
			m := re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			if i := re.SubexpIndex("ord"); i >= 0 {
				ord = m[i]
			}
			return tier.Type, ord, m[re.SubexpIndex("title")], true
		}
	}
	return "", "", "", false
}
