package structure

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	formatUnit    = regexp.MustCompile(`^\p{Lu}[\p{Lu}\s]{3,}$`)
	formatModule  = regexp.MustCompile(`^\p{Lu}[\p{Ll}\s]+\p{Lu}[\p{Lu}\s]+$`)
	formatClass   = regexp.MustCompile(`^\p{Lu}[\p{Ll}\s]+:$`)
	formatSection = regexp.MustCompile(`^\p{Lu}[\p{Ll}\s]+$`)

	pageHeader = regexp.MustCompile(`(?i)^(?:p[aá]gina|page)\s+\d+`)
)

const maxSectionRunes = 100

// DetectByFormat classifies a line that matched no lexical pattern using
// its casing and punctuation alone. It returns "" for ordinary text.
func DetectByFormat(line string) ElementType {
	line = strings.TrimSpace(line)
	switch {
	case formatUnit.MatchString(line):
		return TypeUnit
	case formatModule.MatchString(line):
		return TypeModule
	case formatClass.MatchString(line):
		return TypeClass
	case utf8.RuneCountInString(line) < maxSectionRunes && formatSection.MatchString(line):
		return TypeSection
	}
	return ""
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// CleanTitle strips punctuation from both ends, collapses whitespace and
// upper-cases a lower-case first letter.
func CleanTitle(title string) string {
	title = strings.TrimFunc(title, func(r rune) bool { return !isWordRune(r) })
	title = strings.Join(strings.Fields(title), " ")
	r, size := utf8.DecodeRuneInString(title)
	if size > 0 && unicode.IsLower(r) {
		title = string(unicode.ToUpper(r)) + title[size:]
	}
	return title
}

// isLikelyHeader reports page furniture that should not count as content.
func isLikelyHeader(line string) bool {
	if utf8.RuneCountInString(line) < 5 {
		return true
	}
	if strings.IndexFunc(line, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return true
	}
	return pageHeader.MatchString(line)
}

const (
	defaultPreviewWindow   = 5
	defaultPreviewMaxLines = 3
	previewMaxRunes        = 200
)

// contentPreview collects up to maxLines content lines from the window
// lines following lines[idx].
func contentPreview(lines []string, idx, window, maxLines int) string {
	var picked []string
	end := min(idx+1+window, len(lines))
	for i := idx + 1; i < end; i++ {
		line := strings.TrimSpace(lines[i])
		if line != "" && !isLikelyHeader(line) {
			picked = append(picked, line)
		}
		if len(picked) >= maxLines {
			break
		}
	}
	if len(picked) == 0 {
		return ""
	}
	text := strings.Join(picked, " ")
	if utf8.RuneCountInString(text) > previewMaxRunes {
		text = string([]rune(text)[:previewMaxRunes])
	}
	return text + "..."
}

// dedupKey is the case- and whitespace-insensitive identity of a heading.
func dedupKey(el Element) string {
	key := strings.Join(strings.Fields(el.Ordinal+" "+el.Title), " ")
	return norm.NFC.String(strings.ToLower(key))
}
