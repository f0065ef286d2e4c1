package parser

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/coursemap/internal/document"
	"github.com/dgallion1/coursemap/internal/structure"
)

// Parser converts raw document bytes into per-page text.
type Parser interface {
	Parse(r io.Reader, filename string) (*document.Text, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// charsPerPage sizes simulated pages for formats without physical pages.
const charsPerPage = structure.DefaultCharsPerPage

type options struct {
	pdftotext bool
}

type Option func(*options)

// WithPdftotext enables the pdftotext command as a fallback for PDFs the
// Go reader cannot handle.
func WithPdftotext(enabled bool) Option {
	return func(o *options) { o.pdftotext = enabled }
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts ...Option) (Parser, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: o.pdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Source defers parsing until the analyzer asks for pages, so extraction
// failures surface as a degraded analysis instead of an error.
type Source struct {
	Filename string
	Data     []byte
	Options  []Option

	text *document.Text
}

func (s *Source) Pages() ([]string, error) {
	if s.text == nil {
		p, err := ForFile(s.Filename, s.Options...)
		if err != nil {
			return nil, err
		}
		t, err := p.Parse(bytes.NewReader(s.Data), s.Filename)
		if err != nil {
			return nil, err
		}
		s.text = t
	}
	return s.text.Pages, nil
}

// Text returns the parsed document once Pages has succeeded.
func (s *Source) Text() *document.Text {
	return s.text
}
