package extract

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"deckqa/internal/domain"
	"deckqa/internal/port"
)

// ErrUnsupportedFormat is wrapped in an ExtractionError for unknown extensions.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// TextExtractor returns a plain-text file verbatim.
type TextExtractor struct{}

func (TextExtractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &domain.ExtractionError{Path: path, Err: err}
	}
	return string(data), nil
}

// Registry dispatches on the file extension.
type Registry struct {
	byExt map[string]port.Extractor
}

func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]port.Extractor)}
	r.Register(".pptx", NewPPTXExtractor())
	r.Register(".txt", TextExtractor{})
	r.Register(".md", TextExtractor{})
	return r
}

func (r *Registry) Register(ext string, e port.Extractor) {
	r.byExt[strings.ToLower(ext)] = e
}

// Supports reports whether a document with this path can be extracted.
func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

func (r *Registry) Extract(path string) (string, error) {
	e, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return "", &domain.ExtractionError{Path: path, Err: ErrUnsupportedFormat}
	}
	return e.Extract(path)
}
