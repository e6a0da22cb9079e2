package port

// Extractor pulls the raw text out of a source document.
type Extractor interface {
	// Extract returns every text run of the document joined by newlines,
	// in document order. Failures are *domain.ExtractionError.
	Extract(path string) (string, error)
}
