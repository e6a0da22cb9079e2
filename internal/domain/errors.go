package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrExtraction marks a source document that could not be opened or parsed.
	ErrExtraction = errors.New("text extraction failed")

	// ErrEmbedding marks a model inference failure.
	ErrEmbedding = errors.New("embedding failed")

	// ErrCorruptStore marks a persisted store that is unreadable or whose
	// index and metadata are not aligned.
	ErrCorruptStore = errors.New("corrupt vector store")

	// ErrGenerationUnavailable marks a failed call to the answer service.
	ErrGenerationUnavailable = errors.New("answer generation unavailable")
)

// ExtractionError is returned when a document cannot be read.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtraction }

// EmbeddingError is returned when the embedding model fails or returns
// vectors that violate the unit-norm or count contract.
type EmbeddingError struct {
	Model string
	Err   error
}

func (e *EmbeddingError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("embedding: %v", e.Err)
	}
	return fmt.Sprintf("embedding with %s: %v", e.Model, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

func (e *EmbeddingError) Is(target error) bool { return target == ErrEmbedding }

// CorruptStoreError is returned by store loading.
type CorruptStoreError struct {
	Path   string
	Reason string
	Err    error
}

func (e *CorruptStoreError) Error() string {
	msg := fmt.Sprintf("corrupt vector store %s: %s", e.Path, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CorruptStoreError) Unwrap() error { return e.Err }

func (e *CorruptStoreError) Is(target error) bool { return target == ErrCorruptStore }

// GenerationError is returned when the answer service fails.
type GenerationError struct {
	Model string
	Err   error
}

func (e *GenerationError) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("answer generation unavailable: %v", e.Err)
	}
	return fmt.Sprintf("generation with %s unavailable: %v", e.Model, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool { return target == ErrGenerationUnavailable }
