package domain

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("boom")

	cases := []struct {
		err      error
		sentinel error
	}{
		{&ExtractionError{Path: "a.pptx", Err: cause}, ErrExtraction},
		{&EmbeddingError{Model: "all-minilm", Err: cause}, ErrEmbedding},
		{&CorruptStoreError{Path: "s.db", Reason: "length mismatch", Err: cause}, ErrCorruptStore},
		{&GenerationError{Model: "llama", Err: cause}, ErrGenerationUnavailable},
	}

	for _, c := range cases {
		wrapped := fmt.Errorf("outer: %w", c.err)
		if !errors.Is(wrapped, c.sentinel) {
			t.Errorf("%T: expected errors.Is(%v)", c.err, c.sentinel)
		}
		if !errors.Is(wrapped, cause) {
			t.Errorf("%T: expected cause to be reachable", c.err)
		}
		for _, other := range cases {
			if other.sentinel != c.sentinel && errors.Is(c.err, other.sentinel) {
				t.Errorf("%T unexpectedly matches %v", c.err, other.sentinel)
			}
		}
	}
}

func TestCorruptStoreErrorWithoutCause(t *testing.T) {
	err := &CorruptStoreError{Path: "s.db", Reason: "missing chunks bucket"}
	if err.Error() != "corrupt vector store s.db: missing chunks bucket" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if errors.Is(err, os.ErrNotExist) {
		t.Error("corrupt store must not look like a missing file")
	}
}

func TestAnswerDegraded(t *testing.T) {
	a := &Answer{Sources: []ScoredChunk{{Chunk: Chunk{Text: "one"}}, {Chunk: Chunk{Text: "two"}}}}
	if a.Degraded() {
		t.Error("answer without error should not be degraded")
	}
	a.Err = &GenerationError{Model: "m", Err: errors.New("down")}
	if !a.Degraded() {
		t.Error("answer with generation error should be degraded")
	}
	texts := a.SourceTexts()
	if len(texts) != 2 || texts[0] != "one" || texts[1] != "two" {
		t.Errorf("unexpected source texts: %v", texts)
	}
}
