package port

import "context"

// LLM represents a language model for text generation.
type LLM interface {
	// Generate answers the question using only the supplied context.
	Generate(ctx context.Context, contextText, question string) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
