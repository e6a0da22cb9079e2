package port

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorIndex is a position-addressed similarity index.
type VectorIndex interface {
	// Search returns up to k positions ranked by descending inner product.
	Search(query []float32, k int) ([]VectorResult, error)

	// Len returns the number of stored vectors.
	Len() int
}

// VectorResult represents a search result.
type VectorResult struct {
	Position int     // Offset into the index and the parallel metadata
	Score    float64 // Inner product with the query (higher is better)
}
