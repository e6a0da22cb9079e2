package retriever

import (
	"context"
	"fmt"

	"deckqa/internal/domain"
	"deckqa/internal/port"
)

// SemanticRetriever embeds the query and ranks stored chunks by inner
// product against it. index position i must correspond to chunks[i].
type SemanticRetriever struct {
	embedder port.Embedder
	index    port.VectorIndex
	chunks   []domain.Chunk
}

func NewSemanticRetriever(
	embedder port.Embedder,
	index port.VectorIndex,
	chunks []domain.Chunk,
) (*SemanticRetriever, error) {
	if index.Len() != len(chunks) {
		return nil, fmt.Errorf("index has %d vectors but there are %d chunks", index.Len(), len(chunks))
	}
	return &SemanticRetriever{
		embedder: embedder,
		index:    index,
		chunks:   chunks,
	}, nil
}

// Search returns up to k chunks ranked by descending similarity. k larger
// than the store is clamped; k <= 0 or an empty store returns nothing.
func (r *SemanticRetriever) Search(ctx context.Context, query string, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 || r.index.Len() == 0 {
		return []domain.ScoredChunk{}, nil
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, &domain.EmbeddingError{
			Model: r.embedder.ModelName(),
			Err:   fmt.Errorf("expected 1 query vector, got %d", len(embeddings)),
		}
	}

	results, err := r.index.Search(embeddings[0], k)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	chunks := make([]domain.ScoredChunk, 0, len(results))
	for _, result := range results {
		if result.Position < 0 || result.Position >= len(r.chunks) {
			return nil, fmt.Errorf("index returned position %d outside metadata of length %d", result.Position, len(r.chunks))
		}
		chunks = append(chunks, domain.ScoredChunk{
			Chunk:    r.chunks[result.Position],
			Score:    result.Score,
			Position: result.Position,
		})
	}

	return chunks, nil
}

// Texts returns the text of the top-k chunks in rank order.
func (r *SemanticRetriever) Texts(ctx context.Context, query string, k int) ([]string, error) {
	return Texts(ctx, r, query, k)
}

// Len returns the number of searchable chunks.
func (r *SemanticRetriever) Len() int {
	return len(r.chunks)
}

// Texts runs any retriever and keeps only the chunk texts.
func Texts(ctx context.Context, r port.Retriever, query string, k int) ([]string, error) {
	results, err := r.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(results))
	for i, res := range results {
		texts[i] = res.Chunk.Text
	}
	return texts, nil
}
