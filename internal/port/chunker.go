package port

import "deckqa/internal/domain"

type Chunker interface {
	Chunk(doc domain.Document, content string) ([]domain.Chunk, error)
}
