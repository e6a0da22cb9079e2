package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"deckqa/internal/domain"
)

// DefaultMaxTokens is the word budget of a chunk when none is configured.
const DefaultMaxTokens = 300

// WordChunker splits text into consecutive, non-overlapping runs of at most
// maxTokens whitespace-separated words.
type WordChunker struct {
	maxTokens int
}

func NewWordChunker(maxTokens int) *WordChunker {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return &WordChunker{maxTokens: maxTokens}
}

func (c *WordChunker) MaxTokens() int {
	return c.maxTokens
}

func (c *WordChunker) Chunk(doc domain.Document, content string) ([]domain.Chunk, error) {
	texts := ChunkText(content, c.maxTokens)
	if len(texts) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:      generateChunkID(doc.ID, i),
			DocID:   doc.ID,
			Source:  doc.Path,
			Ordinal: i,
			Text:    text,
		}
	}
	return chunks, nil
}

// ChunkText splits text on whitespace and emits a chunk every maxTokens
// words. The last chunk holds the remainder and may be shorter. Empty or
// all-whitespace input yields no chunks.
func ChunkText(text string, maxTokens int) []string {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(words)+maxTokens-1)/maxTokens)
	for start := 0; start < len(words); start += maxTokens {
		end := start + maxTokens
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
	}
	return chunks
}

func generateChunkID(docID string, ordinal int) string {
	data := fmt.Sprintf("%s:%d", docID, ordinal)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:8])
}
