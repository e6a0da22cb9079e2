package embedding

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
)

var wordRe = regexp.MustCompile(`[\p{L}\p{N}]+`)

// HashEmbedder is a deterministic offline embedder: every lowercase word is
// hashed into one signed bucket of a fixed-size vector. Text without letters
// or digits falls back to its whitespace-separated tokens, so only blank text
// yields a zero vector. Vectors are not normalized here; wrap with Normalize.
type HashEmbedder struct {
	dimension int
}

func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 384
	}
	return &HashEmbedder{dimension: dimension}
}

func (e *HashEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		embeddings[i] = e.embed(text)
	}
	return embeddings, nil
}

func (e *HashEmbedder) embed(text string) []float32 {
	vec := make([]float32, e.dimension)
	lower := strings.ToLower(text)

	tokens := wordRe.FindAllString(lower, -1)
	if len(tokens) == 0 {
		tokens = strings.Fields(lower)
	}
	for _, tok := range tokens {
		idx, sign := e.bucket(tok)
		vec[idx] += sign
	}

	// Opposite signs landing in one bucket can cancel out.
	if isZero(vec) && len(tokens) > 0 {
		idx, _ := e.bucket(strings.Join(tokens, " "))
		vec[idx] = 1
	}
	return vec
}

func (e *HashEmbedder) bucket(token string) (int, float32) {
	h := fnv.New64a()
	h.Write([]byte(token))
	sum := h.Sum64()
	if sum>>63 == 1 {
		return int(sum % uint64(e.dimension)), -1
	}
	return int(sum % uint64(e.dimension)), 1
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

func (e *HashEmbedder) ModelName() string {
	return "hash"
}
