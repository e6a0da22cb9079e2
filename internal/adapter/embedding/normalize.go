package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"

	"deckqa/internal/domain"
	"deckqa/internal/port"
)

// Normalizer enforces the embedding contract on top of a provider: one
// vector per input, the advertised dimension, and unit L2 norm. Build and
// query embedding both go through it so stored and query vectors share a
// metric space.
type Normalizer struct {
	inner port.Embedder
}

func Normalize(e port.Embedder) *Normalizer {
	if n, ok := e.(*Normalizer); ok {
		return n
	}
	return &Normalizer{inner: e}
}

func (n *Normalizer) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vecs, err := n.inner.Embed(ctx, texts)
	if err != nil {
		if errors.Is(err, domain.ErrEmbedding) {
			return nil, err
		}
		return nil, n.fail(err)
	}
	if len(vecs) != len(texts) {
		return nil, n.fail(fmt.Errorf("model returned %d vectors for %d inputs", len(vecs), len(texts)))
	}

	dim := n.inner.Dimension()
	out := make([][]float32, len(vecs))
	for i, v := range vecs {
		if dim > 0 && len(v) != dim {
			return nil, n.fail(fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dim))
		}
		unit, ok := L2Normalize(v)
		if !ok {
			return nil, n.fail(fmt.Errorf("vector %d has zero norm", i))
		}
		out[i] = unit
	}
	return out, nil
}

func (n *Normalizer) fail(err error) error {
	return &domain.EmbeddingError{Model: n.inner.ModelName(), Err: err}
}

func (n *Normalizer) Dimension() int {
	return n.inner.Dimension()
}

func (n *Normalizer) ModelName() string {
	return n.inner.ModelName()
}

// L2Normalize returns a unit-length copy of v. It reports false for a
// zero, empty or non-finite vector.
func L2Normalize(v []float32) ([]float32, bool) {
	norm := Norm(v)
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, false
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out, true
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
