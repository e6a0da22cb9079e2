package vecindex

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"

	"deckqa/internal/port"
)

// Flat is an exact inner-product index over position-addressed vectors.
// Vectors are expected to be unit length so the score is cosine similarity.
// It is read-only after Build and safe for concurrent Search calls.
type Flat struct {
	dim  int
	vecs [][]float32
}

// NewFlat builds an index over vectors; vectors[i] is addressed by position i.
func NewFlat(vectors [][]float32) (*Flat, error) {
	f := &Flat{}
	if err := f.Build(vectors); err != nil {
		return nil, err
	}
	return f, nil
}

// Build replaces the index contents.
func (f *Flat) Build(vectors [][]float32) error {
	if len(vectors) == 0 {
		f.dim, f.vecs = 0, nil
		return nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return errors.New("vecindex: zero-dimension vector")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("vecindex: vector %d has dimension %d, expected %d", i, len(v), dim)
		}
	}
	vecs := make([][]float32, len(vectors))
	for i, v := range vectors {
		vecs[i] = append([]float32(nil), v...)
	}
	f.dim = dim
	f.vecs = vecs
	return nil
}

func (f *Flat) Len() int {
	return len(f.vecs)
}

func (f *Flat) Dimension() int {
	return f.dim
}

// Vector returns a copy of the vector at position i.
func (f *Flat) Vector(i int) []float32 {
	return append([]float32(nil), f.vecs[i]...)
}

// Search scans every vector and returns the k best by descending inner
// product. Equal scores keep ascending position order. k is clamped to
// Len(); k <= 0 or an empty index yields no results.
func (f *Flat) Search(query []float32, k int) ([]port.VectorResult, error) {
	if k <= 0 || len(f.vecs) == 0 {
		return nil, nil
	}
	if len(query) != f.dim {
		return nil, fmt.Errorf("vecindex: query dimension %d, index dimension %d", len(query), f.dim)
	}

	results := make([]port.VectorResult, len(f.vecs))
	for i, v := range f.vecs {
		results[i] = port.VectorResult{Position: i, Score: dot(query, v)}
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// MarshalBinary stores: dim(uint32), n(uint32), then n*dim float32 values,
// little endian.
func (f *Flat) MarshalBinary() ([]byte, error) {
	out := make([]byte, 8, 8+4*f.dim*len(f.vecs))
	binary.LittleEndian.PutUint32(out[0:4], uint32(f.dim))
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(f.vecs)))
	for _, v := range f.vecs {
		for _, x := range v {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(x))
		}
	}
	return out, nil
}

// UnmarshalBinary restores the index from bytes.
func (f *Flat) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return errors.New("vecindex: invalid data")
	}
	dim := int(binary.LittleEndian.Uint32(data[0:4]))
	n := int(binary.LittleEndian.Uint32(data[4:8]))
	if n > 0 && dim == 0 {
		return errors.New("vecindex: zero dimension with vectors present")
	}
	// Compare counts rather than computing dim*n, which a corrupt header
	// can overflow.
	payload := len(data) - 8
	if payload%4 != 0 {
		return fmt.Errorf("vecindex: truncated data: %d payload bytes", payload)
	}
	floats := payload / 4
	if dim == 0 {
		if floats != 0 {
			return fmt.Errorf("vecindex: %d trailing bytes for an empty index", payload)
		}
	} else if floats%dim != 0 || floats/dim != n {
		return fmt.Errorf("vecindex: truncated or oversized data: %d bytes for %d vectors of dimension %d", len(data), n, dim)
	}

	vecs := make([][]float32, n)
	off := 8
	for i := range vecs {
		v := make([]float32, dim)
		for j := range v {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		vecs[i] = v
	}
	return f.Build(vecs)
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}
