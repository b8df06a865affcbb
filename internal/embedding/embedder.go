// Package embedding defines the vector representation produced for each
// catalog item and the interface vectorizers implement.
package embedding

import (
	"math"
	"sort"
)

// Embedder converts free text into a numeric vector representation.
// Implementations require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(text string) (SparseVector, error)
}

// SparseVector stores the non-zero weights of a vector. Indices are
// strictly ascending.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// NewSparseVector builds a vector from index -> weight pairs, dropping zeros.
func NewSparseVector(weights map[int]float64) SparseVector {
	idx := make([]int, 0, len(weights))
	for i, w := range weights {
		if w != 0 {
			idx = append(idx, i)
		}
	}
	sort.Ints(idx)
	vals := make([]float64, len(idx))
	for k, i := range idx {
		vals[k] = weights[i]
	}
	return SparseVector{Indices: idx, Values: vals}
}

// Len returns the number of stored entries.
func (v SparseVector) Len() int { return len(v.Indices) }

// IsZero reports whether the vector has no non-zero weight.
func (v SparseVector) IsZero() bool {
	for _, x := range v.Values {
		if x != 0 {
			return false
		}
	}
	return true
}

// Norm returns the L2 norm.
func (v SparseVector) Norm() float64 {
	sum := 0.0
	for _, x := range v.Values {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// Dot returns the inner product of two sparse vectors.
func Dot(a, b SparseVector) float64 {
	sum := 0.0
	i, j := 0, 0
	for i < len(a.Indices) && j < len(b.Indices) {
		switch {
		case a.Indices[i] == b.Indices[j]:
			sum += a.Values[i] * b.Values[j]
			i++
			j++
		case a.Indices[i] < b.Indices[j]:
			i++
		default:
			j++
		}
	}
	return sum
}
