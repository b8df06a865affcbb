// Package similarity holds the all-pairs cosine similarity matrix and the
// title lookup derived from the catalog. Both are addressed by item ID and
// are read-only once built.
package similarity

import (
	"context"
	"errors"
	"sort"

	"recommender/internal/embedding"
)

// Matrix is a dense, symmetric N×N cosine similarity matrix stored row-major.
type Matrix struct {
	n           int
	values      []float64
	zeroVectors int
}

// Neighbor is one ranked entry of a matrix row.
type Neighbor struct {
	Index int
	Score float64
}

// Bytes returns the memory the values of an n×n matrix occupy.
func Bytes(n int) int64 { return int64(n) * int64(n) * 8 }

// Build computes cosine similarity for every pair of vectors. Only the upper
// triangle is computed; the lower one is mirrored. A zero vector scores 0.0
// against everything, itself included. ctx is checked once per row.
func Build(ctx context.Context, vectors []embedding.SparseVector) (*Matrix, error) {
	n := len(vectors)
	if n == 0 {
		return nil, errors.New("no vectors to index")
	}
	norms := make([]float64, n)
	m := &Matrix{n: n, values: make([]float64, n*n)}
	for i, v := range vectors {
		norms[i] = v.Norm()
		if norms[i] == 0 {
			m.zeroVectors++
		}
	}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if norms[i] == 0 {
			continue
		}
		m.values[i*n+i] = 1
		for j := i + 1; j < n; j++ {
			if norms[j] == 0 {
				continue
			}
			s := clamp(embedding.Dot(vectors[i], vectors[j]) / (norms[i] * norms[j]))
			m.values[i*n+j] = s
			m.values[j*n+i] = s
		}
	}
	return m, nil
}

// Size returns N.
func (m *Matrix) Size() int { return m.n }

// ZeroVectors returns how many rows had a zero feature vector.
func (m *Matrix) ZeroVectors() int { return m.zeroVectors }

// At returns entry (i, j).
func (m *Matrix) At(i, j int) float64 { return m.values[i*m.n+j] }

// Ranked returns the k rows most similar to row i, excluding i itself,
// ordered by score descending and then by index ascending. k larger than
// N-1 yields all other rows.
func (m *Matrix) Ranked(i, k int) []Neighbor {
	if k <= 0 || i < 0 || i >= m.n {
		return []Neighbor{}
	}
	row := m.values[i*m.n : (i+1)*m.n]
	out := make([]Neighbor, 0, m.n-1)
	for j, s := range row {
		if j == i {
			continue
		}
		out = append(out, Neighbor{Index: j, Score: s})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].Index < out[b].Index
	})
	if k < len(out) {
		out = out[:k]
	}
	return out
}

func clamp(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
