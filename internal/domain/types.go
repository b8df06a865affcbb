package domain

import "time"

// Item is one catalog record. ID is its row position in the built catalog
// and addresses the same row in the feature vectors and similarity matrix.
type Item struct {
	ID           int
	Title        string
	Overview     string
	Genres       []string
	VoteAverage  float64
	VoteCount    int
	CombinedText string
}

// Recommendation is a ranked neighbour of a query item.
type Recommendation struct {
	Item
	Score float64
}

// BuildStats describes a finished build.
type BuildStats struct {
	BuildID        string
	Source         string
	RawRecords     int
	Items          int
	Dropped        map[string]int
	ParseFallbacks int
	ShadowedTitles int
	ZeroVectors    int
	VocabularySize int
	MatrixBytes    int64
	Duration       time.Duration
}

// TotalDropped sums the per-reason drop counts.
func (s BuildStats) TotalDropped() int {
	n := 0
	for _, c := range s.Dropped {
		n += c
	}
	return n
}

// Recommender defines the operations exposed by the engine to its shells.
type Recommender interface {
	Search(text string) []string
	Recommend(title string, k int) ([]Recommendation, error)
	Stats() BuildStats
}
