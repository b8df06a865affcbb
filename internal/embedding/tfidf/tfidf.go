// Package tfidf implements a deterministic TF-IDF vectorizer over a capped
// vocabulary.
package tfidf

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"

	"recommender/internal/embedding"
)

// DefaultMaxFeatures bounds the vocabulary when Config.MaxFeatures is zero.
const DefaultMaxFeatures = 5000

// Stop word list names accepted by Config.StopWords.
const (
	StopWordsEnglish = "english"
	StopWordsNone    = "none"
)

// Config tunes the vocabulary.
type Config struct {
	// MaxFeatures keeps the N terms with the highest corpus frequency.
	// Negative disables the cap.
	MaxFeatures int
	StopWords   string
}

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Embedder implements a simple TF-IDF vectorizer.
// It builds a vocabulary from the corpus and computes IDF values.
type Embedder struct {
	maxFeatures int
	stopwords   map[string]struct{}
	vocabulary  map[string]int
	terms       []string
	idf         []float64
	prepared    bool
}

// NewEmbedder creates an unprepared TF-IDF embedder.
func NewEmbedder(cfg Config) *Embedder {
	maxFeatures := cfg.MaxFeatures
	if maxFeatures == 0 {
		maxFeatures = DefaultMaxFeatures
	}
	stop := map[string]struct{}{}
	if cfg.StopWords != StopWordsNone {
		stop = EnglishStopWords()
	}
	return &Embedder{
		maxFeatures: maxFeatures,
		stopwords:   stop,
		vocabulary:  make(map[string]int),
	}
}

// Name returns the identifier of this embedder implementation.
func (e *Embedder) Name() string { return "tfidf" }

// Prepare builds the vocabulary and IDF values from the provided corpus.
func (e *Embedder) Prepare(corpus []string) error {
	if len(corpus) == 0 {
		return errors.New("empty corpus for TF-IDF prepare")
	}
	df := make(map[string]int)
	total := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			total[tok]++
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	if len(terms) == 0 {
		return errors.New("no tokens found in corpus; every document is empty or stop words only")
	}
	if e.maxFeatures > 0 && len(terms) > e.maxFeatures {
		// highest corpus frequency first, ties by term
		sort.Slice(terms, func(i, j int) bool {
			if total[terms[i]] != total[terms[j]] {
				return total[terms[i]] > total[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:e.maxFeatures]
	}
	sort.Strings(terms)

	e.terms = terms
	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		e.vocabulary[term] = i
		// Smoothed IDF
		e.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	e.prepared = true
	return nil
}

// Dimension returns the vocabulary size.
func (e *Embedder) Dimension() int { return len(e.terms) }

// Vocabulary returns the retained terms in column order.
func (e *Embedder) Vocabulary() []string {
	out := make([]string, len(e.terms))
	copy(out, e.terms)
	return out
}

// IDF returns the inverse document frequency of term, or 0 if the term is
// not in the vocabulary.
func (e *Embedder) IDF(term string) float64 {
	if i, ok := e.vocabulary[term]; ok {
		return e.idf[i]
	}
	return 0
}

// Embed computes the L2-normalized TF-IDF vector for text. Terms outside
// the vocabulary are dropped; a text with none yields the zero vector.
func (e *Embedder) Embed(text string) (embedding.SparseVector, error) {
	if !e.prepared {
		return embedding.SparseVector{}, errors.New("tfidf embedder not prepared")
	}
	counts := make(map[int]int)
	for _, tok := range e.tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			counts[idx]++
		}
	}
	weights := make(map[int]float64, len(counts))
	for idx, c := range counts {
		weights[idx] = float64(c) * e.idf[idx]
	}
	vec := embedding.NewSparseVector(weights)
	if norm := vec.Norm(); norm > 0 {
		for i := range vec.Values {
			vec.Values[i] /= norm
		}
	}
	return vec, nil
}

// IsStopWord reports whether word is filtered by this embedder.
func (e *Embedder) IsStopWord(word string) bool {
	_, ok := e.stopwords[strings.ToLower(word)]
	return ok
}

func (e *Embedder) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, isStop := e.stopwords[t]; isStop {
			continue
		}
		out = append(out, t)
	}
	return out
}
