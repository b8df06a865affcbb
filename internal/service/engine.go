// Package service assembles the build pipeline and answers catalog queries.
package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"recommender/internal/catalog"
	"recommender/internal/domain"
	"recommender/internal/embedding"
	"recommender/internal/embedding/tfidf"
	"recommender/internal/metrics"
	"recommender/internal/similarity"
)

// Options configures a build.
type Options struct {
	KeepUntagged bool
	Vectorizer   tfidf.Config
	// Embedder overrides the TF-IDF vectorizer built from Vectorizer.
	Embedder embedding.Embedder
	Logger   *logrus.Entry
}

// Engine is an immutable, built index over one catalog. It is safe for
// concurrent readers.
type Engine struct {
	items  []domain.Item
	lower  []string
	titles *similarity.TitleIndex
	matrix *similarity.Matrix
	stats  domain.BuildStats
	log    *logrus.Entry
}

var _ domain.Recommender = (*Engine)(nil)

// Build loads the catalog at source and runs the whole pipeline. The work
// is O(N²) in time and memory in the number of surviving items.
func Build(ctx context.Context, source string, opts Options) (*Engine, error) {
	start := time.Now()
	records, err := catalog.Load(source)
	if err != nil {
		metrics.ObserveBuild(start, err)
		return nil, err
	}
	return build(ctx, source, records, start, opts)
}

// BuildFromReader is Build over an already open CSV stream.
func BuildFromReader(ctx context.Context, r io.Reader, source string, opts Options) (*Engine, error) {
	start := time.Now()
	records, err := catalog.Read(r, source)
	if err != nil {
		metrics.ObserveBuild(start, err)
		return nil, err
	}
	return build(ctx, source, records, start, opts)
}

func build(ctx context.Context, source string, records []catalog.Record, start time.Time, opts Options) (eng *Engine, err error) {
	defer func() { metrics.ObserveBuild(start, err) }()

	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	buildID := uuid.NewString()
	log = log.WithFields(logrus.Fields{"build_id": buildID, "source": source})
	log.WithField("records", len(records)).Info("catalog loaded")

	norm := catalog.Normalize(records, catalog.Options{KeepUntagged: opts.KeepUntagged, Logger: log})
	if len(norm.Items) == 0 {
		return nil, &domain.LoadError{Source: source, Reason: "no usable records"}
	}
	log.WithFields(logrus.Fields{"items": len(norm.Items), "dropped": norm.Dropped}).Info("catalog normalized")

	emb := opts.Embedder
	if emb == nil {
		emb = tfidf.NewEmbedder(opts.Vectorizer)
	}
	corpus := make([]string, len(norm.Items))
	for i, it := range norm.Items {
		corpus[i] = it.CombinedText
	}
	if err := emb.Prepare(corpus); err != nil {
		return nil, &domain.LoadError{Source: source, Reason: "no vocabulary", Err: err}
	}
	vectors := make([]embedding.SparseVector, len(corpus))
	for i, text := range corpus {
		if vectors[i], err = emb.Embed(text); err != nil {
			return nil, fmt.Errorf("embed item %d: %w", i, err)
		}
	}
	log.WithField("vocab", emb.Dimension()).Info("vectors built")

	matrixBytes := similarity.Bytes(len(vectors))
	log.WithField("matrix_bytes", matrixBytes).Info("computing similarity matrix")
	matrix, err := similarity.Build(ctx, vectors)
	if err != nil {
		return nil, err
	}

	titles := make([]string, len(norm.Items))
	lower := make([]string, len(norm.Items))
	for i, it := range norm.Items {
		titles[i] = it.Title
		lower[i] = strings.ToLower(it.Title)
	}
	index := similarity.NewTitleIndex(titles)
	if index.Shadowed() > 0 {
		log.WithField("shadowed", index.Shadowed()).Warn("duplicate titles resolve to their first occurrence")
	}

	eng = &Engine{
		items:  norm.Items,
		lower:  lower,
		titles: index,
		matrix: matrix,
		log:    log,
		stats: domain.BuildStats{
			BuildID:        buildID,
			Source:         source,
			RawRecords:     len(records),
			Items:          len(norm.Items),
			Dropped:        norm.Dropped,
			ParseFallbacks: norm.ParseFallbacks,
			ShadowedTitles: index.Shadowed(),
			ZeroVectors:    matrix.ZeroVectors(),
			VocabularySize: emb.Dimension(),
			MatrixBytes:    matrixBytes,
			Duration:       time.Since(start),
		},
	}
	metrics.RecordCatalog(len(norm.Items), norm.Dropped, matrixBytes)
	log.WithField("duration", eng.stats.Duration).Info("index built")
	return eng, nil
}

// Search returns every title containing text, case-insensitively, in
// catalog order. Empty text matches nothing.
func (e *Engine) Search(text string) []string {
	start := time.Now()
	out := []string{}
	if text != "" {
		needle := strings.ToLower(text)
		for i, t := range e.lower {
			if strings.Contains(t, needle) {
				out = append(out, e.items[i].Title)
			}
		}
	}
	metrics.RecordQuery("search", "ok", time.Since(start))
	return out
}

// Recommend returns the k items most similar to title, never including
// title itself.
func (e *Engine) Recommend(title string, k int) ([]domain.Recommendation, error) {
	start := time.Now()
	if k < 1 {
		metrics.RecordQuery("recommend", "invalid", time.Since(start))
		return nil, &domain.InvalidArgumentError{Field: "k", Reason: fmt.Sprintf("must be a positive integer, got %d", k)}
	}
	idx, ok := e.titles.Lookup(title)
	if !ok {
		metrics.RecordQuery("recommend", "not_found", time.Since(start))
		return nil, &domain.NotFoundError{Title: title}
	}
	ranked := e.matrix.Ranked(idx, k)
	out := make([]domain.Recommendation, len(ranked))
	for i, nb := range ranked {
		out[i] = domain.Recommendation{Item: e.items[nb.Index], Score: nb.Score}
	}
	metrics.RecordQuery("recommend", "ok", time.Since(start))
	e.log.WithFields(logrus.Fields{"title": title, "k": k, "results": len(out)}).Debug("recommend")
	return out, nil
}

// Item returns the item with the given ID.
func (e *Engine) Item(id int) (domain.Item, bool) {
	if id < 0 || id >= len(e.items) {
		return domain.Item{}, false
	}
	return e.items[id], true
}

// Lookup resolves title to its canonical item.
func (e *Engine) Lookup(title string) (domain.Item, bool) {
	idx, ok := e.titles.Lookup(title)
	if !ok {
		return domain.Item{}, false
	}
	return e.items[idx], true
}

// Len returns the number of items in the catalog.
func (e *Engine) Len() int { return len(e.items) }

// Similarity returns the matrix entry for two item IDs.
func (e *Engine) Similarity(i, j int) float64 { return e.matrix.At(i, j) }

// Stats describes the build that produced e.
func (e *Engine) Stats() domain.BuildStats { return e.stats }
