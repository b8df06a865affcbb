package catalog

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"recommender/internal/domain"
)

// Drop reasons reported in Result.Dropped.
const (
	DropMissingOverview = "missing_overview"
	DropMissingGenres   = "missing_genres"
	DropEmptyGenres     = "empty_genres"
	DropMalformedGenres = "malformed_genres"
)

// Options tunes Normalize.
type Options struct {
	// KeepUntagged keeps records whose genres parse to an empty list.
	KeepUntagged bool
	Logger       *logrus.Entry
}

// Result is the normalized catalog plus what was discarded on the way.
type Result struct {
	Items          []domain.Item
	Dropped        map[string]int
	ParseFallbacks int
}

// Normalize drops records that cannot be vectorized, parses genres, derives
// the combined text and assigns contiguous IDs in source order.
func Normalize(records []Record, opts Options) Result {
	log := opts.Logger
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	res := Result{
		Items:   make([]domain.Item, 0, len(records)),
		Dropped: make(map[string]int),
	}
	for _, rec := range records {
		overview := strings.TrimSpace(rec.Overview)
		if overview == "" {
			res.Dropped[DropMissingOverview]++
			continue
		}
		if strings.TrimSpace(rec.Genres) == "" {
			res.Dropped[DropMissingGenres]++
			continue
		}
		genres, err := ParseGenres(rec.Genres)
		if err != nil {
			res.ParseFallbacks++
			perr := &domain.ParseError{Line: rec.Line, Field: ColumnGenres, Err: err}
			log.WithField("title", rec.Title).WithError(perr).Warn("genres unparsable, using empty tag list")
		}
		if len(genres) == 0 && !opts.KeepUntagged {
			if err != nil {
				res.Dropped[DropMalformedGenres]++
			} else {
				res.Dropped[DropEmptyGenres]++
			}
			continue
		}

		item := domain.Item{
			ID:          len(res.Items),
			Title:       rec.Title,
			Overview:    overview,
			Genres:      genres,
			VoteAverage: parseVoteAverage(rec, log),
			VoteCount:   parseVoteCount(rec, log),
		}
		item.CombinedText = CombinedText(item.Overview, item.Genres)
		res.Items = append(res.Items, item)
	}
	return res
}

// CombinedText folds the tag names into the overview so both are weighted
// by the same vectorizer.
func CombinedText(overview string, genres []string) string {
	return overview + " " + strings.Join(genres, " ")
}

func parseVoteAverage(rec Record, log *logrus.Entry) float64 {
	s := strings.TrimSpace(rec.VoteAverage)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
		err = fmt.Errorf("%q is not finite", s)
	}
	if err != nil {
		log.WithError(&domain.ParseError{Line: rec.Line, Field: ColumnVoteAverage, Err: err}).Debug("vote average defaulted to 0")
		return 0
	}
	return v
}

func parseVoteCount(rec Record, log *logrus.Entry) int {
	s := strings.TrimSpace(rec.VoteCount)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= math.MaxInt32 {
		return n
	}
	// pandas exports integer columns containing NaN as floats ("1234.0")
	f, err := strconv.ParseFloat(s, 64)
	if err == nil && (math.IsNaN(f) || f < 0 || f > math.MaxInt32) {
		err = fmt.Errorf("%q out of range", s)
	}
	if err != nil {
		log.WithError(&domain.ParseError{Line: rec.Line, Field: ColumnVoteCount, Err: err}).Debug("vote count defaulted to 0")
		return 0
	}
	return int(f)
}
