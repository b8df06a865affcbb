// Package catalog reads movie records from a CSV source and normalizes them
// into the item arena every downstream index is addressed by.
package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"recommender/internal/domain"
)

// Column names every catalog source must provide.
const (
	ColumnTitle       = "title"
	ColumnOverview    = "overview"
	ColumnGenres      = "genres"
	ColumnVoteAverage = "vote_average"
	ColumnVoteCount   = "vote_count"
)

// RequiredColumns lists the header names checked by Read.
var RequiredColumns = []string{ColumnTitle, ColumnOverview, ColumnGenres, ColumnVoteAverage, ColumnVoteCount}

// Record is one raw row of the source, restricted to the required columns.
type Record struct {
	Line        int
	Title       string
	Overview    string
	Genres      string
	VoteAverage string
	VoteCount   string
}

// Load opens path and reads it with Read.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.LoadError{Source: path, Reason: "open source", Err: err}
	}
	defer f.Close()
	return Read(f, path)
}

// Read parses a CSV stream with a header row. Extra columns are ignored;
// header names are matched case-insensitively. Fields missing from a short
// row are empty, which the normalizer then drops.
func Read(r io.Reader, source string) ([]Record, error) {
	cr := csv.NewReader(r)
	// short rows are kept; their missing fields read as empty
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &domain.LoadError{Source: source, Reason: "empty source"}
		}
		return nil, &domain.LoadError{Source: source, Reason: "read header", Err: err}
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		name := strings.ToLower(strings.TrimSpace(h))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	for _, c := range RequiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, &domain.LoadError{Source: source, Reason: fmt.Sprintf("missing column %q", c)}
		}
	}

	var records []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.LoadError{Source: source, Reason: "read row", Err: err}
		}
		line, _ := cr.FieldPos(0)
		records = append(records, Record{
			Line:        line,
			Title:       field(row, cols[ColumnTitle]),
			Overview:    field(row, cols[ColumnOverview]),
			Genres:      field(row, cols[ColumnGenres]),
			VoteAverage: field(row, cols[ColumnVoteAverage]),
			VoteCount:   field(row, cols[ColumnVoteCount]),
		})
	}
	return records, nil
}

func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
