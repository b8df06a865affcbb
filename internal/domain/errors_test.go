package domain

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundErrorMatchesSentinel(t *testing.T) {
	var err error = &NotFoundError{Title: "Heat"}
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, `title "Heat" not found`, err.Error())
}

func TestLoadErrorUnwraps(t *testing.T) {
	err := &LoadError{Source: "movies.csv", Reason: "read header", Err: io.ErrUnexpectedEOF}
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "movies.csv")

	bare := &LoadError{Source: "movies.csv", Reason: `missing column "title"`}
	assert.Equal(t, `load movies.csv: missing column "title"`, bare.Error())
}

func TestParseErrorMessage(t *testing.T) {
	err := &ParseError{Line: 7, Field: "genres", Err: errors.New("not a list")}
	assert.Equal(t, "line 7: parse genres: not a list", err.Error())
}

func TestBuildStatsTotalDropped(t *testing.T) {
	s := BuildStats{Dropped: map[string]int{"missing_overview": 2, "malformed_genres": 1}}
	assert.Equal(t, 3, s.TotalDropped())
	assert.Equal(t, 0, BuildStats{}.TotalDropped())
}
