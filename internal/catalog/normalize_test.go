package catalog

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() (*logrus.Entry, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(logger), hook
}

func TestNormalizeBuildsCombinedText(t *testing.T) {
	log, _ := quietLogger()
	res := Normalize([]Record{
		{Line: 2, Title: "A", Overview: " space war robots ", Genres: `[{"name": "Sci-Fi"}, {"name": "Action"}]`, VoteAverage: "7.5", VoteCount: "120"},
	}, Options{Logger: log})

	require.Len(t, res.Items, 1)
	it := res.Items[0]
	assert.Equal(t, 0, it.ID)
	assert.Equal(t, "space war robots", it.Overview)
	assert.Equal(t, []string{"Sci-Fi", "Action"}, it.Genres)
	assert.Equal(t, "space war robots Sci-Fi Action", it.CombinedText)
	assert.Equal(t, 7.5, it.VoteAverage)
	assert.Equal(t, 120, it.VoteCount)
}

func TestNormalizeDropsAndRenumbers(t *testing.T) {
	log, hook := quietLogger()
	records := []Record{
		{Line: 2, Title: "First", Overview: "one", Genres: `[{"name": "Drama"}]`},
		{Line: 3, Title: "Broken", Overview: "two", Genres: `[{"name": "Drama"`},
		{Line: 4, Title: "NoOverview", Overview: "  ", Genres: `[{"name": "Drama"}]`},
		{Line: 5, Title: "NoGenres", Overview: "four", Genres: ""},
		{Line: 6, Title: "Untagged", Overview: "five", Genres: "[]"},
		{Line: 7, Title: "Last", Overview: "six", Genres: `[{"name": "Comedy"}]`},
	}
	res := Normalize(records, Options{Logger: log})

	require.Len(t, res.Items, 2)
	assert.Equal(t, "First", res.Items[0].Title)
	assert.Equal(t, 0, res.Items[0].ID)
	assert.Equal(t, "Last", res.Items[1].Title)
	assert.Equal(t, 1, res.Items[1].ID, "survivors are renumbered contiguously")

	assert.Equal(t, map[string]int{
		DropMalformedGenres: 1,
		DropMissingOverview: 1,
		DropMissingGenres:   1,
		DropEmptyGenres:     1,
	}, res.Dropped)
	assert.Equal(t, 1, res.ParseFallbacks)

	require.NotNil(t, hook.LastEntry())
	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Data["title"] == "Broken" {
			warned = true
		}
	}
	assert.True(t, warned, "malformed genres fallback is logged")
}

func TestNormalizeKeepUntagged(t *testing.T) {
	log, _ := quietLogger()
	res := Normalize([]Record{
		{Title: "Broken", Overview: "two", Genres: `oops`},
		{Title: "Untagged", Overview: "five", Genres: "[]"},
	}, Options{KeepUntagged: true, Logger: log})

	require.Len(t, res.Items, 2)
	for _, it := range res.Items {
		assert.NotNil(t, it.Genres)
		assert.Empty(t, it.Genres)
	}
	assert.Equal(t, "two ", res.Items[0].CombinedText)
	assert.Empty(t, res.Dropped)
	assert.Equal(t, 1, res.ParseFallbacks)
}

func TestNormalizeNumericFallbacks(t *testing.T) {
	log, _ := quietLogger()
	res := Normalize([]Record{
		{Title: "A", Overview: "x", Genres: `[{"name": "Drama"}]`, VoteAverage: "n/a", VoteCount: "1234.0"},
		{Title: "B", Overview: "y", Genres: `[{"name": "Drama"}]`, VoteAverage: "", VoteCount: "lots"},
	}, Options{Logger: log})

	require.Len(t, res.Items, 2)
	assert.Equal(t, 0.0, res.Items[0].VoteAverage)
	assert.Equal(t, 1234, res.Items[0].VoteCount)
	assert.Equal(t, 0, res.Items[1].VoteCount)
}

func TestNormalizeVoteCountOutOfRange(t *testing.T) {
	log, _ := quietLogger()
	counts := []string{"NaN", "Inf", "-Inf", "1e30", "-5", "2147483648"}
	records := make([]Record, len(counts))
	for i, c := range counts {
		records[i] = Record{Title: c, Overview: "x", Genres: `[{"name": "Drama"}]`, VoteAverage: c, VoteCount: c}
	}
	res := Normalize(records, Options{Logger: log})

	require.Len(t, res.Items, len(counts))
	for _, it := range res.Items {
		assert.Equal(t, 0, it.VoteCount, "vote count %s", it.Title)
		assert.False(t, math.IsNaN(it.VoteAverage) || math.IsInf(it.VoteAverage, 0), "vote average %s", it.Title)
	}
}

func TestNormalizeNilLogger(t *testing.T) {
	res := Normalize(nil, Options{})
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
}
