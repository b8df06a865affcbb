package http_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"recommender/internal/domain"
	transport "recommender/internal/transport/http"
)

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Search(text string) []string {
	args := m.Called(text)
	return args.Get(0).([]string)
}

func (m *MockEngine) Recommend(title string, k int) ([]domain.Recommendation, error) {
	args := m.Called(title, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Recommendation), args.Error(1)
}

func (m *MockEngine) Stats() domain.BuildStats {
	return m.Called().Get(0).(domain.BuildStats)
}

func setupServer() (*transport.Server, *MockEngine) {
	logger, _ := test.NewNullLogger()
	eng := new(MockEngine)
	srv := transport.NewServer(eng, transport.Config{MetricsPath: "/metrics", DefaultK: 10, MaxK: 20}, logrus.NewEntry(logger))
	return srv, eng
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestHandleSearch(t *testing.T) {
	srv, eng := setupServer()
	eng.On("Search", "ali").Return([]string{"Alien", "Aliens", "Alien 3"})

	rr := do(t, srv, "/api/v1/search?q=ali&limit=2")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var resp transport.SearchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Alien", "Aliens"}, resp.Titles)
	assert.Equal(t, 3, resp.Total)
	eng.AssertExpectations(t)
}

func TestHandleSearchEmpty(t *testing.T) {
	srv, eng := setupServer()
	eng.On("Search", "").Return([]string{})

	rr := do(t, srv, "/api/v1/search")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"query":"","titles":[],"total":0}`, rr.Body.String())
}

func TestHandleSearchBadLimit(t *testing.T) {
	srv, _ := setupServer()
	assert.Equal(t, http.StatusBadRequest, do(t, srv, "/api/v1/search?q=a&limit=x").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, srv, "/api/v1/search?q=a&limit=-1").Code)
}

func TestHandleRecommend(t *testing.T) {
	srv, eng := setupServer()
	eng.On("Recommend", "Alien", 2).Return([]domain.Recommendation{
		{Item: domain.Item{Title: "Aliens", Genres: []string{"Action"}, VoteAverage: 7.7, VoteCount: 3220}, Score: 0.5},
	}, nil)

	rr := do(t, srv, "/api/v1/recommend?title=Alien&k=2")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"title":"Alien","k":2,"recommendations":[{"title":"Aliens","genres":["Action"],"vote_average":7.7,"vote_count":3220,"similarity_score":0.5}]}`, rr.Body.String())
}

func TestHandleRecommendDefaultsAndCapsK(t *testing.T) {
	srv, eng := setupServer()
	eng.On("Recommend", "Alien", 10).Return([]domain.Recommendation{}, nil).Once()
	eng.On("Recommend", "Alien", 20).Return([]domain.Recommendation{}, nil).Once()

	assert.Equal(t, http.StatusOK, do(t, srv, "/api/v1/recommend?title=Alien").Code)
	assert.Equal(t, http.StatusOK, do(t, srv, "/api/v1/recommend?title=Alien&k=500").Code)
	eng.AssertExpectations(t)
}

func TestHandleRecommendErrors(t *testing.T) {
	srv, eng := setupServer()
	eng.On("Recommend", "Nope", 10).Return(nil, &domain.NotFoundError{Title: "Nope"})
	eng.On("Recommend", "Boom", 10).Return(nil, errors.New("boom"))

	tests := []struct {
		name   string
		target string
		status int
		code   string
	}{
		{"unknown title", "/api/v1/recommend?title=Nope", http.StatusNotFound, "not_found"},
		{"missing title", "/api/v1/recommend", http.StatusBadRequest, "invalid_argument"},
		{"zero k", "/api/v1/recommend?title=Alien&k=0", http.StatusBadRequest, "invalid_argument"},
		{"non-numeric k", "/api/v1/recommend?title=Alien&k=ten", http.StatusBadRequest, "invalid_argument"},
		{"engine failure", "/api/v1/recommend?title=Boom", http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, srv, tt.target)
			assert.Equal(t, tt.status, rr.Code)
			var resp transport.ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}

func TestHandleStats(t *testing.T) {
	srv, eng := setupServer()
	eng.On("Stats").Return(domain.BuildStats{BuildID: "b-1", Items: 3, Dropped: map[string]int{"missing_overview": 1}})

	rr := do(t, srv, "/api/v1/stats")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp transport.StatsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "b-1", resp.BuildID)
	assert.Equal(t, 3, resp.Items)
	assert.Equal(t, 1, resp.Dropped["missing_overview"])
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := setupServer()
	assert.Equal(t, http.StatusOK, do(t, srv, "/healthz").Code)

	rr := do(t, srv, "/metrics")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}
