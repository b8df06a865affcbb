// Package http serves the engine's search and recommend operations as a
// read-only JSON API.
package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"recommender/internal/domain"
)

// Config tunes the HTTP shell.
type Config struct {
	Addr        string
	MetricsPath string
	DefaultK    int
	MaxK        int
}

// Server exposes a built engine over HTTP.
type Server struct {
	engine   domain.Recommender
	cfg      Config
	log      *logrus.Entry
	validate *validator.Validate
	router   chi.Router
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// SearchResponse lists matching titles in catalog order.
type SearchResponse struct {
	Query  string   `json:"query"`
	Titles []string `json:"titles"`
	Total  int      `json:"total"`
}

// RecommendationView is one ranked neighbour.
type RecommendationView struct {
	Title           string   `json:"title"`
	Genres          []string `json:"genres"`
	VoteAverage     float64  `json:"vote_average"`
	VoteCount       int      `json:"vote_count"`
	SimilarityScore float64  `json:"similarity_score"`
}

// RecommendResponse is the reply of GET /api/v1/recommend.
type RecommendResponse struct {
	Title           string               `json:"title"`
	K               int                  `json:"k"`
	Recommendations []RecommendationView `json:"recommendations"`
}

// StatsResponse summarizes the build.
type StatsResponse struct {
	BuildID        string         `json:"build_id"`
	Source         string         `json:"source"`
	RawRecords     int            `json:"raw_records"`
	Items          int            `json:"items"`
	Dropped        map[string]int `json:"dropped"`
	ParseFallbacks int            `json:"parse_fallbacks"`
	ShadowedTitles int            `json:"shadowed_titles"`
	ZeroVectors    int            `json:"zero_vectors"`
	VocabularySize int            `json:"vocabulary_size"`
	MatrixBytes    int64          `json:"matrix_bytes"`
	BuildDuration  string         `json:"build_duration"`
}

type searchRequest struct {
	Q     string `validate:"max=200"`
	Limit int    `validate:"min=0"`
}

type recommendRequest struct {
	Title string `validate:"required"`
	K     int    `validate:"min=1"`
}

// NewServer wires routes for engine.
func NewServer(engine domain.Recommender, cfg Config, log *logrus.Entry) *Server {
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = 10
	}
	s := &Server{
		engine:   engine,
		cfg:      cfg,
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/recommend", s.handleRecommend)
		r.Get("/stats", s.handleStats)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.cfg.MetricsPath != "" {
		r.Handle(s.cfg.MetricsPath, promhttp.Handler())
	}
	s.router = r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("HTTP server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := searchRequest{Q: q.Get("q")}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be an integer", Code: "invalid_argument"})
			return
		}
		req.Limit = n
	}
	if err := s.validate.Struct(req); err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_argument"})
		return
	}

	titles := s.engine.Search(req.Q)
	total := len(titles)
	if req.Limit > 0 && req.Limit < total {
		titles = titles[:req.Limit]
	}
	jsonResponse(w, http.StatusOK, SearchResponse{Query: req.Q, Titles: titles, Total: total})
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := recommendRequest{Title: q.Get("title"), K: s.cfg.DefaultK}
	if raw := q.Get("k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: "k must be an integer", Code: "invalid_argument"})
			return
		}
		req.K = n
	}
	if err := s.validate.Struct(req); err != nil {
		jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_argument"})
		return
	}
	if s.cfg.MaxK > 0 && req.K > s.cfg.MaxK {
		req.K = s.cfg.MaxK
	}

	recs, err := s.engine.Recommend(req.Title, req.K)
	if err != nil {
		var inv *domain.InvalidArgumentError
		switch {
		case errors.Is(err, domain.ErrNotFound):
			jsonResponse(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
		case errors.As(err, &inv):
			jsonResponse(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_argument"})
		default:
			s.log.WithError(err).Error("recommend failed")
			jsonResponse(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: "internal"})
		}
		return
	}

	resp := RecommendResponse{Title: req.Title, K: req.K, Recommendations: make([]RecommendationView, len(recs))}
	for i, rec := range recs {
		resp.Recommendations[i] = RecommendationView{
			Title:           rec.Title,
			Genres:          rec.Genres,
			VoteAverage:     rec.VoteAverage,
			VoteCount:       rec.VoteCount,
			SimilarityScore: rec.Score,
		}
	}
	jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	st := s.engine.Stats()
	jsonResponse(w, http.StatusOK, StatsResponse{
		BuildID:        st.BuildID,
		Source:         st.Source,
		RawRecords:     st.RawRecords,
		Items:          st.Items,
		Dropped:        st.Dropped,
		ParseFallbacks: st.ParseFallbacks,
		ShadowedTitles: st.ShadowedTitles,
		ZeroVectors:    st.ZeroVectors,
		VocabularySize: st.VocabularySize,
		MatrixBytes:    st.MatrixBytes,
		BuildDuration:  st.Duration.String(),
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start),
			"request_id": chimiddleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}

func jsonResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
