// Package server exposes the estimator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/effort-cli/internal/catalog"
	"github.com/sells-group/effort-cli/internal/estimate"
	"github.com/sells-group/effort-cli/internal/model"
	"github.com/sells-group/effort-cli/internal/projects"
)

// maxBodyBytes bounds an estimation request body.
const maxBodyBytes = 1 << 20

// Estimator runs one estimate.
type Estimator interface {
	Estimate(ctx context.Context, req estimate.Request) (*estimate.Result, error)
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	estimator      Estimator
	catalog        *catalog.Catalog
	projects       projects.Store
	allowedOrigins []string
	requestTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigins sets the CORS allow-list. Defaults to "*".
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithRequestTimeout bounds each request, including classifier calls.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.requestTimeout = d
		}
	}
}

// New creates a Server.
func New(est Estimator, c *catalog.Catalog, ps projects.Store, opts ...Option) *Server {
	s := &Server{
		estimator:      est,
		catalog:        c,
		projects:       ps,
		allowedOrigins: []string{"*"},
		requestTimeout: 60 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(requestLogger)

	r.Get("/health", s.handleHealth)
	r.Get("/drivers", s.handleDrivers)
	r.Get("/projects", s.handleProjects)
	r.Post("/estimations", s.handleEstimate)

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Debug("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type driverInfo struct {
	ID          model.Driver            `json:"id"`
	Description string                  `json:"description"`
	Multipliers map[model.Level]float64 `json:"multipliers"`
}

func (s *Server) handleDrivers(w http.ResponseWriter, _ *http.Request) {
	out := make([]driverInfo, 0, len(s.catalog.Drivers()))
	for _, d := range s.catalog.Drivers() {
		desc, _ := s.catalog.Describe(d)
		mults := make(map[model.Level]float64, 6)
		for _, lvl := range s.catalog.Levels() {
			m, _ := s.catalog.Multiplier(d, lvl)
			mults[lvl] = m
		}
		out = append(out, driverInfo{ID: d, Description: desc, Multipliers: mults})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"levels":  s.catalog.Levels(),
		"drivers": out,
	})
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	list, err := s.projects.List(r.Context(), 0)
	if err != nil {
		zap.L().Error("server: list projects failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list projects")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// estimationResponse mirrors the estimate result with the listing fields a
// client shows next to it.
type estimationResponse struct {
	ProjectName string    `json:"projectName"`
	DateCreated time.Time `json:"dateCreated"`
	*estimate.Result
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimate.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.estimator.Estimate(r.Context(), req)
	if err != nil {
		if errors.Is(err, estimate.ErrInvalidRequest) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		zap.L().Error("server: estimate failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "estimation failed")
		return
	}

	writeJSON(w, http.StatusOK, estimationResponse{
		ProjectName: "Generated Project",
		DateCreated: time.Now().UTC(),
		Result:      res,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
