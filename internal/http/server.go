package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/reelog/reelog/internal/auth"
	"github.com/reelog/reelog/internal/config"
	"github.com/reelog/reelog/internal/repository"
	"github.com/reelog/reelog/internal/stats"
	"github.com/reelog/reelog/internal/store"
	"github.com/reelog/reelog/internal/tmdb"
)

// Server wires HTTP routing, middleware, and handlers.
type Server struct {
	cfg     config.Config
	store   *store.Store
	repo    *repository.Repository
	stats   *stats.Service
	tmdb    *tmdb.Service
	logger  zerolog.Logger
	router  chi.Router
	httpSrv *http.Server
	now     func() time.Time
}

// New constructs the HTTP server with base middleware and routes.
func New(cfg config.Config, st *store.Store, repo *repository.Repository, statsSvc *stats.Service, tmdbSvc *tmdb.Service, logger zerolog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	s := &Server{
		cfg:    cfg,
		store:  st,
		repo:   repo,
		stats:  statsSvc,
		tmdb:   tmdbSvc,
		logger: logger,
		router: r,
		now:    time.Now,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.router.Route("/movies", func(r chi.Router) {
		r.Get("/search", s.handleSearchMovies)
		r.Get("/genres", s.handleGenres)
		r.Get("/{tmdbID}", s.handleMovieDetails)
		r.Get("/{tmdbID}/similar", s.handleSimilarMovies)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(s.cfg.JWTSecret, s.logger))

		r.Route("/stats", func(r chi.Router) {
			r.Get("/", s.handleStats)
			r.Get("/most-watched", s.handleMostWatched)
			r.Get("/years", s.handleStatsYears)
		})

		r.Route("/watch-logs", func(r chi.Router) {
			r.Get("/", s.handleListWatchLogs)
			r.Post("/", s.handleCreateWatchLog)
			r.Delete("/{id}", s.handleDeleteWatchLog)
		})
	})
}

// Start boots the HTTP server and blocks until shutdown or failure.
func (s *Server) Start(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.IdleTimeoutSecs) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpSrv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.HealthCheck(ctx); err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

type errorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			s.logger.Warn().Err(err).Msg("http: failed to encode response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, code, message string) {
	s.respondJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
