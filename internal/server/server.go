// Package server exposes the scoring engine over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/advisor-cli/internal/model"
	"github.com/sells-group/advisor-cli/internal/scorer"
)

// Scorer is the store-backed scoring surface the API serves.
type Scorer interface {
	RecommendForClient(ctx context.Context, clientID string) ([]model.Recommendation, error)
	PrioritizeClient(ctx context.Context, clientID string) (*model.TaskPriorityResult, error)
	TaskList(ctx context.Context, filter scorer.TaskFilter) ([]model.TaskPriorityResult, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds server configuration.
type Config struct {
	Port           int
	RateLimit      float64
	RateBurst      int
	AllowedOrigins []string
}

// Server is the HTTP API.
type Server struct {
	router  *chi.Mux
	server  *http.Server
	scorer  Scorer
	pinger  Pinger
	limiter *rate.Limiter
	port    int
}

// New creates a Server. pinger may be nil, in which case /health only
// reports that the process is up.
func New(cfg Config, sc Scorer, pinger Pinger) *Server {
	s := &Server{
		router: chi.NewRouter(),
		scorer: sc,
		pinger: pinger,
		port:   cfg.Port,
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	s.setupMiddleware(cfg.AllowedOrigins)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware(origins []string) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(loggingMiddleware)
	s.router.Use(middleware.Timeout(30 * time.Second))

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.rateLimitMiddleware)

		r.Post("/recommendations", s.handleRecommend)
		r.Post("/tasks/priority", s.handlePrioritize)
		r.Get("/tasks", s.handleTaskList)

		r.Route("/clients/{id}", func(r chi.Router) {
			r.Get("/recommendations", s.handleClientRecommendations)
			r.Get("/priority", s.handleClientPriority)
		})
	})
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	zap.L().Info("server: starting", zap.Int("port", s.port))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	zap.L().Info("server: shutting down")
	return s.server.Shutdown(ctx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		zap.L().Info("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
