package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mrtodp/fleetd/internal/config"
	"github.com/mrtodp/fleetd/internal/journal"
	"github.com/mrtodp/fleetd/internal/sched"
)

// Version is reported by the health and discovery endpoints.
const Version = "0.1.0"

// Server is the fleetd REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	sched     *sched.Scheduler
	journal   journal.Journal // optional; history reads come from here
	keys      *KeyConfig      // optional; nil leaves mutating routes open
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithJournal backs the history endpoint with the given journal.
func WithJournal(j journal.Journal) Option {
	return func(s *Server) {
		s.journal = j
	}
}

// WithKeys enables X-Fleet-Key authentication on mutating routes.
func WithKeys(keys *KeyConfig) Option {
	return func(s *Server) {
		s.keys = keys
	}
}

// New creates a Server with all routes registered.
func New(cfg config.ServerConfig, scheduler *sched.Scheduler, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		sched:     scheduler,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		// Discovery
		r.Get("/", s.handleDiscovery)

		// Health and telemetry
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		r.Get("/history", s.handleHistory)

		// Fleet
		r.Route("/robots", func(r chi.Router) {
			r.Get("/", s.handleListRobots)
			r.Get("/{id}", s.handleGetRobot)
			r.With(s.requireKey).Post("/", s.handleRegisterRobot)
		})

		// Tasks
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/{id}", s.handleGetTask)
			r.With(s.requireKey).Post("/", s.handleScheduleTask)
			r.With(s.requireKey).Post("/drain", s.handleDrain)
		})
	})
}
