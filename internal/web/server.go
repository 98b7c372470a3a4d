// Package web serves the status API, the live frame stream and a small viewer page.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/whereabouts/internal/config"
	"github.com/kozaktomas/whereabouts/internal/enrollment"
	"github.com/kozaktomas/whereabouts/internal/logger"
	"github.com/kozaktomas/whereabouts/internal/mobility"
	"github.com/kozaktomas/whereabouts/internal/smoother"
	"github.com/kozaktomas/whereabouts/internal/web/handlers"
	"github.com/kozaktomas/whereabouts/internal/web/middleware"
)

// Deps are the collaborators the API reads from. Tracker and Hub are nil when
// no recognition loop runs in the process.
type Deps struct {
	Store      enrollment.Store
	Inferencer *mobility.Inferencer
	Tracker    *smoother.Tracker
	Hub        *handlers.Hub
	Now        func() time.Time
}

// Server represents the web server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	deps       Deps
	logger     *logger.Logger
}

// NewServer creates a new web server
func NewServer(cfg *config.WebConfig, deps Deps, log *logger.Logger) *Server {
	r := chi.NewRouter()

	if deps.Hub == nil {
		deps.Hub = handlers.NewHub()
	}
	s := &Server{
		router: r,
		deps:   deps,
		logger: log,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(5 * time.Minute))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // Long timeout for SSE
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("starting web server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down web server")

	// End open SSE streams so Shutdown does not wait for them.
	s.deps.Hub.Close()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
