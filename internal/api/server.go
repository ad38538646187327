// Package api exposes the companion's read-only HTTP surface: the live
// match view, the local archive, and the websocket event feed.
package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hiloapp/bg-companion/internal/api/websocket"
	"github.com/hiloapp/bg-companion/internal/bg/tracker"
	"github.com/hiloapp/bg-companion/internal/bg/turns"
	"github.com/hiloapp/bg-companion/internal/storage/repository"
)

// MatchTracker is the live view the server reads. Satisfied by
// *tracker.Tracker. LiveTurns must return records that no other goroutine
// mutates; the handlers marshal them outside any tracker lock.
type MatchTracker interface {
	State() tracker.State
	LiveTurns() []*turns.TurnRecord
}

// Config holds server configuration.
type Config struct {
	Port int
}

// DefaultConfig returns the default API server configuration.
func DefaultConfig() *Config {
	return &Config{Port: 8115}
}

// Server is the companion API server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	port       int

	wsHub   *websocket.Hub
	tracker MatchTracker
	matches repository.MatchRepository
}

// NewServer builds the server. matches may be nil when the archive is
// disabled; the archive routes then report service unavailable.
func NewServer(cfg *Config, trk MatchTracker, matches repository.MatchRepository) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		router:  chi.NewRouter(),
		port:    cfg.Port,
		wsHub:   websocket.NewHub(),
		tracker: trk,
		matches: matches,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Hub exposes the websocket hub so it can be registered on the event
// dispatcher.
func (s *Server) Hub() *websocket.Hub {
	return s.wsHub
}

// Router returns the configured handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/live", s.handleLive)
		r.Get("/matches", s.handleRecentMatches)
		r.Get("/matches/{id}", s.handleMatchByID)
		r.Get("/stats", s.handleStats)
	})
	s.router.Get("/ws", s.wsHub.ServeWs)
}

// Start runs the hub and the HTTP listener in the background.
func (s *Server) Start() {
	go s.wsHub.Run()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", s.port),
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("[api] listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[api] server error: %v", err)
		}
	}()
}

// Shutdown stops the listener and the websocket hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHub.Stop()
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}
