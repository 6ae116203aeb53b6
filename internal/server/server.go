// Package server provides the HTTP server for the natya practice application.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ayusman/natya/internal/app"
	"github.com/ayusman/natya/internal/capture"
	"github.com/ayusman/natya/internal/server/api"
	"github.com/ayusman/natya/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	App       *app.App
	Camera    capture.Camera
}

// Server represents the HTTP server for the natya application.
type Server struct {
	config Config
	mux    *http.ServeMux
	hub    *FeedbackHub
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		hub:    NewFeedbackHub(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	// The evaluator stays an untyped nil without an App.
	var evaluator api.Evaluator
	if s.config.App != nil {
		evaluator = s.config.App
	}

	if s.config.Store != nil {
		choreographies := api.NewChoreographyHandler(s.config.Store, evaluator)
		s.mux.Handle("/api/choreographies", choreographies)
		s.mux.Handle("/api/choreographies/", choreographies)
	}

	if s.config.App != nil {
		sessions := api.NewSessionHandler(s.config.App, s.config.Store)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
		s.mux.Handle("/api/analyze", api.NewAnalyzeHandler(s.config.App))
		s.mux.Handle("/api/score", api.NewScoreHandler(s.config.App))
		s.mux.Handle("/api/reset", api.NewResetHandler(s.config.App))
		s.mux.Handle("/api/practice", api.NewPracticeHandler(s.config.App))

		s.config.App.OnEvaluation(s.hub.Broadcast)
		s.mux.Handle("/api/feedback", s.hub)
	}

	// Register camera stream endpoint if Camera is configured
	if s.config.Camera != nil {
		var scores ScoreSource
		if s.config.App != nil {
			scores = s.config.App
		}
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera, scores))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Hub returns the feedback WebSocket hub.
func (s *Server) Hub() *FeedbackHub {
	return s.hub
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}
	if s.config.App != nil {
		response["sessions"] = s.config.App.Sessions().Len()
		response["practice"] = s.config.App.Practice()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
