// Package api serves the engine over HTTP/JSON.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Houston4444/OsciTronix/engine"
	"github.com/Houston4444/OsciTronix/library"
	"github.com/Houston4444/OsciTronix/logging"
)

// Server is the HTTP server
type Server struct {
	runner  *engine.Runner
	library *library.Library
	router  *chi.Mux
	logger  *slog.Logger
	timeout time.Duration
}

type Option func(*Server)

// WithLibrary enables the /library routes.
func WithLibrary(l *library.Library) Option {
	return func(s *Server) { s.library = l }
}

// WithTimeout bounds how long a request waits for the engine.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

func New(r *engine.Runner, opts ...Option) *Server {
	s := &Server{
		runner:  r,
		router:  chi.NewRouter(),
		logger:  logging.Get(logging.HTTP),
		timeout: 2 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	s.setupRoutes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))

	r.Get("/health", s.handleHealth)
	r.Get("/state", s.handleState)
	r.Post("/sync", s.handleSync)
	r.Post("/mode", s.handleMode)

	r.Route("/current", func(r chi.Router) {
		r.Get("/", s.handleCurrent)
		r.Post("/params", s.handleSetParam)
		r.Put("/name", s.handleSetName)
	})
	r.Route("/banks/{n}", func(r chi.Router) {
		r.Get("/", s.handleBank)
		r.Post("/select", s.handleSelectBank)
		r.Post("/upload", s.handleUploadBank)
	})
	r.Route("/presets/{n}", func(r chi.Router) {
		r.Get("/", s.handlePreset)
		r.Post("/select", s.handleSelectPreset)
	})
	r.Route("/ampfx/{n}", func(r chi.Router) {
		r.Get("/", s.handleAmpFX)
		r.Post("/upload", s.handleUploadAmpFX)
	})
	if s.library != nil {
		r.Route("/library", func(r chi.Router) {
			r.Get("/", s.handleLibraryList)
			r.Post("/{name}", s.handleLibrarySave)
			r.Post("/{name}/load", s.handleLibraryLoad)
		})
	}
}

// requestLogger logs one line per request on the http category.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		s.logger.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown error", "err", err)
		}
	}()

	s.logger.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	<-done
	return nil
}
