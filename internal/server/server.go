// Package server exposes the HTTP API: book creation with signed upload
// URLs, upload confirmation, and read access to content sections and
// distilled pages. Requests are authenticated with bearer tokens; books are
// owned, and a book another user owns is indistinguishable from a missing
// one.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/bookdistill/bookdistill/internal/files"
	"github.com/bookdistill/bookdistill/internal/models"
	"github.com/bookdistill/bookdistill/internal/queue"
	"github.com/bookdistill/bookdistill/internal/store"
)

// Config holds server configuration.
type Config struct {
	// Addr is the address to bind to (default: :8080)
	Addr string
	// JWTSecret verifies bearer tokens.
	JWTSecret []byte

	Books     store.Books
	Sections  store.Sections
	Distilled store.DistilledPages
	Files     files.Store

	SectioningJobs   queue.Queue[models.SectioningJob]
	DistillationJobs queue.Queue[models.DistillationJob]

	// Logger is the structured logger to use
	Logger *slog.Logger
	// ShutdownTimeout bounds graceful shutdown (default: 10s)
	ShutdownTimeout time.Duration
	// Now is a test hook, defaults to time.Now
	Now func() time.Time
	// NewID mints book ids, defaults to uuid.NewString
	NewID func() string
}

// Server is the bookdistill HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger

	jwtSecret       []byte
	books           store.Books
	sections        store.Sections
	distilled       store.DistilledPages
	files           files.Store
	sectioning      queue.Queue[models.SectioningJob]
	distillation    queue.Queue[models.DistillationJob]
	shutdownTimeout time.Duration
	now             func() time.Time
	newID           func() string

	mu      sync.Mutex
	running bool
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if len(cfg.JWTSecret) == 0 {
		return nil, errors.New("server: JWT secret is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = uuid.NewString
	}

	s := &Server{
		logger:          cfg.Logger.With("component", "server"),
		jwtSecret:       cfg.JWTSecret,
		books:           cfg.Books,
		sections:        cfg.Sections,
		distilled:       cfg.Distilled,
		files:           cfg.Files,
		sectioning:      cfg.SectioningJobs,
		distillation:    cfg.DistillationJobs,
		shutdownTimeout: cfg.ShutdownTimeout,
		now:             cfg.Now,
		newID:           cfg.NewID,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Routes builds the router. Exposed so tests can drive the handler stack
// without binding a listener.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/book", s.handleCreateBook)
		r.Get("/book", s.handleListBooks)
		r.Post("/book/{bookID}/uploaded", s.handleBookUploaded)
		r.Get("/book/{bookID}/content-sections", s.handleListSections)
		r.Get("/book/{bookID}/distilled", s.handleGetDistilled)
	})

	return r
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}
	return nil
}
