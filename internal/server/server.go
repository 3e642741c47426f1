package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/privasee/privasee/internal/auth"
	"github.com/privasee/privasee/internal/classifier"
	"github.com/privasee/privasee/internal/config"
	"github.com/privasee/privasee/internal/photos"
	"github.com/privasee/privasee/internal/redact"
	"github.com/privasee/privasee/internal/review"
	"github.com/privasee/privasee/internal/store"
	"github.com/privasee/privasee/internal/telemetry"
	"github.com/privasee/privasee/internal/transport"
	"github.com/privasee/privasee/internal/vision"
)

// PhotoService lists a library and downloads its images. *photos.Client implements it.
type PhotoService interface {
	photos.Lister
	review.Downloader
}

// Deps are the collaborators of the server.
type Deps struct {
	// Auth is optional; without it the /auth routes answer 503.
	Auth       *auth.Provider
	Photos     PhotoService
	Extractor  vision.Extractor
	Classifier classifier.Classifier
	Store      store.Store
	Tracker    telemetry.Tracker
	Redactor   *redact.Redactor

	// ProxyClient fetches proxied images. Defaults to a plain client.
	ProxyClient *http.Client
}

// Server is the privasee HTTP API.
type Server struct {
	cfg      *config.Config
	deps     Deps
	logger   *slog.Logger
	sessions *review.Registry
	proxy    *transport.Client
	router   *mux.Router
	handler  http.Handler
}

// New creates a Server.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Tracker == nil {
		deps.Tracker = telemetry.Noop{}
	}
	if deps.Redactor == nil {
		deps.Redactor = redact.NewRedactor(redact.WithPadding(cfg.Padding), redact.WithLogger(logger))
	}
	if deps.ProxyClient == nil {
		deps.ProxyClient = &http.Client{Timeout: cfg.Timeout}
	}
	s := &Server{
		cfg:      cfg,
		deps:     deps,
		logger:   logger,
		sessions: review.NewRegistry(review.DefaultSessionTTL),
		proxy: transport.New(
			transport.WithHTTPClient(deps.ProxyClient),
			transport.WithLogger(logger),
			transport.WithLogPrefix("proxy"),
		),
	}
	s.router = s.routes()
	// Wrapped outside the router so preflight and unmatched requests pass through too.
	s.handler = s.logRequests(cors(s.router))
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on the configured address until ctx ends, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddress,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.cfg.ListenAddress)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}
