package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/privasee/privasee/internal/auth"
	plog "github.com/privasee/privasee/internal/log"
	"github.com/privasee/privasee/internal/server"
	"github.com/privasee/privasee/internal/store"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for the web frontend",
		Long: `Serve starts the HTTP API used by the browser frontend: Google sign-in,
library listing, text detection, classification, the image proxy and the
review endpoints.

Sign-in needs GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URI.
Without them the /auth routes answer 503 and clients must bring their own
access token.

Examples:
  privasee serve
  privasee serve --listen :9000 --static ./frontend/build`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}
	cmd.Flags().StringP("listen", "l", "", "Listen address (default :8080, or :$PORT)")
	cmd.Flags().String("static", "", "Directory with a built frontend to serve")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := overrideString(cmd, "listen", &cfg.ListenAddress); err != nil {
		return err
	}
	if err := overrideString(cmd, "static", &cfg.StaticDir); err != nil {
		return err
	}
	if err := cfg.ValidateScan(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// The server logs each request, so it runs at Info.
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := plog.NewSecureLoggerWithLevel(cmd.ErrOrStderr(), level, cfg.LogJSON)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	svc, err := newServices(cfg, logger)
	if err != nil {
		return err
	}

	provider, err := auth.NewProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL,
		auth.WithLogger(logger))
	switch {
	case errors.Is(err, auth.ErrNotConfigured):
		logger.Warn("OAuth client not configured, sign-in routes disabled")
		provider = nil
	case err != nil:
		return fmt.Errorf("failed to configure sign-in: %w", err)
	}

	srv := server.New(cfg, server.Deps{
		Auth:       provider,
		Photos:     svc.photos,
		Extractor:  svc.extractor,
		Classifier: svc.classifier,
		Store:      st,
		Tracker:    svc.tracker,
	}, logger)

	fmt.Fprintf(cmd.ErrOrStderr(), "Listening on %s\n", cfg.ListenAddress)
	return srv.ListenAndServe(ctx)
}
