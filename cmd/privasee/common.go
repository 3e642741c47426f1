package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/privasee/privasee/internal/classifier"
	"github.com/privasee/privasee/internal/config"
	plog "github.com/privasee/privasee/internal/log"
	"github.com/privasee/privasee/internal/photos"
	"github.com/privasee/privasee/internal/telemetry"
	"github.com/privasee/privasee/internal/vision"
)

// loadConfig builds the configuration for cmd. Later sources win:
// defaults, the config file, .env and the environment, then flags the
// user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	path, err := persistentString(cmd, "config")
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = path

	if found := config.FindConfigFile(path); found != "" {
		file, err := config.LoadConfigFile(found)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", found, err)
		}
		if err := file.Apply(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", found, err)
		}
	} else if path != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
	}

	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	config.ApplyEnv(cfg, os.LookupEnv)

	if cfg.Verbose, err = persistentBool(cmd, "verbose"); err != nil {
		return nil, err
	}
	if cfg.LogJSON, err = persistentBool(cmd, "log-json"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// persistentString reads a root flag whether or not cobra merged it into
// cmd's own flag set yet.
func persistentString(cmd *cobra.Command, name string) (string, error) {
	if f := cmd.Flags().Lookup(name); f != nil {
		return cmd.Flags().GetString(name)
	}
	if f := cmd.Root().PersistentFlags().Lookup(name); f != nil {
		return cmd.Root().PersistentFlags().GetString(name)
	}
	return "", nil
}

func persistentBool(cmd *cobra.Command, name string) (bool, error) {
	if f := cmd.Flags().Lookup(name); f != nil {
		return cmd.Flags().GetBool(name)
	}
	if f := cmd.Root().PersistentFlags().Lookup(name); f != nil {
		return cmd.Root().PersistentFlags().GetBool(name)
	}
	return false, nil
}

// The override helpers copy a flag onto dst only when the user set it, so
// an unset flag never masks the config file or the environment.

func overrideString(cmd *cobra.Command, name string, dst *string) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func overrideInt(cmd *cobra.Command, name string, dst *int) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func overrideBool(cmd *cobra.Command, name string, dst *bool) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

func overrideDuration(cmd *cobra.Command, name string, dst *time.Duration) error {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetDuration(name)
	if err != nil {
		return err
	}
	*dst = v
	return nil
}

// newLogger returns the secret-masking logger selected by cfg.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	if cfg.LogJSON {
		return plog.NewSecureJSONLogger(w, cfg.Verbose)
	}
	return plog.NewSecureLogger(w, cfg.Verbose)
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// services are the external API clients a scan needs.
type services struct {
	photos     *photos.Client
	extractor  *vision.Client
	classifier *classifier.Gemini
	tracker    telemetry.Tracker
}

func newServices(cfg *config.Config, logger *slog.Logger) (*services, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	gemini, err := classifier.NewGemini(cfg.GeminiAPIKey, logger,
		classifier.WithBaseURL(cfg.GeminiBaseURL),
		classifier.WithModel(cfg.GeminiModel),
		classifier.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifier: %w", err)
	}

	return &services{
		photos: photos.NewClient(httpClient, logger,
			photos.WithBaseURL(cfg.PhotosBaseURL),
			photos.WithPageSize(cfg.PageSize),
		),
		extractor:  vision.NewClient(cfg.VisionAPIKey, cfg.VisionBaseURL, httpClient, logger),
		classifier: gemini,
		tracker:    telemetry.New(cfg.GAMeasurementID, cfg.GAAPISecret, logger),
	}, nil
}

// createOutputFile opens path for writing with owner-only permissions,
// creating parent directories as needed.
func createOutputFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // user-chosen output path
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// errNoAccount is returned when no access token is configured.
var errNoAccount = errors.New("no access token: set " + config.EnvAccessToken + " or pass --token")
