package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/privasee/privasee/internal/config"
	"github.com/privasee/privasee/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrEmptyImageID is returned when a decision has no image id.
var ErrEmptyImageID = errors.New("decision has empty image id")

// DecisionStore is the part of Store used by scans and review.
type DecisionStore interface {
	// DecidedIDs returns the ids of every image that carries a decision.
	DecidedIDs(ctx context.Context) (map[string]struct{}, error)

	// Upsert writes rec, replacing any earlier decision for the same image.
	Upsert(ctx context.Context, rec model.DecisionRecord) error
}

// Store is the full persistence interface.
type Store interface {
	DecisionStore

	// Get returns the decision for imageID or ErrNotFound.
	Get(ctx context.Context, imageID string) (model.DecisionRecord, error)

	// List returns every decision, most recent first.
	List(ctx context.Context) ([]model.DecisionRecord, error)

	// SaveScanReport stores a finished scan.
	SaveScanReport(ctx context.Context, report *model.ScanReport) error

	// ScanReport loads the scan with the given id or ErrNotFound.
	ScanReport(ctx context.Context, id string) (*model.ScanReport, error)

	// LatestScanReport loads the newest scan for account or ErrNotFound.
	// An empty account matches any account.
	LatestScanReport(ctx context.Context, account string) (*model.ScanReport, error)

	// ScanHistory lists scan metadata, newest first.
	ScanHistory(ctx context.Context, account string) ([]ScanReportMetadata, error)

	Close() error
}

// ScanReportMetadata summarizes a stored scan without loading it.
type ScanReportMetadata struct {
	ID            string    `json:"id"`
	Account       string    `json:"account"`
	StartedAt     time.Time `json:"startedAt"`
	ImagesFetched int       `json:"imagesFetched"`
	FlaggedCount  int       `json:"flaggedCount"`
}

// Open returns the backend selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch strings.ToLower(cfg.StoreDriver) {
	case "", config.StoreDriverSQLite:
		dir := cfg.DBDir
		if dir == "" {
			dir = config.XDGDataDir()
		}
		return OpenSQLite(dir, DefaultOptions())
	case config.StoreDriverPostgres:
		return OpenPostgres(ctx, cfg.DatabaseURL, logger)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownStoreDriver, cfg.StoreDriver)
	}
}

// validateDecision enforces the decision invariants shared by both backends.
func validateDecision(rec *model.DecisionRecord) error {
	if strings.TrimSpace(rec.ImageID) == "" {
		return ErrEmptyImageID
	}
	if _, err := model.ParseStatus(string(rec.Status)); err != nil {
		return err
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	return nil
}
