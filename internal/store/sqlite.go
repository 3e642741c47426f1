package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/privasee/privasee/internal/model"
)

// DBFileName is the SQLite file created inside the database directory.
const DBFileName = "privasee.db"

// sortableTime is fixed width so that text ordering matches time ordering.
const sortableTime = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite stores decisions and scan reports in a single SQLite file.
type SQLite struct {
	db     *sql.DB
	dbPath string
}

// Options configures SQLite behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// OpenSQLite opens or creates the database in dbDir.
func OpenSQLite(dbDir string, opts Options) (*SQLite, error) {
	dbPath := filepath.Join(dbDir, DBFileName)

	var dsn string
	if opts.CreateIfNotExists {
		// Scan reports hold extracted text, so keep the directory private.
		if err := os.MkdirAll(dbDir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?mode=rwc"
	} else {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLite{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		image_id TEXT PRIMARY KEY,
		status TEXT NOT NULL CHECK (status IN ('Sensitive', 'Not Sensitive')),
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_updated ON decisions(updated_at);

	CREATE TABLE IF NOT EXISTS scan_reports (
		id TEXT PRIMARY KEY,
		account TEXT NOT NULL,
		started_at TEXT NOT NULL,
		images_fetched INTEGER NOT NULL DEFAULT 0,
		flagged_count INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scan_reports_account ON scan_reports(account, started_at);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// DecidedIDs returns the ids of every decided image.
func (s *SQLite) DecidedIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT image_id FROM decisions`)
	if err != nil {
		return nil, fmt.Errorf("failed to list decided ids: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan image id: %w", err)
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// Upsert writes rec, replacing any previous decision for the image.
func (s *SQLite) Upsert(ctx context.Context, rec model.DecisionRecord) error {
	if err := validateDecision(&rec); err != nil {
		return err
	}

	query := `
	INSERT INTO decisions (image_id, status, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(image_id) DO UPDATE SET
		status = excluded.status,
		updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, rec.ImageID, string(rec.Status), rec.UpdatedAt.Format(sortableTime))
	if err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	return nil
}

// Get returns the decision for imageID.
func (s *SQLite) Get(ctx context.Context, imageID string) (model.DecisionRecord, error) {
	var (
		rec       model.DecisionRecord
		status    string
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT image_id, status, updated_at FROM decisions WHERE image_id = ?`, imageID,
	).Scan(&rec.ImageID, &status, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DecisionRecord{}, fmt.Errorf("%w: decision %s", ErrNotFound, imageID)
	}
	if err != nil {
		return model.DecisionRecord{}, fmt.Errorf("failed to get decision: %w", err)
	}
	rec.Status = model.Status(status)
	rec.UpdatedAt = parseTimestamp(updatedAt)
	return rec, nil
}

// List returns every decision, most recent first.
func (s *SQLite) List(ctx context.Context) ([]model.DecisionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT image_id, status, updated_at FROM decisions ORDER BY updated_at DESC, image_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()

	var results []model.DecisionRecord
	for rows.Next() {
		var (
			rec       model.DecisionRecord
			status    string
			updatedAt string
		)
		if err := rows.Scan(&rec.ImageID, &status, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		rec.Status = model.Status(status)
		rec.UpdatedAt = parseTimestamp(updatedAt)
		results = append(results, rec)
	}
	return results, rows.Err()
}

// SaveScanReport saves a complete scan report as JSON.
func (s *SQLite) SaveScanReport(ctx context.Context, report *model.ScanReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}

	query := `
	INSERT INTO scan_reports (id, account, started_at, images_fetched, flagged_count, report_json)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		images_fetched = excluded.images_fetched,
		flagged_count = excluded.flagged_count,
		report_json = excluded.report_json
	`
	_, err = s.db.ExecContext(ctx, query,
		report.ID,
		report.Account,
		report.StartedAt.UTC().Format(sortableTime),
		report.ImagesFetched,
		len(report.Flagged),
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save scan report: %w", err)
	}
	return nil
}

// ScanReport loads a scan report by id.
func (s *SQLite) ScanReport(ctx context.Context, id string) (*model.ScanReport, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM scan_reports WHERE id = ?`, id).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: scan %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}
	return decodeReport([]byte(reportJSON))
}

// LatestScanReport loads the newest scan report for account.
func (s *SQLite) LatestScanReport(ctx context.Context, account string) (*model.ScanReport, error) {
	query := `
	SELECT report_json FROM scan_reports
	WHERE (? = '' OR account = ?)
	ORDER BY started_at DESC
	LIMIT 1
	`
	var reportJSON string
	err := s.db.QueryRowContext(ctx, query, account, account).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no scans for %q", ErrNotFound, account)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}
	return decodeReport([]byte(reportJSON))
}

// ScanHistory lists scan metadata for account, newest first.
func (s *SQLite) ScanHistory(ctx context.Context, account string) ([]ScanReportMetadata, error) {
	query := `
	SELECT id, account, started_at, images_fetched, flagged_count
	FROM scan_reports
	WHERE (? = '' OR account = ?)
	ORDER BY started_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, account, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}
	defer rows.Close()

	var results []ScanReportMetadata
	for rows.Next() {
		var (
			meta      ScanReportMetadata
			startedAt string
		)
		if err := rows.Scan(&meta.ID, &meta.Account, &startedAt, &meta.ImagesFetched, &meta.FlaggedCount); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta.StartedAt = parseTimestamp(startedAt)
		results = append(results, meta)
	}
	return results, rows.Err()
}

func decodeReport(data []byte) (*model.ScanReport, error) {
	var report model.ScanReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	if report.Flagged == nil {
		report.Flagged = []model.FlaggedItem{}
	}
	return &report, nil
}

// timestampFormats contains the timestamp formats SQLite may return.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
