package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/privasee/privasee/internal/config"
	"github.com/privasee/privasee/internal/model"
)

// PostgresConfig tunes the connection pool.
type PostgresConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DefaultPostgresConfig returns pool settings for dsn.
func DefaultPostgresConfig(dsn string) PostgresConfig {
	return PostgresConfig{
		DSN:              dsn,
		MaxConns:         8,
		MinConns:         1,
		MaxConnLifetime:  time.Hour,
		MaxConnIdleTime:  10 * time.Minute,
		DialTimeout:      10 * time.Second,
		StatementTimeout: 30 * time.Second,
	}
}

// Postgres stores decisions and scan reports in PostgreSQL.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenPostgres connects with default pool settings and creates the schema.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*Postgres, error) {
	return OpenPostgresWithConfig(ctx, DefaultPostgresConfig(dsn), logger)
}

// OpenPostgresWithConfig connects using cfg and creates the schema.
func OpenPostgresWithConfig(ctx context.Context, cfg PostgresConfig, logger *slog.Logger) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DSN == "" {
		return nil, config.ErrMissingDatabaseURL
	}

	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	logger.Info("connecting to database", "host", pc.ConnConfig.Host, "database", pc.ConnConfig.Database)

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = config.AppName
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}

	dialCtx := ctx
	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &Postgres{pool: pool, logger: logger}
	if err := p.createTables(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info("successfully connected to database")
	return p, nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	p.logger.Info("closing database connections")
	p.pool.Close()
	return nil
}

func (p *Postgres) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS decisions (
		image_id TEXT PRIMARY KEY,
		status TEXT NOT NULL CHECK (status IN ('Sensitive', 'Not Sensitive')),
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scan_reports (
		id TEXT PRIMARY KEY,
		account TEXT NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		images_fetched INTEGER NOT NULL DEFAULT 0,
		flagged_count INTEGER NOT NULL DEFAULT 0,
		report_json JSONB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scan_reports_account ON scan_reports(account, started_at);
	`
	_, err := p.pool.Exec(ctx, schema)
	return err
}

// DecidedIDs returns the ids of every decided image.
func (p *Postgres) DecidedIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := p.pool.Query(ctx, `SELECT image_id FROM decisions`)
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
func (p *Postgres) Upsert(ctx context.Context, rec model.DecisionRecord) error {
	if err := validateDecision(&rec); err != nil {
		return err
	}
	query := `
	INSERT INTO decisions (image_id, status, updated_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (image_id) DO UPDATE SET
		status = EXCLUDED.status,
		updated_at = EXCLUDED.updated_at
	`
	if _, err := p.pool.Exec(ctx, query, rec.ImageID, string(rec.Status), rec.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save decision: %w", err)
	}
	return nil
}

// Get returns the decision for imageID.
func (p *Postgres) Get(ctx context.Context, imageID string) (model.DecisionRecord, error) {
	var (
		rec    model.DecisionRecord
		status string
	)
	err := p.pool.QueryRow(ctx,
		`SELECT image_id, status, updated_at FROM decisions WHERE image_id = $1`, imageID,
	).Scan(&rec.ImageID, &status, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.DecisionRecord{}, fmt.Errorf("%w: decision %s", ErrNotFound, imageID)
	}
	if err != nil {
		return model.DecisionRecord{}, fmt.Errorf("failed to get decision: %w", err)
	}
	rec.Status = model.Status(status)
	return rec, nil
}

// List returns every decision, most recent first.
func (p *Postgres) List(ctx context.Context) ([]model.DecisionRecord, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT image_id, status, updated_at FROM decisions ORDER BY updated_at DESC, image_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()

	var results []model.DecisionRecord
	for rows.Next() {
		var (
			rec    model.DecisionRecord
			status string
		)
		if err := rows.Scan(&rec.ImageID, &status, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		rec.Status = model.Status(status)
		results = append(results, rec)
	}
	return results, rows.Err()
}

// SaveScanReport saves a complete scan report as JSONB.
func (p *Postgres) SaveScanReport(ctx context.Context, report *model.ScanReport) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	query := `
	INSERT INTO scan_reports (id, account, started_at, images_fetched, flagged_count, report_json)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO UPDATE SET
		images_fetched = EXCLUDED.images_fetched,
		flagged_count = EXCLUDED.flagged_count,
		report_json = EXCLUDED.report_json
	`
	_, err = p.pool.Exec(ctx, query,
		report.ID,
		report.Account,
		report.StartedAt.UTC(),
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
func (p *Postgres) ScanReport(ctx context.Context, id string) (*model.ScanReport, error) {
	var reportJSON []byte
	err := p.pool.QueryRow(ctx, `SELECT report_json FROM scan_reports WHERE id = $1`, id).Scan(&reportJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: scan %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}
	return decodeReport(reportJSON)
}

// LatestScanReport loads the newest scan report for account.
func (p *Postgres) LatestScanReport(ctx context.Context, account string) (*model.ScanReport, error) {
	query := `
	SELECT report_json FROM scan_reports
	WHERE ($1 = '' OR account = $1)
	ORDER BY started_at DESC
	LIMIT 1
	`
	var reportJSON []byte
	err := p.pool.QueryRow(ctx, query, account).Scan(&reportJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: no scans for %q", ErrNotFound, account)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scan report: %w", err)
	}
	return decodeReport(reportJSON)
}

// ScanHistory lists scan metadata for account, newest first.
func (p *Postgres) ScanHistory(ctx context.Context, account string) ([]ScanReportMetadata, error) {
	query := `
	SELECT id, account, started_at, images_fetched, flagged_count
	FROM scan_reports
	WHERE ($1 = '' OR account = $1)
	ORDER BY started_at DESC
	`
	rows, err := p.pool.Query(ctx, query, account)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}
	defer rows.Close()

	var results []ScanReportMetadata
	for rows.Next() {
		var (
			meta          ScanReportMetadata
			imagesFetched int32
			flaggedCount  int32
		)
		if err := rows.Scan(&meta.ID, &meta.Account, &meta.StartedAt, &imagesFetched, &flaggedCount); err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		meta.ImagesFetched = int(imagesFetched)
		meta.FlaggedCount = int(flaggedCount)
		results = append(results, meta)
	}
	return results, rows.Err()
}

var (
	_ Store = (*SQLite)(nil)
	_ Store = (*Postgres)(nil)
)
