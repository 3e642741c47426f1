package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/privasee/privasee/internal/model"
)

// DefaultConcurrency is the number of accounts scanned at once.
const DefaultConcurrency = 2

// BatchProcessor scans several accounts concurrently.
// Each account gets a fresh pipeline from the factory.
type BatchProcessor struct {
	pipelineFactory func() *Pipeline
	concurrency     int
	logger          *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent scans.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch scans every session and returns one report per session in
// input order. A failed scan does not stop the others; its error is kept in
// its report. The returned error is non-nil only when ctx ends.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, sessions []model.Session) ([]*model.ScanReport, error) {
	bp.logger.Info("starting batch processing",
		"total_accounts", len(sessions),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	// Each goroutine writes only its own index.
	results := make([]*model.ScanReport, len(sessions))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, session := range sessions {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			report := model.NewScanReport(uuid.NewString(), session.DisplayName())
			bp.logger.Info("scanning account",
				"account", report.Account,
				"index", i+1,
				"total", len(sessions),
			)

			if err := bp.pipelineFactory().Execute(ctx, session, report); err != nil {
				bp.logger.Warn("scan failed", "account", report.Account, "error", err)
			} else {
				bp.logger.Info("scan completed",
					"account", report.Account,
					"flagged", len(report.Flagged),
				)
			}
			results[i] = report
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch processing complete",
		"total_accounts", len(sessions),
		"elapsed", time.Since(startTime),
	)
	return results, err
}
