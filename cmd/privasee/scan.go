package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/privasee/privasee/internal/config"
	"github.com/privasee/privasee/internal/gate"
	"github.com/privasee/privasee/internal/model"
	"github.com/privasee/privasee/internal/photos"
	"github.com/privasee/privasee/internal/pipeline"
	"github.com/privasee/privasee/internal/report"
	"github.com/privasee/privasee/internal/store"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a photo library for images showing personal information",
		Long: `Scan walks the photo library, reads the text in each image and asks the
classifier whether it contains personal information.

Images you already reviewed are skipped. The scan stops collecting after
--max-items images and stops classifying after --max-findings hits. Flagged
images are saved for "privasee review".

Examples:
  # Scan the library of PRIVASEE_ACCESS_TOKEN
  privasee scan

  # Scan every account in PRIVASEE_ACCOUNTS, three at a time
  privasee scan --all-accounts --batch 3

  # Write a Markdown report to a file
  privasee scan --markdown -o report.md`,
		Args: cobra.NoArgs,
		RunE: runScanCmd,
	}

	cmd.Flags().StringP("token", "t", "",
		"OAuth access token (prefer "+config.EnvAccessToken+")")
	cmd.Flags().BoolP("all-accounts", "a", false,
		"Also scan every account listed in "+config.EnvAccounts)

	cmd.Flags().Int("max-items", config.DefaultMaxItems,
		"Maximum number of library images to collect")
	cmd.Flags().Int("max-findings", config.DefaultMaxFindings,
		"Stop classifying after this many sensitive images")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize,
		"Number of accounts scanned concurrently")
	cmd.Flags().Duration("timeout", config.DefaultTimeout,
		"Timeout for each external request")
	cmd.Flags().Duration("scan-timeout", config.DefaultScanTimeout,
		"Timeout for a whole scan")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	return cmd
}

func runScanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyScanFlags(cmd, cfg); err != nil {
		return err
	}
	if err := cfg.ValidateScan(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	all, err := cmd.Flags().GetBool("all-accounts")
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	sessions := scanSessions(cfg, all)
	if len(sessions) == 0 {
		return errNoAccount
	}

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	svc, err := newServices(cfg, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cfg.ReportFile != "" {
		f, err := createOutputFile(cfg.ReportFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	return runScan(ctx, scanRun{
		cfg:      cfg,
		sessions: sessions,
		factory:  scanFactory(cfg, svc, st, logger),
		out:      out,
		progress: cmd.ErrOrStderr(),
		logger:   logger,
	})
}

func applyScanFlags(cmd *cobra.Command, cfg *config.Config) error {
	for _, o := range []error{
		overrideString(cmd, "token", &cfg.AccessToken),
		overrideInt(cmd, "max-items", &cfg.MaxItems),
		overrideInt(cmd, "max-findings", &cfg.MaxFindings),
		overrideInt(cmd, "batch", &cfg.BatchSize),
		overrideDuration(cmd, "timeout", &cfg.Timeout),
		overrideDuration(cmd, "scan-timeout", &cfg.ScanTimeout),
		overrideBool(cmd, "json", &cfg.JSONReport),
		overrideBool(cmd, "markdown", &cfg.MarkdownReport),
		overrideString(cmd, "output", &cfg.ReportFile),
	} {
		if o != nil {
			return o
		}
	}
	// Choosing one format on the command line replaces the file's choice.
	if cmd.Flags().Changed("json") && cfg.JSONReport && !cmd.Flags().Changed("markdown") {
		cfg.MarkdownReport = false
	}
	if cmd.Flags().Changed("markdown") && cfg.MarkdownReport && !cmd.Flags().Changed("json") {
		cfg.JSONReport = false
	}
	return nil
}

// scanSessions lists the accounts to scan: the primary token first, then
// the labelled accounts in label order when all is set.
func scanSessions(cfg *config.Config, all bool) []model.Session {
	var sessions []model.Session
	if cfg.AccessToken != "" {
		sessions = append(sessions, model.Session{AccessToken: cfg.AccessToken})
	}
	if all {
		for _, label := range slices.Sorted(maps.Keys(cfg.Accounts)) {
			sessions = append(sessions, model.Session{AccessToken: cfg.Accounts[label], UserName: label})
		}
	}
	return sessions
}

// scanFactory returns a function building one scan pipeline per account.
func scanFactory(cfg *config.Config, svc *services, st store.Store, logger *slog.Logger) func() *pipeline.Pipeline {
	return func() *pipeline.Pipeline {
		return pipeline.NewScan(pipeline.Deps{
			Walker: photos.NewWalker(svc.photos,
				photos.WithMaxItems(cfg.MaxItems),
				photos.WithWalkLogger(logger),
			),
			Decisions: st,
			Gate: gate.New(svc.extractor, svc.classifier,
				gate.WithMaxFindings(cfg.MaxFindings),
				gate.WithLogger(logger),
				gate.WithTracker(svc.tracker),
			),
			Tracker: svc.tracker,
			Saver:   st,
		},
			pipeline.WithLogger(logger),
			pipeline.WithTimeout(cfg.ScanTimeout),
		)
	}
}

type scanRun struct {
	cfg      *config.Config
	sessions []model.Session
	factory  func() *pipeline.Pipeline
	out      io.Writer
	progress io.Writer
	logger   *slog.Logger
}

// runScan scans every session and writes one report per account.
// It fails when any account could not be scanned, after writing all reports.
func runScan(ctx context.Context, run scanRun) error {
	fmt.Fprintf(run.progress, "Scanning %d account(s) (concurrency: %d)...\n",
		len(run.sessions), run.cfg.BatchSize)
	start := time.Now()

	bp := pipeline.NewBatchProcessor(run.factory,
		pipeline.WithConcurrency(run.cfg.BatchSize),
		pipeline.WithBatchLogger(run.logger),
	)
	reports, err := bp.ProcessBatch(ctx, run.sessions)
	if err != nil {
		return fmt.Errorf("scan interrupted: %w", err)
	}

	fmt.Fprintf(run.progress, "Scan completed in %s\n\n", time.Since(start).Round(time.Millisecond))

	w := newReportWriter(run.cfg, run.out)
	failed := 0
	for _, r := range reports {
		if r.Error != nil {
			failed++
		}
		if _, err := w.Write(r); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		if r.Error == nil && len(r.Flagged) > 0 {
			fmt.Fprintf(run.progress, "%s: %d image(s) to review. Run 'privasee review list --scan-id %s'.\n",
				r.Account, len(r.Flagged), r.ID)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d scan(s) failed", failed, len(reports))
	}
	return nil
}

// newReportWriter selects the report format configured in cfg.
func newReportWriter(cfg *config.Config, w io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(w, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(cfg.Verbose))
	}
}
