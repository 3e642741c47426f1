package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/privasee/privasee/internal/config"
	"github.com/privasee/privasee/internal/model"
	"github.com/privasee/privasee/internal/photos"
	"github.com/privasee/privasee/internal/redact"
	"github.com/privasee/privasee/internal/review"
	"github.com/privasee/privasee/internal/store"
	"github.com/privasee/privasee/internal/telemetry"
)

// NewReviewCmd creates the review command and its subcommands.
func NewReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review the images flagged by a scan",
		Long: `Review works on the images flagged by the latest scan (or --scan-id).

Images already confirmed or dismissed, in this or any earlier scan, are not
shown again.

Examples:
  privasee review list
  privasee review accept AGj1epU...        # save a blurred copy, mark sensitive
  privasee review dismiss AGj1epU... AGj2  # mark not sensitive`,
	}

	cmd.PersistentFlags().StringP("scan-id", "s", "", "Scan to review (default: the latest scan)")
	cmd.PersistentFlags().String("account", "", "Restrict the latest scan to this account label")

	cmd.AddCommand(newReviewListCmd(), newReviewAcceptCmd(), newReviewDismissCmd())
	return cmd
}

func newReviewListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List images pending review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			return withReview(cmd, func(_ context.Context, rs *reviewSession) error {
				if asJSON {
					return writePendingJSON(cmd.OutOrStdout(), rs)
				}
				return writePendingTable(cmd.OutOrStdout(), rs)
			})
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output as JSON")
	return cmd
}

func newReviewAcceptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accept <image-id>...",
		Short: "Confirm images as sensitive and save blurred copies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReview(cmd, func(ctx context.Context, rs *reviewSession) error {
				if err := overrideString(cmd, "output-dir", &rs.cfg.OutputDir); err != nil {
					return err
				}
				var errs []error
				for _, id := range args {
					errs = append(errs, acceptOne(ctx, cmd.OutOrStdout(), rs, id))
				}
				return errors.Join(errs...)
			})
		},
	}
	cmd.Flags().StringP("output-dir", "d", "", "Directory for redacted images (default from config)")
	return cmd
}

func newReviewDismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <image-id>...",
		Short: "Mark images as not sensitive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withReview(cmd, func(ctx context.Context, rs *reviewSession) error {
				var errs []error
				for _, id := range args {
					if err := rs.ctl.Dismiss(ctx, id); err != nil {
						errs = append(errs, fmt.Errorf("%s: %w", id, err))
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Dismissed %s\n", id)
				}
				return errors.Join(errs...)
			})
		},
	}
}

// reviewSession is a review controller over one stored scan.
type reviewSession struct {
	cfg    *config.Config
	report *model.ScanReport
	ctl    *review.Controller
}

// withReview loads the configuration, opens the store and runs fn on the
// selected scan.
func withReview(cmd *cobra.Command, fn func(context.Context, *reviewSession) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	scanID, err := cmd.Flags().GetString("scan-id")
	if err != nil {
		return err
	}
	account, err := cmd.Flags().GetString("account")
	if err != nil {
		return err
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg)
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	downloader := photos.NewClient(&http.Client{Timeout: cfg.Timeout}, logger)
	tracker := telemetry.New(cfg.GAMeasurementID, cfg.GAAPISecret, logger)

	rs, err := openReview(ctx, cfg, st, downloader, tracker, logger, scanID, account)
	if err != nil {
		return err
	}
	return fn(ctx, rs)
}

// openReview loads a stored scan and builds a controller over its items
// that have no decision yet.
func openReview(ctx context.Context, cfg *config.Config, st store.Store, dl review.Downloader,
	tracker telemetry.Tracker, logger *slog.Logger, scanID, account string) (*reviewSession, error) {
	var (
		rep *model.ScanReport
		err error
	)
	if scanID != "" {
		rep, err = st.ScanReport(ctx, scanID)
	} else {
		rep, err = st.LatestScanReport(ctx, account)
	}
	if errors.Is(err, store.ErrNotFound) {
		if scanID != "" {
			return nil, fmt.Errorf("scan %s not found", scanID)
		}
		return nil, errors.New("no scan found: run 'privasee scan' first")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scan: %w", err)
	}

	decided, err := st.DecidedIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load decisions: %w", err)
	}
	pending := make([]model.FlaggedItem, 0, len(rep.Flagged))
	for _, f := range rep.Flagged {
		if _, done := decided[f.ID()]; !done {
			pending = append(pending, f)
		}
	}

	ctl := review.New(rep.ID, pending, st, dl,
		review.WithRedactor(redact.NewRedactor(redact.WithPadding(cfg.Padding), redact.WithLogger(logger))),
		review.WithTracker(tracker),
		review.WithLogger(logger),
	)
	return &reviewSession{cfg: cfg, report: rep, ctl: ctl}, nil
}

func writePendingTable(w io.Writer, rs *reviewSession) error {
	pending := rs.ctl.Pending()
	fmt.Fprintf(w, "Scan %s (%s, %s)\n", rs.report.ID, rs.report.Account,
		rs.report.StartedAt.Local().Format("2006-01-02 15:04"))
	if len(pending) == 0 {
		fmt.Fprintln(w, "Nothing left to review.")
		return nil
	}
	fmt.Fprintf(w, "%d image(s) pending review:\n\n", len(pending))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tVALUE\tFILE")
	for _, f := range pending {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.ID(), f.Classification.Category,
			oneLine(f.Classification.Value), f.Item.Filename)
	}
	return tw.Flush()
}

func writePendingJSON(w io.Writer, rs *reviewSession) error {
	type item struct {
		ID       string         `json:"id"`
		Type     model.Category `json:"type"`
		Value    string         `json:"value"`
		Filename string         `json:"filename,omitempty"`
	}
	pending := rs.ctl.Pending()
	out := struct {
		ScanID  string `json:"scanId"`
		Account string `json:"account"`
		Items   []item `json:"items"`
	}{ScanID: rs.report.ID, Account: rs.report.Account, Items: make([]item, len(pending))}
	for i, f := range pending {
		out.Items[i] = item{ID: f.ID(), Type: f.Classification.Category, Value: f.Classification.Value, Filename: f.Item.Filename}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// acceptOne confirms id and writes its artifact. The artifact is written
// even when storing the decision failed.
func acceptOne(ctx context.Context, w io.Writer, rs *reviewSession, id string) error {
	accepted, err := rs.ctl.Accept(ctx, id)
	if err != nil && !errors.Is(err, review.ErrPersist) {
		if errors.Is(err, review.ErrRedact) {
			return fmt.Errorf("%s: %w (image links expire after about an hour; run a new scan)", id, err)
		}
		return fmt.Errorf("%s: %w", id, err)
	}

	path, werr := saveArtifact(rs.cfg.OutputDir, accepted.Artifact)
	if werr != nil {
		return errors.Join(fmt.Errorf("%s: %w", id, werr), err)
	}

	if accepted.Artifact.Redacted {
		fmt.Fprintf(w, "Saved %s (sensitive text blurred)\n", path)
	} else {
		fmt.Fprintf(w, "Saved %s (no matching text found, image unchanged)\n", path)
	}
	if !accepted.Metadata.Empty() {
		kinds := make([]string, 0, len(accepted.Metadata.Tags))
		for _, t := range accepted.Metadata.Tags {
			if !slices.Contains(kinds, string(t.Kind)) {
				kinds = append(kinds, string(t.Kind))
			}
		}
		fmt.Fprintf(w, "  warning: the file still carries EXIF metadata (%s)\n", strings.Join(kinds, ", "))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}
	return nil
}

// saveArtifact writes a into dir with owner-only permissions.
func saveArtifact(dir string, a redact.Artifact) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path := filepath.Join(dir, a.Filename)
	if err := os.WriteFile(path, a.Data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return path, nil
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 40 {
		return string(r[:37]) + "..."
	}
	return s
}
