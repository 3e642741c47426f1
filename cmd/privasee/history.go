package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/privasee/privasee/internal/config"
	"github.com/privasee/privasee/internal/model"
	"github.com/privasee/privasee/internal/store"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past scans",
		Long: `History lists the scans stored locally, newest first.

Examples:
  # List every scan
  privasee history

  # Only scans of one account
  privasee history --account work

  # Print the report of a stored scan
  privasee history show 6f1c...

  # Compare the latest scan with the one before it
  privasee history compare`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := cmd.Flags().GetString("account")
			if err != nil {
				return err
			}
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, _ *config.Config, st store.Store) error {
				history, err := st.ScanHistory(ctx, account)
				if err != nil {
					return fmt.Errorf("failed to get scan history: %w", err)
				}
				return writeHistory(cmd.OutOrStdout(), history, asJSON)
			})
		},
	}
	cmd.PersistentFlags().String("account", "", "Only scans of this account label")
	cmd.PersistentFlags().BoolP("json", "j", false, "Output as JSON")

	cmd.AddCommand(newHistoryShowCmd(), newHistoryCompareCmd())
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <scan-id>",
		Short: "Print the report of a stored scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, cfg *config.Config, st store.Store) error {
				rep, err := st.ScanReport(ctx, args[0])
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("scan %s not found", args[0])
				}
				if err != nil {
					return fmt.Errorf("failed to load scan: %w", err)
				}
				if err := overrideBool(cmd, "markdown", &cfg.MarkdownReport); err != nil {
					return err
				}
				if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
					return err
				}
				_, err = newReportWriter(cfg, cmd.OutOrStdout()).Write(rep)
				return err
			})
		},
	}
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown report")
	return cmd
}

func newHistoryCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the latest scan with an earlier one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			account, err := cmd.Flags().GetString("account")
			if err != nil {
				return err
			}
			with, err := cmd.Flags().GetString("with")
			if err != nil {
				return err
			}
			asJSON, err := cmd.Flags().GetBool("json")
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, _ *config.Config, st store.Store) error {
				previous, current, err := comparisonPair(ctx, st, account, with)
				if err != nil {
					return err
				}
				return writeComparison(cmd.OutOrStdout(), compareScans(previous, current), asJSON)
			})
		},
	}
	cmd.Flags().StringP("with", "w", "", "Earlier scan to compare with (default: the one before the latest)")
	return cmd
}

// withStore loads the configuration and runs fn with an open store.
func withStore(cmd *cobra.Command, fn func(context.Context, *config.Config, store.Store) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()
	return fn(ctx, cfg, st)
}

func writeHistory(w io.Writer, history []store.ScanReportMetadata, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if history == nil {
			history = []store.ScanReportMetadata{}
		}
		return enc.Encode(history)
	}

	if len(history) == 0 {
		fmt.Fprintln(w, "No scans found.")
		fmt.Fprintln(w, "\nUse 'privasee scan' to scan your library.")
		return nil
	}

	fmt.Fprintf(w, "Scan history (%d scans):\n\n", len(history))
	fmt.Fprintf(w, "  %-36s  %-16s  %-16s  %7s  %7s\n", "ID", "Date", "Account", "Images", "Flagged")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 90))
	for _, m := range history {
		fmt.Fprintf(w, "  %-36s  %-16s  %-16s  %7d  %7d\n",
			m.ID, m.StartedAt.Local().Format("2006-01-02 15:04"), m.Account, m.ImagesFetched, m.FlaggedCount)
	}
	fmt.Fprintln(w, "\nUse 'privasee history show <id>' to print a report.")
	return nil
}

// comparisonPair returns the scans to compare: the latest scan of account
// and either the scan with id with or the one before the latest.
func comparisonPair(ctx context.Context, st store.Store, account, with string) (*model.ScanReport, *model.ScanReport, error) {
	history, err := st.ScanHistory(ctx, account)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get scan history: %w", err)
	}
	if len(history) == 0 {
		return nil, nil, errors.New("no scan history found")
	}
	if with == "" && len(history) < 2 {
		return nil, nil, fmt.Errorf("at least 2 scans are required for comparison (found %d)", len(history))
	}

	current, err := st.ScanReport(ctx, history[0].ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load scan %s: %w", history[0].ID, err)
	}

	previousID := with
	if previousID == "" {
		previousID = history[1].ID
	}
	if previousID == current.ID {
		return nil, nil, errors.New("cannot compare a scan with itself")
	}
	previous, err := st.ScanReport(ctx, previousID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, fmt.Errorf("scan %s not found", previousID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load scan %s: %w", previousID, err)
	}
	return previous, current, nil
}

// scanRef identifies one side of a comparison.
type scanRef struct {
	ID        string `json:"id"`
	Account   string `json:"account"`
	StartedAt string `json:"startedAt"`
	Flagged   int    `json:"flagged"`
}

// comparison is the difference between two scans' flagged images.
type comparison struct {
	Previous scanRef `json:"previous"`
	Current  scanRef `json:"current"`

	// New are flagged now but were not flagged before.
	New []string `json:"new"`

	// Gone were flagged before and are not flagged now, usually because
	// they were reviewed in between.
	Gone []string `json:"gone"`

	// CategoryDelta is current minus previous count per category.
	CategoryDelta map[model.Category]int `json:"categoryDelta"`
}

func refOf(r *model.ScanReport) scanRef {
	return scanRef{
		ID:        r.ID,
		Account:   r.Account,
		StartedAt: r.StartedAt.Local().Format("2006-01-02 15:04"),
		Flagged:   len(r.Flagged),
	}
}

// compareScans diffs the flagged images of previous and current.
func compareScans(previous, current *model.ScanReport) comparison {
	c := comparison{
		Previous:      refOf(previous),
		Current:       refOf(current),
		New:           []string{},
		Gone:          []string{},
		CategoryDelta: make(map[model.Category]int),
	}

	before := make(map[string]struct{}, len(previous.Flagged))
	for _, f := range previous.Flagged {
		before[f.ID()] = struct{}{}
		c.CategoryDelta[f.Classification.Category]--
	}
	now := make(map[string]struct{}, len(current.Flagged))
	for _, f := range current.Flagged {
		now[f.ID()] = struct{}{}
		c.CategoryDelta[f.Classification.Category]++
		if _, ok := before[f.ID()]; !ok {
			c.New = append(c.New, f.ID())
		}
	}
	for id := range before {
		if _, ok := now[id]; !ok {
			c.Gone = append(c.Gone, id)
		}
	}
	slices.Sort(c.Gone)
	for cat, d := range c.CategoryDelta {
		if d == 0 {
			delete(c.CategoryDelta, cat)
		}
	}
	return c
}

func writeComparison(w io.Writer, c comparison, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	}

	fmt.Fprintf(w, "Previous: %s  %s  %d flagged\n", c.Previous.ID, c.Previous.StartedAt, c.Previous.Flagged)
	fmt.Fprintf(w, "Current:  %s  %s  %d flagged\n\n", c.Current.ID, c.Current.StartedAt, c.Current.Flagged)

	if len(c.New) == 0 && len(c.Gone) == 0 {
		fmt.Fprintln(w, "No changes in flagged images.")
		return nil
	}
	if len(c.New) > 0 {
		fmt.Fprintf(w, "Newly flagged (%d):\n", len(c.New))
		for _, id := range c.New {
			fmt.Fprintf(w, "  + %s\n", id)
		}
	}
	if len(c.Gone) > 0 {
		fmt.Fprintf(w, "No longer flagged (%d):\n", len(c.Gone))
		for _, id := range c.Gone {
			fmt.Fprintf(w, "  - %s\n", id)
		}
	}
	if len(c.CategoryDelta) > 0 {
		fmt.Fprintln(w, "\nBy type:")
		cats := make([]string, 0, len(c.CategoryDelta))
		for cat := range c.CategoryDelta {
			cats = append(cats, string(cat))
		}
		slices.Sort(cats)
		for _, cat := range cats {
			fmt.Fprintf(w, "  %-24s %+d\n", cat, c.CategoryDelta[model.Category(cat)])
		}
	}
	return nil
}
