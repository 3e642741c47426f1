package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/privasee/privasee/internal/config"
	"github.com/privasee/privasee/internal/model"
	"github.com/privasee/privasee/internal/report"
	"github.com/privasee/privasee/internal/store"
)

// defaultExportFile is the spreadsheet written when no -o is given.
const defaultExportFile = "privasee-decisions.xlsx"

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every review decision",
		Long: `Export writes every stored decision (image id, status, time) as an Excel
workbook, or as JSON with --json.

Examples:
  privasee export                     # privasee-decisions.xlsx
  privasee export -o ~/decisions.xlsx
  privasee export --json > decisions.json`,
		Args: cobra.NoArgs,
		RunE: runExportCmd,
	}
	cmd.Flags().StringP("output", "o", "", "Output file (default "+defaultExportFile+", or stdout with --json)")
	cmd.Flags().BoolP("json", "j", false, "Write JSON instead of a workbook")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	if output == "" && !asJSON {
		output = defaultExportFile
	}

	return withStore(cmd, func(ctx context.Context, _ *config.Config, st store.Store) error {
		records, err := st.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list decisions: %w", err)
		}

		out := cmd.OutOrStdout()
		if output != "" {
			f, err := createOutputFile(output)
			if err != nil {
				return err
			}
			defer f.Close()
			out = f
		}

		if err := exportDecisions(out, records, asJSON); err != nil {
			return err
		}
		if output != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d decision(s) to %s\n", len(records), output)
		}
		return nil
	})
}

func exportDecisions(w io.Writer, records []model.DecisionRecord, asJSON bool) error {
	if !asJSON {
		return report.DecisionsXLSX(w, records)
	}
	if records == nil {
		records = []model.DecisionRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
