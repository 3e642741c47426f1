package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for privasee.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "privasee",
		Short: "Find and redact personal information in your photo library",
		Long: `privasee scans a Google Photos library for images whose text contains
personal information (ID numbers, card numbers, addresses, ...).

Each image is read with Cloud Vision and classified with Gemini. Flagged
images are kept for review: confirm one to download a copy with the
sensitive text blurred, or dismiss it. Decisions are remembered, so later
scans skip images you already reviewed.

Secrets are read from the environment (or a .env file), never from the
configuration file:
  PRIVASEE_ACCESS_TOKEN   OAuth access token for the photo library
  PRIVASEE_ACCOUNTS       extra accounts for batch scans: label=token,...
  VISION_API_KEY          Cloud Vision API key
  GEMINI_API_KEY          Gemini API key`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .privasee in current or home directory)")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewReviewCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewExportCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
