package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/privasee/privasee/internal/model"
)

// SimpleWriter outputs human-readable text reports for the terminal.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose adds impact descriptions and gate statistics.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.ScanReport) (int, error) {
	return w.WriteSummary(model.NewSummary(report))
}

// WriteSummary outputs the summary in human-readable format.
func (w *SimpleWriter) WriteSummary(s *model.Summary) (int, error) {
	var sb strings.Builder
	w.writeHeader(&sb, s)
	w.writeSummary(&sb, s)
	w.writeFindings(&sb, s)
	w.writeFooter(&sb)
	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, s *model.Summary) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         PRIVASEE SCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Account:          %s\n", s.Account)
	fmt.Fprintf(sb, "Scan ID:          %s\n", s.ScanID)
	fmt.Fprintf(sb, "Scan Date:        %s\n", s.DateScanned.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Images Fetched:   %d\n", s.ImagesFetched)
	fmt.Fprintf(sb, "Already Reviewed: %d\n", s.AlreadyReviewed)
	fmt.Fprintf(sb, "Status:           %s\n", statusText(s))
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, s *model.Summary) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SEVERITY SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "  CRITICAL: %d\n", s.CriticalCount)
	fmt.Fprintf(sb, "  HIGH:     %d\n", s.HighCount)
	fmt.Fprintf(sb, "  MEDIUM:   %d\n", s.MediumCount)
	fmt.Fprintf(sb, "  LOW:      %d\n", s.LowCount)
	fmt.Fprintf(sb, "  INFO:     %d\n", s.InfoCount)
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:    %d flagged image(s)\n", s.TotalFindings())
	if w.verbose {
		fmt.Fprintf(sb, "  Scanned:  %d candidate(s), %d without text, %d failed\n",
			s.CandidatesScanned, s.NoText, s.Failed)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFindings(sb *strings.Builder, s *model.Summary) {
	if !s.HasFindings() && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FLAGGED IMAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, sev := range severityOrder {
		findings := s.FindingsBySeverity(sev)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(sb, "[%s] %s\n", severityIndicator(sev), sev.String())
		if len(findings) == 0 {
			sb.WriteString("  No findings\n\n")
			continue
		}
		for _, f := range findings {
			fmt.Fprintf(sb, "  * %s (%s)\n", f.ImageID, f.Category)
			if f.Filename != "" {
				fmt.Fprintf(sb, "    File: %s\n", f.Filename)
			}
			if w.verbose && f.Impact != "" {
				fmt.Fprintf(sb, "    Impact: %s\n", f.Impact)
			}
			if f.Recommendation != "" {
				fmt.Fprintf(sb, "    Action: %s\n", f.Recommendation)
			}
		}
		sb.WriteString("\n")
	}
}

func severityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityHigh:
		return "!!"
	case model.SeverityMedium:
		return "!"
	case model.SeverityLow:
		return "-"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Review flagged images with: privasee review list\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
