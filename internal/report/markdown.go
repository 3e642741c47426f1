package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/privasee/privasee/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScanReport) (int, error) {
	return w.WriteSummary(model.NewSummary(report))
}

// WriteSummary outputs the summary in Markdown format.
func (w *MarkdownWriter) WriteSummary(s *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, s)
	w.writeSeverity(md, s)
	w.writeFindings(md, s)
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by privasee*")

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *model.Summary) {
	md.H1("privasee Scan Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Account", s.Account},
			{"Scan ID", "`" + s.ScanID + "`"},
			{"Scan Date", s.DateScanned.Format("2006-01-02 15:04:05 MST")},
			{"Images Fetched", strconv.Itoa(s.ImagesFetched)},
			{"Already Reviewed", strconv.Itoa(s.AlreadyReviewed)},
			{"Candidates Scanned", strconv.Itoa(s.CandidatesScanned)},
			{"Status", statusText(s)},
		},
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSeverity(md *markdown.Markdown, s *model.Summary) {
	md.H2("Severity Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(s.CriticalCount)},
			{"🟠 High", strconv.Itoa(s.HighCount)},
			{"🟡 Medium", strconv.Itoa(s.MediumCount)},
			{"🔵 Low", strconv.Itoa(s.LowCount)},
			{"⚪ Info", strconv.Itoa(s.InfoCount)},
			{"**Total**", "**" + strconv.Itoa(s.TotalFindings()) + "**"},
		},
	})
	md.PlainText("")

	if s.HasFindings() {
		w.writePieChart(md, s)
	}

	switch {
	case s.CriticalCount > 0:
		md.Cautionf("%d image(s) expose identifiers usable for fraud. Review them first.", s.CriticalCount)
	case s.HighCount > 0:
		md.Warningf("%d image(s) reveal where someone lives or works.", s.HighCount)
	case s.TotalFindings() > 0:
		md.Importantf("%d image(s) contain personal information.", s.TotalFindings())
	default:
		md.Tip("No sensitive text found in the scanned images.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Flagged Images by Category"),
		piechart.WithShowData(true),
	)

	counts := make(map[model.Category]uint64)
	for _, f := range s.Findings {
		counts[f.Category]++
	}
	for _, c := range model.Categories {
		if n := counts[c]; n > 0 {
			chart.LabelAndIntValue(c.String(), n)
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, s *model.Summary) {
	md.H2("Flagged Images")
	md.PlainText("")

	if !s.HasFindings() {
		md.PlainText("No images were flagged.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(s.Findings))
	for _, sev := range severityOrder {
		for _, f := range s.FindingsBySeverity(sev) {
			name := f.Filename
			if name == "" {
				name = "-"
			}
			rows = append(rows, []string{
				"`" + truncateString(f.ImageID, 32) + "`",
				truncateString(name, 40),
				f.Category.String(),
				f.SeverityText,
				truncateString(f.Recommendation, 60),
			})
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Image", "File", "Category", "Severity", "Recommendation"},
		Rows:   rows,
	})
	md.PlainText("")
}

// truncateString truncates a string to maxLen bytes with an ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
