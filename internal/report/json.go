package report

import (
	"encoding/json"
	"io"

	"github.com/privasee/privasee/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter
	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary of report. The raw report is not written
// because it carries the extracted text.
func (w *JSONWriter) Write(report *model.ScanReport) (int, error) {
	return w.writeJSON(model.NewSummary(report))
}

// WriteSummary outputs the summary in JSON format.
func (w *JSONWriter) WriteSummary(s *model.Summary) (int, error) {
	return w.writeJSON(s)
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')
	return w.output.Write(data)
}

// JSONReport wraps a summary with the version that produced it.
type JSONReport struct {
	Version string         `json:"version"`
	Summary *model.Summary `json:"summary"`
}

// FullJSONWriter outputs summaries wrapped with version metadata.
type FullJSONWriter struct {
	*JSONWriter
	version string
}

// NewFullJSONWriter creates a writer for versioned summaries.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the wrapped summary of report.
func (w *FullJSONWriter) Write(report *model.ScanReport) (int, error) {
	return w.WriteSummary(model.NewSummary(report))
}

// WriteSummary outputs the wrapped summary.
func (w *FullJSONWriter) WriteSummary(s *model.Summary) (int, error) {
	return w.writeJSON(&JSONReport{Version: w.version, Summary: s})
}
