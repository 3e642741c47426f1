package telemetry

import (
	"errors"
	"log/slog"
	"time"
)

// ErrMissingField is returned when a frontend event lacks its source or name.
var ErrMissingField = errors.New("missing source or event")

// FrontendEvent is an event reported by the browser client.
type FrontendEvent struct {
	Source    string         `json:"source"`
	Event     string         `json:"event"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp,omitzero"`
}

// Validate checks the required fields.
func (e FrontendEvent) Validate() error {
	if e.Source == "" || e.Event == "" {
		return ErrMissingField
	}
	return nil
}

// LogFrontendEvent writes a validated frontend event to logger.
func LogFrontendEvent(logger *slog.Logger, e FrontendEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	attrs := make([]any, 0, len(e.Data))
	for k, v := range e.Data {
		attrs = append(attrs, slog.Any(k, v))
	}
	logger.Info("frontend event",
		"source", e.Source,
		"event", e.Event,
		"timestamp", e.Timestamp.Format(time.RFC3339),
		slog.Group("data", attrs...),
	)
	return nil
}
