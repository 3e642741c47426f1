package telemetry

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/privasee/privasee/internal/transport"
)

// Event names emitted by privasee.
const (
	EventOCRCompleted       = "ocr_completed"
	EventClassified         = "gemini_classified"
	EventImageMarked        = "image_marked"
	EventDownloadedBlurred  = "downloaded_blurred_image"
	EventMarkedNotSensitive = "marked_not_sensitive"
	EventScanCompleted      = "scan_completed"
)

// DefaultMeasurementEndpoint is the GA4 Measurement Protocol collection URL.
const DefaultMeasurementEndpoint = "https://www.google-analytics.com/mp/collect"

// Tracker records a named event with parameters.
type Tracker interface {
	Track(ctx context.Context, name string, params map[string]any)
}

// Noop is a Tracker that does nothing.
type Noop struct{}

// Track implements Tracker.
func (Noop) Track(context.Context, string, map[string]any) {}

// GA4 sends events to the GA4 Measurement Protocol.
type GA4 struct {
	api           *transport.Client
	endpoint      string
	measurementID string
	apiSecret     string
	clientID      string
	logger        *slog.Logger
}

// GA4Option configures a GA4 tracker.
type GA4Option func(*GA4)

// WithEndpoint overrides the collection endpoint.
func WithEndpoint(u string) GA4Option {
	return func(g *GA4) {
		if u != "" {
			g.endpoint = strings.TrimRight(u, "/")
		}
	}
}

// WithClientID fixes the GA client id. By default a random id is generated per process.
func WithClientID(id string) GA4Option {
	return func(g *GA4) {
		if id != "" {
			g.clientID = id
		}
	}
}

// New returns a GA4 tracker, or Noop when measurementID or apiSecret is empty.
func New(measurementID, apiSecret string, logger *slog.Logger, opts ...GA4Option) Tracker {
	if measurementID == "" || apiSecret == "" {
		return Noop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	g := &GA4{
		api: transport.New(
			transport.WithHTTPClient(&http.Client{Timeout: 5 * time.Second}),
			transport.WithLogger(logger),
			transport.WithLogPrefix("ga4"),
		),
		endpoint:      DefaultMeasurementEndpoint,
		measurementID: measurementID,
		apiSecret:     apiSecret,
		clientID:      uuid.NewString(),
		logger:        logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type payload struct {
	ClientID string  `json:"client_id"`
	Events   []event `json:"events"`
}

type event struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

// Track implements Tracker. Failures are logged at Warn level.
func (g *GA4) Track(ctx context.Context, name string, params map[string]any) {
	q := url.Values{}
	q.Set("measurement_id", g.measurementID)
	q.Set("api_secret", g.apiSecret)

	body := payload{ClientID: g.clientID, Events: []event{{Name: name, Params: params}}}
	if err := g.api.PostJSON(ctx, g.endpoint+"?"+q.Encode(), body, nil, nil); err != nil {
		g.logger.Warn("analytics event dropped", "event", name, "error", err)
	}
}
