package gate

import (
	"context"
	"log/slog"
	"strings"

	"github.com/privasee/privasee/internal/classifier"
	"github.com/privasee/privasee/internal/model"
	"github.com/privasee/privasee/internal/telemetry"
	"github.com/privasee/privasee/internal/vision"
)

// DefaultMaxFindings is the number of sensitive items after which the gate stops.
const DefaultMaxFindings = 20

// Outcome is the result of evaluating one candidate.
// Exactly one of Flagged and Skip is set.
type Outcome struct {
	Flagged *model.FlaggedItem
	Skip    *model.Skip
}

// Result is the fold of all outcomes of a run.
type Result struct {
	// Flagged holds retained items in input order.
	Flagged []model.FlaggedItem

	// Skips holds candidates that were evaluated but not retained.
	Skips []model.Skip

	// Scanned is the number of candidates evaluated.
	Scanned int
}

// Gate filters candidates down to sensitive findings.
type Gate struct {
	extractor   vision.Extractor
	classifier  classifier.Classifier
	maxFindings int
	tracker     telemetry.Tracker
	logger      *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithMaxFindings sets the findings cap.
func WithMaxFindings(n int) Option {
	return func(g *Gate) {
		if n > 0 {
			g.maxFindings = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithTracker sets the analytics tracker.
func WithTracker(t telemetry.Tracker) Option {
	return func(g *Gate) {
		if t != nil {
			g.tracker = t
		}
	}
}

// New creates a Gate.
func New(extractor vision.Extractor, c classifier.Classifier, opts ...Option) *Gate {
	g := &Gate{
		extractor:   extractor,
		classifier:  c,
		maxFindings: DefaultMaxFindings,
		tracker:     telemetry.Noop{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Run evaluates items in order until they are exhausted or the cap is reached.
// If ctx ends first, Run returns ctx's error and no result.
func (g *Gate) Run(ctx context.Context, items []model.MediaItem) (Result, error) {
	var result Result
	for _, item := range items {
		if len(result.Flagged) >= g.maxFindings {
			g.logger.Debug("findings cap reached", "cap", g.maxFindings, "remaining", len(items)-result.Scanned)
			break
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		outcome := g.Evaluate(ctx, item)
		result.Scanned++
		switch {
		case outcome.Flagged != nil:
			result.Flagged = append(result.Flagged, *outcome.Flagged)
		case outcome.Skip != nil:
			result.Skips = append(result.Skips, *outcome.Skip)
		}
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return result, nil
}

// Evaluate runs extraction and classification for one item.
func (g *Gate) Evaluate(ctx context.Context, item model.MediaItem) Outcome {
	extraction, err := g.extractor.DetectText(ctx, item.BaseURL)
	if err != nil {
		g.logger.Warn("text extraction failed", "image_id", item.ID, "error", err)
		return skip(item, model.SkipExtractFailed, err.Error())
	}
	g.tracker.Track(ctx, telemetry.EventOCRCompleted, map[string]any{
		"char_count":     len(extraction.FullText),
		"fragment_count": len(extraction.Fragments),
	})

	text := strings.TrimSpace(extraction.FullText)
	if text == "" {
		return skip(item, model.SkipNoText, "")
	}

	c, err := g.classifier.Classify(ctx, text)
	if err != nil {
		g.logger.Warn("classification failed", "image_id", item.ID, "error", err)
		return skip(item, model.SkipClassifyFailed, err.Error())
	}
	g.tracker.Track(ctx, telemetry.EventClassified, map[string]any{"type": c.Category.String()})

	if !c.IsSensitive() {
		return skip(item, model.SkipNotSensitive, "")
	}

	g.logger.Debug("sensitive image found", "image_id", item.ID, "category", c.Category.String())
	return Outcome{Flagged: &model.FlaggedItem{Candidate: model.Candidate{
		Item:           item,
		FullText:       extraction.FullText,
		Fragments:      extraction.Fragments,
		Classification: c,
	}}}
}

func skip(item model.MediaItem, reason model.SkipReason, detail string) Outcome {
	return Outcome{Skip: &model.Skip{ImageID: item.ID, Reason: reason, Detail: detail}}
}
