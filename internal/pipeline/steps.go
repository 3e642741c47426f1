package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/privasee/privasee/internal/gate"
	"github.com/privasee/privasee/internal/model"
	"github.com/privasee/privasee/internal/photos"
	"github.com/privasee/privasee/internal/store"
	"github.com/privasee/privasee/internal/telemetry"
)

// Step names recorded in ScanReport.PerformedSteps.
const (
	StepWalk     = "walk"
	StepDedup    = "dedup"
	StepClassify = "classify"
	StepPersist  = "persist"
)

// Walker lists a library. *photos.Walker implements it.
type Walker interface {
	Walk(ctx context.Context, session model.Session) (photos.WalkResult, error)
}

// Gate evaluates candidates. *gate.Gate implements it.
type Gate interface {
	Run(ctx context.Context, items []model.MediaItem) (gate.Result, error)
}

// ReportSaver stores finished reports. store.Store implements it.
type ReportSaver interface {
	SaveScanReport(ctx context.Context, report *model.ScanReport) error
}

// WalkStep fetches image items from the library.
type WalkStep struct {
	walker Walker
}

// NewWalkStep creates a WalkStep.
func NewWalkStep(w Walker) *WalkStep {
	return &WalkStep{walker: w}
}

// Name returns the step name.
func (s *WalkStep) Name() string {
	return StepWalk
}

// Do walks the library. A page failure aborts the scan with no items.
func (s *WalkStep) Do(ctx context.Context, session model.Session, report *model.ScanReport) error {
	result, err := s.walker.Walk(ctx, session)
	if err != nil {
		return fmt.Errorf("walk library: %w", err)
	}
	report.Items = result.Items
	report.PagesFetched = result.Pages
	report.ImagesFetched = len(result.Items)
	return nil
}

// DedupStep removes images that already carry a decision.
type DedupStep struct {
	decisions store.DecisionStore
	logger    *slog.Logger
}

// NewDedupStep creates a DedupStep.
func NewDedupStep(decisions store.DecisionStore, logger *slog.Logger) *DedupStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &DedupStep{decisions: decisions, logger: logger}
}

// Name returns the step name.
func (s *DedupStep) Name() string {
	return StepDedup
}

// Do subtracts decided ids from report.Items, keeping walk order.
// A store read failure aborts the scan.
func (s *DedupStep) Do(ctx context.Context, _ model.Session, report *model.ScanReport) error {
	decided, err := s.decisions.DecidedIDs(ctx)
	if err != nil {
		return fmt.Errorf("read decisions: %w", err)
	}
	items, removed := photos.Exclude(report.Items, decided)
	report.Items = items
	report.AlreadyReviewed = removed
	s.logger.Debug("excluded decided images", "removed", removed, "remaining", len(items))
	return nil
}

// ClassifyStep runs the gate over report.Items.
type ClassifyStep struct {
	gate    Gate
	tracker telemetry.Tracker
}

// NewClassifyStep creates a ClassifyStep. A nil tracker disables analytics.
func NewClassifyStep(g Gate, tracker telemetry.Tracker) *ClassifyStep {
	if tracker == nil {
		tracker = telemetry.Noop{}
	}
	return &ClassifyStep{gate: g, tracker: tracker}
}

// Name returns the step name.
func (s *ClassifyStep) Name() string {
	return StepClassify
}

// Do evaluates candidates and stores the flagged items in the report.
// If the scan is canceled mid-way, nothing is recorded.
func (s *ClassifyStep) Do(ctx context.Context, _ model.Session, report *model.ScanReport) error {
	result, err := s.gate.Run(ctx, report.Items)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	report.CandidatesScanned = result.Scanned
	report.Skips = append(report.Skips, result.Skips...)
	if result.Flagged != nil {
		report.Flagged = result.Flagged
	}
	s.tracker.Track(ctx, telemetry.EventScanCompleted, map[string]any{
		"images":  report.ImagesFetched,
		"scanned": result.Scanned,
		"flagged": len(result.Flagged),
	})
	return nil
}

// PersistStep stores the report in scan history.
type PersistStep struct {
	saver ReportSaver
}

// NewPersistStep creates a PersistStep.
func NewPersistStep(saver ReportSaver) *PersistStep {
	return &PersistStep{saver: saver}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return StepPersist
}

// Do saves the report.
func (s *PersistStep) Do(ctx context.Context, _ model.Session, report *model.ScanReport) error {
	if err := s.saver.SaveScanReport(ctx, report); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// Deps are the collaborators of a standard scan.
type Deps struct {
	Walker    Walker
	Decisions store.DecisionStore
	Gate      Gate
	Tracker   telemetry.Tracker

	// Saver is optional; when nil the report is not persisted.
	Saver ReportSaver
}

// NewScan builds the standard walk, dedup, classify (and persist) pipeline.
func NewScan(deps Deps, opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddSteps(
		NewWalkStep(deps.Walker),
		NewDedupStep(deps.Decisions, p.logger),
		NewClassifyStep(deps.Gate, deps.Tracker),
	)
	if deps.Saver != nil {
		p.AddStep(NewPersistStep(deps.Saver))
	}
	return p
}
