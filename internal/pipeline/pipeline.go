package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/privasee/privasee/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, with each step receiving the accumulated
// report from previous steps.
type Step interface {
	// Do executes the step for session, recording its results in report.
	// A returned error aborts the scan unless the pipeline continues on error.
	Do(ctx context.Context, session model.Session, report *model.ScanReport) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
type Pipeline struct {
	steps   []Step
	logger  *slog.Logger
	timeout time.Duration
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithTimeout bounds each Execute call. Zero means no bound beyond ctx.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.timeout = d
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in order for session.
//
// Cancellation is checked before each step; a canceled scan is marked
// TimedOut. The first step error is recorded in the report and returned;
// later steps do not run.
func (p *Pipeline) Execute(ctx context.Context, session model.Session, report *model.ScanReport) error {
	defer func() {
		report.FinishedAt = time.Now()
	}()

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			report.TimedOut = true
			report.Error = ctx.Err()
			report.ErrorMessage = ctx.Err().Error()
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"scan_id", report.ID,
		)

		if err := step.Do(ctx, session, report); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"scan_id", report.ID,
				"error", err,
			)
			report.Error = err
			report.ErrorMessage = err.Error()
			if ctx.Err() != nil {
				report.TimedOut = true
			}
			return err
		}
		p.logger.Debug("step completed",
			"step", step.Name(),
			"scan_id", report.ID,
		)

		report.PerformedSteps = append(report.PerformedSteps, step.Name())
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
