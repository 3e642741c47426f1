package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/privasee/privasee/internal/model"
)

// tokenStep fails for sessions whose token is "bad".
type tokenStep struct {
	running atomic.Int32
	peak    atomic.Int32
}

func (s *tokenStep) Do(_ context.Context, session model.Session, report *model.ScanReport) error {
	n := s.running.Add(1)
	defer s.running.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if session.AccessToken == "bad" {
		return errors.New("bad token")
	}
	report.ImagesFetched = len(session.AccessToken)
	return nil
}

func (s *tokenStep) Name() string {
	return "token"
}

func TestProcessBatch(t *testing.T) {
	t.Parallel()

	step := &tokenStep{}
	bp := NewBatchProcessor(func() *Pipeline {
		p := New(WithLogger(quietLogger()))
		p.AddStep(step)
		return p
	}, WithConcurrency(2), WithBatchLogger(quietLogger()))

	sessions := []model.Session{
		{AccessToken: "a", UserName: "alice"},
		{AccessToken: "bad", UserName: "bob"},
		{AccessToken: "ccc"},
	}
	reports, err := bp.ProcessBatch(context.Background(), sessions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	if reports[0].Account != "alice" || reports[0].ImagesFetched != 1 {
		t.Errorf("report 0 = %+v", reports[0])
	}
	if reports[1].ErrorMessage != "bad token" {
		t.Errorf("report 1 error = %q", reports[1].ErrorMessage)
	}
	if reports[2].Account != model.DefaultUserName || reports[2].ImagesFetched != 3 {
		t.Errorf("report 2 = %+v", reports[2])
	}
	if reports[0].ID == reports[2].ID {
		t.Error("report ids should be unique")
	}
	if step.peak.Load() > 2 {
		t.Errorf("concurrency limit exceeded: %d", step.peak.Load())
	}
}

func TestProcessBatchCanceled(t *testing.T) {
	t.Parallel()

	bp := NewBatchProcessor(func() *Pipeline { return New(WithLogger(quietLogger())) }, WithBatchLogger(quietLogger()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := bp.ProcessBatch(ctx, []model.Session{{AccessToken: "a"}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
