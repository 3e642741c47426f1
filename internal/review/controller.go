package review

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/privasee/privasee/internal/metadata"
	"github.com/privasee/privasee/internal/model"
	"github.com/privasee/privasee/internal/redact"
	"github.com/privasee/privasee/internal/store"
	"github.com/privasee/privasee/internal/telemetry"
)

// Downloader fetches the bytes of a library image. *photos.Client implements it.
type Downloader interface {
	Download(ctx context.Context, item model.MediaItem) ([]byte, error)
}

// Accepted is the outcome of a confirmed item.
type Accepted struct {
	Artifact redact.Artifact

	// Metadata lists disclosing EXIF tags of the source image. They survive
	// only when the artifact is the unmodified source.
	Metadata metadata.Report
}

// Controller owns the pending set of one scan.
type Controller struct {
	scanID     string
	decisions  store.DecisionStore
	downloader Downloader
	redactor   *redact.Redactor
	tracker    telemetry.Tracker
	logger     *slog.Logger
	now        func() time.Time

	mu       sync.Mutex
	pending  []model.FlaggedItem
	inFlight map[string]struct{}
	selected string
}

// Option configures a Controller.
type Option func(*Controller)

// WithRedactor sets the redactor.
func WithRedactor(r *redact.Redactor) Option {
	return func(c *Controller) {
		if r != nil {
			c.redactor = r
		}
	}
}

// WithTracker sets the analytics tracker.
func WithTracker(t telemetry.Tracker) Option {
	return func(c *Controller) {
		if t != nil {
			c.tracker = t
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock sets the time source used for decision timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a controller whose pending set is flagged, in order.
func New(scanID string, flagged []model.FlaggedItem, decisions store.DecisionStore, downloader Downloader, opts ...Option) *Controller {
	c := &Controller{
		scanID:     scanID,
		decisions:  decisions,
		downloader: downloader,
		redactor:   redact.NewRedactor(),
		tracker:    telemetry.Noop{},
		logger:     slog.Default(),
		now:        time.Now,
		pending:    slices.Clone(flagged),
		inFlight:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ScanID returns the id of the scan the controller was built from.
func (c *Controller) ScanID() string {
	return c.scanID
}

// Pending returns a copy of the pending items in scan order.
func (c *Controller) Pending() []model.FlaggedItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.pending)
}

// Len returns the number of pending items.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Lookup returns the pending item with id.
func (c *Controller) Lookup(id string) (model.FlaggedItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		return model.FlaggedItem{}, false
	}
	return c.pending[i], true
}

// Select marks id as the item open for review.
func (c *Controller) Select(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexLocked(id) < 0 {
		return fmt.Errorf("%w: %s", ErrNotPending, id)
	}
	c.selected = id
	return nil
}

// ClearSelection closes the open item.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = ""
}

// Selected returns the open item, if any.
func (c *Controller) Selected() (model.FlaggedItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(c.selected)
	if i < 0 {
		return model.FlaggedItem{}, false
	}
	return c.pending[i], true
}

// Accept confirms id as sensitive: the image is redacted, a "Sensitive"
// decision is stored and the item leaves the pending set.
//
// If fetching or redacting fails nothing is stored. If storing fails the
// artifact is still returned together with an ErrPersist error and the item
// stays pending.
func (c *Controller) Accept(ctx context.Context, id string) (Accepted, error) {
	item, err := c.begin(id)
	if err != nil {
		return Accepted{}, err
	}
	defer c.end(id)

	src, err := c.downloader.Download(ctx, item.Item)
	if err != nil {
		c.logger.Warn("image download failed", "image_id", id, "error", err)
		return Accepted{}, fmt.Errorf("%w: %w", ErrRedact, err)
	}
	artifact, err := c.redactor.Redact(item, src)
	if err != nil {
		c.logger.Warn("redaction failed", "image_id", id, "error", err)
		return Accepted{}, fmt.Errorf("%w: %w", ErrRedact, err)
	}

	result := Accepted{Artifact: artifact}
	if !artifact.Redacted {
		if report, err := metadata.Inspect(src); err != nil {
			c.logger.Debug("exif inspection failed", "image_id", id, "error", err)
		} else {
			result.Metadata = report
		}
	}
	c.tracker.Track(ctx, telemetry.EventDownloadedBlurred, map[string]any{"image_id": id})

	if err := c.persist(ctx, id, model.StatusSensitive); err != nil {
		return result, err
	}
	c.tracker.Track(ctx, telemetry.EventImageMarked, map[string]any{"image_id": id})
	return result, nil
}

// Dismiss marks id as not sensitive and removes it from the pending set.
// On a storage failure the item stays pending.
func (c *Controller) Dismiss(ctx context.Context, id string) error {
	if _, err := c.begin(id); err != nil {
		return err
	}
	defer c.end(id)

	c.tracker.Track(ctx, telemetry.EventMarkedNotSensitive, map[string]any{"image_id": id})
	return c.persist(ctx, id, model.StatusNotSensitive)
}

// persist stores the decision and, only on success, removes the item.
func (c *Controller) persist(ctx context.Context, id string, status model.Status) error {
	rec := model.DecisionRecord{ImageID: id, Status: status, UpdatedAt: c.now()}
	if err := c.decisions.Upsert(ctx, rec); err != nil {
		c.logger.Error("failed to store decision", "image_id", id, "status", string(status), "error", err)
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		c.pending = slices.Delete(c.pending, i, i+1)
	}
	if c.selected == id {
		c.selected = ""
	}
	c.logger.Info("decision stored", "image_id", id, "status", string(status))
	return nil
}

// begin reserves id for a transition.
func (c *Controller) begin(id string) (model.FlaggedItem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		return model.FlaggedItem{}, fmt.Errorf("%w: %s", ErrNotPending, id)
	}
	if _, busy := c.inFlight[id]; busy {
		return model.FlaggedItem{}, fmt.Errorf("%w: %s", ErrInFlight, id)
	}
	c.inFlight[id] = struct{}{}
	return c.pending[i], nil
}

func (c *Controller) end(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, id)
}

func (c *Controller) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(c.pending, func(f model.FlaggedItem) bool { return f.ID() == id })
}
