package photos

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/privasee/privasee/internal/model"
)

// DefaultMaxItems is the walk cap.
const DefaultMaxItems = 500

// Walker accumulates image items across library pages.
type Walker struct {
	lister   Lister
	maxItems int
	logger   *slog.Logger
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithMaxItems sets the walk cap.
func WithMaxItems(n int) WalkerOption {
	return func(w *Walker) {
		if n > 0 {
			w.maxItems = n
		}
	}
}

// WithWalkLogger sets the logger.
func WithWalkLogger(logger *slog.Logger) WalkerOption {
	return func(w *Walker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWalker creates a Walker over lister.
func NewWalker(lister Lister, opts ...WalkerOption) *Walker {
	w := &Walker{
		lister:   lister,
		maxItems: DefaultMaxItems,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WalkResult is the outcome of a walk.
type WalkResult struct {
	// Items are the image items in listing order.
	Items []model.MediaItem

	// Pages is the number of pages fetched.
	Pages int

	// Listed is the number of items listed before MIME filtering.
	Listed int
}

// Walk lists pages until the cursor is exhausted or at least maxItems images
// are accumulated. A page error aborts the walk and no items are returned.
func (w *Walker) Walk(ctx context.Context, session model.Session) (WalkResult, error) {
	if !session.HasCredential() {
		w.logger.Warn("walk skipped: no credential")
		return WalkResult{}, ErrNoCredential
	}

	var (
		result    WalkResult
		pageToken string
	)
	for {
		if err := ctx.Err(); err != nil {
			return WalkResult{}, err
		}

		page, err := w.lister.ListPage(ctx, session, pageToken)
		if err != nil {
			w.logger.Error("page fetch failed", "page", result.Pages+1, "error", err)
			return WalkResult{}, fmt.Errorf("page %d: %w", result.Pages+1, err)
		}
		result.Pages++
		result.Listed += len(page.Items)

		for _, item := range page.Items {
			if item.IsImage() {
				result.Items = append(result.Items, item)
			}
		}
		w.logger.Debug("page fetched",
			"page", result.Pages,
			"listed", len(page.Items),
			"images_total", len(result.Items),
		)

		pageToken = page.NextPageToken
		if pageToken == "" || len(result.Items) >= w.maxItems {
			break
		}
	}
	return result, nil
}

// Exclude returns the items whose IDs are not in decided, preserving order.
// The second return value is the number of removed items.
func Exclude(items []model.MediaItem, decided map[string]struct{}) ([]model.MediaItem, int) {
	if len(decided) == 0 {
		return items, 0
	}
	kept := make([]model.MediaItem, 0, len(items))
	for _, item := range items {
		if _, ok := decided[item.ID]; ok {
			continue
		}
		kept = append(kept, item)
	}
	return kept, len(items) - len(kept)
}
