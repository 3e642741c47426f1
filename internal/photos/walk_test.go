package photos

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/privasee/privasee/internal/model"
)

// fakeLister serves pre-built pages keyed by page token.
type fakeLister struct {
	pages []Page
	fail  map[int]error
	calls int
}

func (f *fakeLister) ListPage(_ context.Context, _ model.Session, pageToken string) (Page, error) {
	idx := 0
	if pageToken != "" {
		if _, err := fmt.Sscanf(pageToken, "p%d", &idx); err != nil {
			return Page{}, err
		}
	}
	f.calls++
	if err := f.fail[idx]; err != nil {
		return Page{}, err
	}
	return f.pages[idx], nil
}

func buildPages(n, size int, mime func(page, i int) string) []Page {
	pages := make([]Page, n)
	for p := range n {
		for i := range size {
			pages[p].Items = append(pages[p].Items, model.MediaItem{
				ID:       fmt.Sprintf("p%d-i%d", p, i),
				MimeType: mime(p, i),
			})
		}
		if p < n-1 {
			pages[p].NextPageToken = fmt.Sprintf("p%d", p+1)
		}
	}
	return pages
}

var session = model.Session{AccessToken: "token"}

func allImages(int, int) string { return "image/jpeg" }

func TestWalkStopsAfterPageThatReachesCap(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{pages: buildPages(5, 200, allImages)}
	got, err := NewWalker(lister, WithMaxItems(500)).Walk(context.Background(), session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lister.calls != 3 {
		t.Errorf("expected 3 page requests, got %d", lister.calls)
	}
	if len(got.Items) != 600 {
		t.Errorf("expected the last page to overshoot to 600 items, got %d", len(got.Items))
	}
	if got.Pages != 3 || got.Listed != 600 {
		t.Errorf("unexpected stats: pages=%d listed=%d", got.Pages, got.Listed)
	}
}

func TestWalkFiltersNonImages(t *testing.T) {
	t.Parallel()

	mime := func(_, i int) string {
		if i%2 == 0 {
			return "video/mp4"
		}
		return "image/png"
	}
	lister := &fakeLister{pages: buildPages(2, 10, mime)}

	got, err := NewWalker(lister).Walk(context.Background(), session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Items) != 10 {
		t.Fatalf("expected 10 images, got %d", len(got.Items))
	}
	for _, item := range got.Items {
		if !item.IsImage() {
			t.Errorf("non-image item %s leaked through", item.ID)
		}
	}
	if got.Items[0].ID != "p0-i1" || got.Items[9].ID != "p1-i9" {
		t.Errorf("listing order not preserved: first=%s last=%s", got.Items[0].ID, got.Items[9].ID)
	}
}

func TestWalkStopsWhenCursorExhausted(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{pages: buildPages(2, 3, allImages)}
	got, err := NewWalker(lister).Walk(context.Background(), session)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lister.calls != 2 || len(got.Items) != 6 {
		t.Errorf("expected 2 calls and 6 items, got %d and %d", lister.calls, len(got.Items))
	}
}

func TestWalkPageErrorAbortsWalk(t *testing.T) {
	t.Parallel()

	boom := errors.New("503 from provider")
	lister := &fakeLister{
		pages: buildPages(3, 10, allImages),
		fail:  map[int]error{1: boom},
	}

	got, err := NewWalker(lister).Walk(context.Background(), session)
	if !errors.Is(err, boom) {
		t.Fatalf("expected page error, got %v", err)
	}
	if len(got.Items) != 0 {
		t.Errorf("expected no partial result, got %d items", len(got.Items))
	}
	if lister.calls != 2 {
		t.Errorf("expected walk to stop at failing page, got %d calls", lister.calls)
	}
}

func TestWalkWithoutCredentialMakesNoCalls(t *testing.T) {
	t.Parallel()

	lister := &fakeLister{pages: buildPages(1, 1, allImages)}
	_, err := NewWalker(lister).Walk(context.Background(), model.Session{})
	if !errors.Is(err, ErrNoCredential) {
		t.Fatalf("expected ErrNoCredential, got %v", err)
	}
	if lister.calls != 0 {
		t.Errorf("expected no page requests, got %d", lister.calls)
	}
}

func TestWalkCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	lister := &fakeLister{pages: buildPages(1, 1, allImages)}
	if _, err := NewWalker(lister).Walk(ctx, session); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExclude(t *testing.T) {
	t.Parallel()

	items := []model.MediaItem{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}

	t.Run("removes decided ids in order", func(t *testing.T) {
		t.Parallel()
		kept, removed := Exclude(items, map[string]struct{}{"b": {}, "d": {}, "zzz": {}})
		if removed != 2 || len(kept) != 2 || kept[0].ID != "a" || kept[1].ID != "c" {
			t.Errorf("unexpected result %v removed=%d", kept, removed)
		}
	})

	t.Run("empty set keeps everything", func(t *testing.T) {
		t.Parallel()
		kept, removed := Exclude(items, nil)
		if removed != 0 || len(kept) != 4 {
			t.Errorf("unexpected result %v removed=%d", kept, removed)
		}
	})
}
