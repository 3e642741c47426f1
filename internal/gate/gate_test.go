package gate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/privasee/privasee/internal/model"
	"github.com/privasee/privasee/internal/vision"
)

// fakeExtractor returns the text registered for a URL.
type fakeExtractor struct {
	texts map[string]string
	errs  map[string]error
	calls []string
}

func (f *fakeExtractor) DetectText(_ context.Context, imageURL string) (vision.Extraction, error) {
	f.calls = append(f.calls, imageURL)
	if err := f.errs[imageURL]; err != nil {
		return vision.Extraction{}, err
	}
	text := f.texts[imageURL]
	return vision.Extraction{
		FullText:  text,
		Fragments: []model.TextFragment{{Text: text, Vertices: []model.Vertex{{X: 1, Y: 1}}}},
	}, nil
}

// fakeClassifier returns the classification registered for a text.
type fakeClassifier struct {
	results map[string]model.Classification
	errs    map[string]error
	calls   []string
	onCall  func(n int)
}

func (f *fakeClassifier) Classify(_ context.Context, text string) (model.Classification, error) {
	f.calls = append(f.calls, text)
	if f.onCall != nil {
		f.onCall(len(f.calls))
	}
	if err := f.errs[text]; err != nil {
		return model.Classification{}, err
	}
	if c, ok := f.results[text]; ok {
		return c, nil
	}
	return model.Classification{Category: model.CategoryNotSensitive}, nil
}

func items(n int) []model.MediaItem {
	out := make([]model.MediaItem, n)
	for i := range out {
		out[i] = model.MediaItem{ID: fmt.Sprintf("img-%d", i), BaseURL: fmt.Sprintf("url-%d", i), MimeType: "image/jpeg"}
	}
	return out
}

func sensitive(value string) model.Classification {
	return model.Classification{Category: model.CategoryPhoneNumber, Value: value}
}

func TestRunStopsAtCap(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{texts: map[string]string{}}
	cls := &fakeClassifier{results: map[string]model.Classification{}}
	for i := range 30 {
		text := fmt.Sprintf("text-%d", i)
		ext.texts[fmt.Sprintf("url-%d", i)] = text
		cls.results[text] = sensitive(fmt.Sprintf("555-%04d", i))
	}

	got, err := New(ext, cls).Run(context.Background(), items(30))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Flagged) != 20 {
		t.Errorf("expected 20 flagged, got %d", len(got.Flagged))
	}
	if len(cls.calls) != 20 || len(ext.calls) != 20 {
		t.Errorf("expected early exit after 20 calls, got extract=%d classify=%d", len(ext.calls), len(cls.calls))
	}
	for i, f := range got.Flagged {
		if f.Item.ID != fmt.Sprintf("img-%d", i) {
			t.Fatalf("order not preserved at %d: %s", i, f.Item.ID)
		}
	}
}

func TestRunNotSensitiveDoesNotCount(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{texts: map[string]string{
		"url-0": "a", "url-1": "b", "url-2": "c", "url-3": "d", "url-4": "e",
	}}
	cls := &fakeClassifier{results: map[string]model.Classification{
		"a": {Category: model.CategoryNotSensitive, Value: ""},
		"b": sensitive("1"),
		"c": {Category: model.CategoryName, Value: "   "},
		"d": sensitive("2"),
		"e": sensitive("3"),
	}}

	got, err := New(ext, cls, WithMaxFindings(2)).Run(context.Background(), items(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Flagged) != 2 || got.Flagged[0].Item.ID != "img-1" || got.Flagged[1].Item.ID != "img-3" {
		t.Fatalf("unexpected flagged %+v", got.Flagged)
	}
	if len(ext.calls) != 4 {
		t.Errorf("expected the fifth candidate never to be queried, got %d extract calls", len(ext.calls))
	}
	if got.Scanned != 4 || len(got.Skips) != 2 {
		t.Errorf("expected 4 scanned and 2 skips, got %d and %d", got.Scanned, len(got.Skips))
	}
	for _, s := range got.Skips {
		if s.Reason != model.SkipNotSensitive {
			t.Errorf("unexpected skip reason %q", s.Reason)
		}
	}
}

func TestRunEmptyTextSkipsClassification(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{texts: map[string]string{"url-0": "", "url-1": "  \n", "url-2": "x"}}
	cls := &fakeClassifier{results: map[string]model.Classification{"x": sensitive("x")}}

	got, err := New(ext, cls, WithMaxFindings(1)).Run(context.Background(), items(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cls.calls) != 1 || cls.calls[0] != "x" {
		t.Errorf("classifier must only see non-empty text, got %v", cls.calls)
	}
	if len(got.Flagged) != 1 || got.Flagged[0].Item.ID != "img-2" {
		t.Errorf("unexpected flagged %+v", got.Flagged)
	}
	if got.Skips[0].Reason != model.SkipNoText || got.Skips[1].Reason != model.SkipNoText {
		t.Errorf("expected no_text skips, got %+v", got.Skips)
	}
}

func TestRunIsolatesPerItemFailures(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{
		texts: map[string]string{"url-1": "bad", "url-2": "good"},
		errs:  map[string]error{"url-0": errors.New("vision 500")},
	}
	cls := &fakeClassifier{
		results: map[string]model.Classification{"good": {Category: model.CategoryEmailAddress, Value: "a@b.com"}},
		errs:    map[string]error{"bad": errors.New("malformed reply")},
	}

	got, err := New(ext, cls).Run(context.Background(), items(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Flagged) != 1 || got.Flagged[0].Classification.Value != "a@b.com" {
		t.Fatalf("expected the healthy candidate to be flagged, got %+v", got.Flagged)
	}
	if len(got.Skips) != 2 ||
		got.Skips[0].Reason != model.SkipExtractFailed ||
		got.Skips[1].Reason != model.SkipClassifyFailed {
		t.Errorf("unexpected skips %+v", got.Skips)
	}
	if got.Flagged[0].FullText != "good" || len(got.Flagged[0].Fragments) != 1 {
		t.Errorf("flagged item must carry its text and fragments: %+v", got.Flagged[0])
	}
}

func TestRunDiscardsResultsWhenContextEnds(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ext := &fakeExtractor{texts: map[string]string{"url-0": "a", "url-1": "b", "url-2": "c"}}
	cls := &fakeClassifier{
		results: map[string]model.Classification{"a": sensitive("1"), "b": sensitive("2"), "c": sensitive("3")},
		onCall: func(n int) {
			if n == 2 {
				cancel()
			}
		},
	}

	got, err := New(ext, cls).Run(ctx, items(3))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(got.Flagged) != 0 || got.Scanned != 0 {
		t.Errorf("expected results to be discarded, got %+v", got)
	}
	if len(cls.calls) != 2 {
		t.Errorf("expected no calls after cancellation, got %d", len(cls.calls))
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{texts: map[string]string{"u": "Jane"}}
	cls := &fakeClassifier{results: map[string]model.Classification{"Jane": {Category: model.CategoryName, Value: "Jane"}}}

	out := New(ext, cls).Evaluate(context.Background(), model.MediaItem{ID: "x", BaseURL: "u"})
	if out.Flagged == nil || out.Skip != nil {
		t.Fatalf("expected flagged outcome, got %+v", out)
	}
	if out.Flagged.ID() != "x" {
		t.Errorf("unexpected id %q", out.Flagged.ID())
	}
}

func TestEvaluateTrimsTextBeforeClassifying(t *testing.T) {
	t.Parallel()

	ext := &fakeExtractor{texts: map[string]string{"u": "\n  Call 555-0100 \n"}}
	cls := &fakeClassifier{results: map[string]model.Classification{"Call 555-0100": sensitive("555-0100")}}

	out := New(ext, cls).Evaluate(context.Background(), model.MediaItem{ID: "x", BaseURL: "u"})
	if len(cls.calls) != 1 || cls.calls[0] != "Call 555-0100" {
		t.Fatalf("classifier got %q, want the trimmed text", cls.calls)
	}
	if out.Flagged == nil {
		t.Fatalf("expected flagged outcome, got %+v", out)
	}
}
