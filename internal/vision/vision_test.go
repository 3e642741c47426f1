package vision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newServer(t *testing.T, body string, check func(r *http.Request, payload map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if check != nil {
			check(r, payload)
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDetectText(t *testing.T) {
	t.Parallel()

	body := `{"responses":[{"textAnnotations":[
		{"description":"Call 555-0100\nnow","boundingPoly":{"vertices":[{"x":1,"y":1},{"x":90,"y":1},{"x":90,"y":30},{"x":1,"y":30}]}},
		{"description":"Call","boundingPoly":{"vertices":[{"y":2},{"x":20,"y":2},{"x":20,"y":12},{"y":12}]}},
		{"description":"555-0100","boundingPoly":{"vertices":[{"x":25,"y":2},{"x":60,"y":2},{"x":60,"y":12},{"x":25,"y":12}]}}
	]}]}`

	srv := newServer(t, body, func(r *http.Request, payload map[string]any) {
		if r.URL.Path != "/images:annotate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "k" {
			t.Errorf("expected api key in query")
		}
		reqs := payload["requests"].([]any)
		img := reqs[0].(map[string]any)["image"].(map[string]any)
		if img["source"].(map[string]any)["imageUri"] != "https://lh3.googleusercontent.com/x" {
			t.Errorf("unexpected image %v", img)
		}
	})

	got, err := NewClient("k", srv.URL, nil, nil).DetectText(context.Background(), "https://lh3.googleusercontent.com/x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FullText != "Call 555-0100\nnow" {
		t.Errorf("unexpected full text %q", got.FullText)
	}
	if len(got.Fragments) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(got.Fragments))
	}
	if got.Fragments[0].Vertices[0].X != 0 || got.Fragments[0].Vertices[0].Y != 2 {
		t.Errorf("omitted coordinates should decode as zero: %+v", got.Fragments[0].Vertices[0])
	}
	if got.Fragments[1].Text != "555-0100" {
		t.Errorf("unexpected fragment %+v", got.Fragments[1])
	}
}

func TestDetectTextNoText(t *testing.T) {
	t.Parallel()

	srv := newServer(t, `{"responses":[{}]}`, nil)
	got, err := NewClient("k", srv.URL, nil, nil).DetectText(context.Background(), "https://x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.FullText != "" || len(got.Fragments) != 0 {
		t.Errorf("expected empty extraction, got %+v", got)
	}
}

func TestDetectTextResponseError(t *testing.T) {
	t.Parallel()

	srv := newServer(t, `{"responses":[{"error":{"code":7,"message":"image fetch denied"}}]}`, nil)
	_, err := NewClient("k", srv.URL, nil, nil).DetectText(context.Background(), "https://x")
	if err == nil {
		t.Fatal("expected error for per-image error")
	}
}

func TestDetectTextPreconditions(t *testing.T) {
	t.Parallel()

	if _, err := NewClient("", "", nil, nil).DetectText(context.Background(), "https://x"); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
	if _, err := NewClient("k", "", nil, nil).DetectText(context.Background(), ""); !errors.Is(err, ErrNoImage) {
		t.Errorf("expected ErrNoImage, got %v", err)
	}
}
