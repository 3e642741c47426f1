package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/privasee/privasee/internal/config"
	"github.com/privasee/privasee/internal/model"
	"github.com/privasee/privasee/internal/photos"
	"github.com/privasee/privasee/internal/store"
	"github.com/privasee/privasee/internal/vision"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakePhotos serves a single page and a fixed image for every download.
type fakePhotos struct {
	items []model.MediaItem
	image []byte
}

func (f *fakePhotos) ListPage(_ context.Context, session model.Session, _ string) (photos.Page, error) {
	if !session.HasCredential() {
		return photos.Page{}, photos.ErrNoCredential
	}
	return photos.Page{Items: f.items}, nil
}

func (f *fakePhotos) Download(context.Context, model.MediaItem) ([]byte, error) {
	return f.image, nil
}

// fakeExtractor returns the text registered for a URL, or nothing.
type fakeExtractor struct {
	texts map[string]string
}

func (e *fakeExtractor) DetectText(_ context.Context, url string) (vision.Extraction, error) {
	text, ok := e.texts[url]
	if !ok {
		return vision.Extraction{}, nil
	}
	return vision.Extraction{
		FullText: text,
		Fragments: []model.TextFragment{{
			Text:     text,
			Vertices: []model.Vertex{{X: 4, Y: 4}, {X: 20, Y: 4}, {X: 20, Y: 12}, {X: 4, Y: 12}},
		}},
	}, nil
}

// echoClassifier flags any text as Other PII with the text as value.
type echoClassifier struct{}

func (echoClassifier) Classify(_ context.Context, text string) (model.Classification, error) {
	return model.Classification{Category: model.CategoryOtherPII, Value: text}, nil
}

type recordingTracker struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTracker) Track(_ context.Context, name string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
}

func testPNG(t *testing.T) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 40, 30))
	for y := range 30 {
		for x := range 40 {
			img.Set(x, y, color.NRGBA{R: uint8(x * 6), G: uint8(y * 8), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type testEnv struct {
	srv   *Server
	store *store.SQLite
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	st, err := store.OpenSQLite(t.TempDir(), store.DefaultOptions())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := config.NewConfig()
	if mutate != nil {
		mutate(cfg)
	}

	deps := Deps{
		Photos: &fakePhotos{
			items: []model.MediaItem{
				{ID: "img-1", MimeType: "image/png", BaseURL: "https://lh3.googleusercontent.com/img-1", Filename: "card.png"},
				{ID: "img-2", MimeType: "image/png", BaseURL: "https://lh3.googleusercontent.com/img-2"},
				{ID: "img-3", MimeType: "image/png", BaseURL: "https://lh3.googleusercontent.com/img-3"},
				{ID: "vid-1", MimeType: "video/mp4", BaseURL: "https://lh3.googleusercontent.com/vid-1"},
			},
			image: testPNG(t),
		},
		Extractor: &fakeExtractor{texts: map[string]string{
			"https://lh3.googleusercontent.com/img-1": "4111111111111111",
			"https://lh3.googleusercontent.com/img-2": "AB123456",
		}},
		Classifier: echoClassifier{},
		Store:      st,
		Tracker:    &recordingTracker{},
	}
	return &testEnv{srv: New(cfg, deps, quietLogger()), store: st}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "OK\n" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected CORS header on every response")
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodOptions, "/scans", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "POST") {
		t.Errorf("unexpected allow methods %q", rec.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestMarkSensitive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "missing image id", body: `{"status":"Sensitive"}`, want: http.StatusBadRequest},
		{name: "missing status", body: `{"imageId":"a"}`, want: http.StatusBadRequest},
		{name: "unknown status", body: `{"imageId":"a","status":"maybe"}`, want: http.StatusBadRequest},
		{name: "blank image id", body: `{"imageId":"  ","status":"Sensitive"}`, want: http.StatusBadRequest},
		{name: "malformed body", body: `{"imageId":`, want: http.StatusBadRequest},
		{name: "sensitive", body: `{"imageId":"a","status":"Sensitive"}`, want: http.StatusOK},
		{name: "not sensitive", body: `{"imageId":"b","status":"Not Sensitive"}`, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, nil)
			rec := env.do(t, http.MethodPost, "/mark-sensitive", tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestGetMarkedImages(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	for _, body := range []string{
		`{"imageId":"zeta","status":"Sensitive"}`,
		`{"imageId":"alpha","status":"Not Sensitive"}`,
		`{"imageId":"alpha","status":"Sensitive"}`,
	} {
		if rec := env.do(t, http.MethodPost, "/mark-sensitive", body); rec.Code != http.StatusOK {
			t.Fatalf("mark failed: %d", rec.Code)
		}
	}

	rec := env.do(t, http.MethodGet, "/get-marked-images", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got struct {
		Marked []string `json:"marked"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Marked) != 2 || got.Marked[0] != "alpha" || got.Marked[1] != "zeta" {
		t.Errorf("unexpected marked ids %v", got.Marked)
	}

	rec2, err := env.store.Get(context.Background(), "alpha")
	if err != nil {
		t.Fatal(err)
	}
	if rec2.Status != model.StatusSensitive {
		t.Errorf("expected last write to win, got %q", rec2.Status)
	}
}

func TestPhotos(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)

	if rec := env.do(t, http.MethodPost, "/photos", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without token, got %d", rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/photos", `{"accessToken":"tok"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var items []model.MediaItem
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 4 {
		t.Errorf("expected the raw page, got %d items", len(items))
	}
}

func TestOCRResponseShape(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/ocr", `{"imageUrl":"https://lh3.googleusercontent.com/img-2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got struct {
		FullText       string `json:"fullText"`
		SensitiveWords []struct {
			Text         string `json:"text"`
			BoundingPoly struct {
				Vertices []model.Vertex `json:"vertices"`
			} `json:"boundingPoly"`
		} `json:"sensitiveWords"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.FullText != "AB123456" {
		t.Errorf("unexpected full text %q", got.FullText)
	}
	if len(got.SensitiveWords) != 1 || len(got.SensitiveWords[0].BoundingPoly.Vertices) != 4 {
		t.Errorf("unexpected words %+v", got.SensitiveWords)
	}
}

func TestCheckSensitiveText(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/checkSensitiveText", `{"text":"passport AB123456"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got model.Classification
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Category != model.CategoryOtherPII || got.Value != "passport AB123456" {
		t.Errorf("unexpected classification %+v", got)
	}
}

func TestFrontendLog(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	if rec := env.do(t, http.MethodPost, "/log/frontend", `{"source":"  ","event":"x"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for blank source, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/log/frontend", `{"source":"dashboard","event":"scan_started"}`); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAuthRoutesWithoutProvider(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/auth/google"},
		{http.MethodPost, "/auth/google/callback"},
		{http.MethodPost, "/auth/google/token"},
	} {
		if rec := env.do(t, tc.method, tc.path, `{}`); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s %s: expected 503, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestCheckProxyURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "photos host", raw: "https://lh3.googleusercontent.com/abc=w200", wantErr: false},
		{name: "ggpht host", raw: "https://yt3.ggpht.com/abc", wantErr: false},
		{name: "plain http", raw: "http://lh3.googleusercontent.com/abc", wantErr: true},
		{name: "other domain", raw: "https://example.com/abc", wantErr: true},
		{name: "suffix trick", raw: "https://googleusercontent.com.evil.io/abc", wantErr: true},
		{name: "userinfo", raw: "https://user@lh3.googleusercontent.com/abc", wantErr: true},
		{name: "explicit port", raw: "https://lh3.googleusercontent.com:8443/abc", wantErr: true},
		{name: "internal address", raw: "https://169.254.169.254/latest", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := checkProxyURL(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Errorf("checkProxyURL(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
		})
	}
}

func TestProxyRejects(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	if rec := env.do(t, http.MethodGet, "/proxy", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without url, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/proxy?url=https://example.com/a.png", ""); rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for foreign host, got %d", rec.Code)
	}
}

func TestScanReviewFlow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	ctx := context.Background()

	rec := env.do(t, http.MethodPost, "/scans", `{"accessToken":"tok","userName":"Alice"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var view scanView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if len(view.Items) != 2 {
		t.Fatalf("expected 2 flagged items, got %+v", view.Items)
	}
	if view.Items[0].ID != "img-1" || view.Items[0].SensitiveValue != "4111111111111111" {
		t.Errorf("unexpected first item %+v", view.Items[0])
	}

	report, err := env.store.ScanReport(ctx, view.ScanID)
	if err != nil {
		t.Fatalf("scan report not persisted: %v", err)
	}
	if report.Account != "Alice" || report.ImagesFetched != 3 {
		t.Errorf("unexpected report %+v", report)
	}

	base := "/scans/" + view.ScanID
	if rec := env.do(t, http.MethodPost, base+"/items/img-1/select", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("select: expected 204, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, base, "")
	var selected scanView
	if err := json.Unmarshal(rec.Body.Bytes(), &selected); err != nil {
		t.Fatal(err)
	}
	if selected.Selected != "img-1" {
		t.Errorf("expected img-1 selected, got %q", selected.Selected)
	}

	rec = env.do(t, http.MethodPost, base+"/items/img-1/sensitive", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("sensitive: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if rec.Header().Get("X-Privasee-Redacted") != "true" {
		t.Error("expected the image to be redacted")
	}
	if rec.Header().Get("X-Privasee-Persisted") != "true" {
		t.Error("expected the decision to be stored")
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "img-1_redacted.png") {
		t.Errorf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
	if _, err := png.Decode(bytes.NewReader(rec.Body.Bytes())); err != nil {
		t.Errorf("body is not a png: %v", err)
	}

	if rec := env.do(t, http.MethodPost, base+"/items/img-2/not-sensitive", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("not-sensitive: expected 204, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, base+"/items/img-1/sensitive", ""); rec.Code != http.StatusNotFound {
		t.Errorf("second accept: expected 404, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, base, "")
	var done scanView
	if err := json.Unmarshal(rec.Body.Bytes(), &done); err != nil {
		t.Fatal(err)
	}
	if len(done.Items) != 0 || done.Selected != "" {
		t.Errorf("expected an empty review, got %+v", done)
	}

	for id, want := range map[string]model.Status{"img-1": model.StatusSensitive, "img-2": model.StatusNotSensitive} {
		got, err := env.store.Get(ctx, id)
		if err != nil {
			t.Fatalf("decision for %s: %v", id, err)
		}
		if got.Status != want {
			t.Errorf("%s: expected %q, got %q", id, want, got.Status)
		}
	}

	// A second scan skips everything already decided.
	rec = env.do(t, http.MethodPost, "/scans", `{"accessToken":"tok"}`)
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if len(view.Items) != 0 {
		t.Errorf("expected decided items to be excluded, got %+v", view.Items)
	}
}

func TestScanErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	if rec := env.do(t, http.MethodPost, "/scans", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without token, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/scans/unknown", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown scan, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/scans/unknown/items/a/not-sensitive", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown scan, got %d", rec.Code)
	}
}

func TestStaticFrontend(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o600); err != nil {
		t.Fatal(err)
	}
	env := newTestEnv(t, func(c *config.Config) { c.StaticDir = dir })

	if rec := env.do(t, http.MethodGet, "/app.js", ""); !strings.Contains(rec.Body.String(), "console.log") {
		t.Errorf("expected asset, got %q", rec.Body.String())
	}
	if rec := env.do(t, http.MethodGet, "/review/123", ""); !strings.Contains(rec.Body.String(), "app</html>") {
		t.Errorf("expected index fallback, got %q", rec.Body.String())
	}
	if rec := env.do(t, http.MethodGet, "/health", ""); rec.Body.String() != "OK\n" {
		t.Errorf("API route shadowed by frontend: %q", rec.Body.String())
	}
}

// failingUpsert is a store whose decision writes fail.
type failingUpsert struct {
	store.Store
}

func (failingUpsert) Upsert(context.Context, model.DecisionRecord) error {
	return errors.New("store offline")
}

func TestSensitiveReturnsImageWhenDecisionNotStored(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	env.srv.deps.Store = failingUpsert{Store: env.store}

	rec := env.do(t, http.MethodPost, "/scans", `{"accessToken":"tok","userName":"Alice"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var view scanView
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	base := "/scans/" + view.ScanID

	rec = env.do(t, http.MethodPost, base+"/items/img-1/sensitive", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Privasee-Persisted"); got != "false" {
		t.Errorf("X-Privasee-Persisted = %q, want false", got)
	}
	if _, err := png.Decode(bytes.NewReader(rec.Body.Bytes())); err != nil {
		t.Errorf("body is not a png: %v", err)
	}

	rec = env.do(t, http.MethodGet, base, "")
	var after scanView
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatal(err)
	}
	if len(after.Items) != 2 {
		t.Errorf("item should stay pending, got %+v", after.Items)
	}
	if _, err := env.store.Get(context.Background(), "img-1"); err == nil {
		t.Error("no decision should be stored")
	}
}
