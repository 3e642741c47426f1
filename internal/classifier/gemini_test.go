package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/privasee/privasee/internal/model"
)

func geminiServer(t *testing.T, replyText string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || !strings.Contains(req.Contents[0].Parts[0].Text, "Jane Doe 555-0100") {
			t.Errorf("prompt does not carry the text: %+v", req.Contents)
		}
		resp := map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{"text": replyText}}},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGeminiClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		reply   string
		want    model.Classification
		wantErr error
	}{
		{
			name:  "plain json",
			reply: `{"type": "Phone Number", "value": "555-0100"}`,
			want:  model.Classification{Category: model.CategoryPhoneNumber, Value: "555-0100"},
		},
		{
			name:  "fenced json",
			reply: "```json\n{\"type\": \"Name\", \"value\": \"Jane Doe\"}\n```",
			want:  model.Classification{Category: model.CategoryName, Value: "Jane Doe"},
		},
		{
			name:  "not sensitive sentinel",
			reply: `{"type": "Not Sensitive", "value": ""}`,
			want:  model.Classification{Category: model.CategoryNotSensitive, Value: ""},
		},
		{
			name:  "synonym is canonicalized",
			reply: `{"type": "email", "value": "a@b.com"}`,
			want:  model.Classification{Category: model.CategoryEmailAddress, Value: "a@b.com"},
		},
		{
			name:  "empty object means not sensitive",
			reply: `{}`,
			want:  model.Classification{Category: model.CategoryNotSensitive},
		},
		{
			name:    "prose is malformed",
			reply:   "I think this contains a phone number.",
			wantErr: ErrMalformedReply,
		},
		{
			name:    "missing value is malformed",
			reply:   `{"type": "SSN"}`,
			wantErr: ErrMalformedReply,
		},
		{
			name:    "non-string value is malformed",
			reply:   `{"type": "SSN", "value": 123456789}`,
			wantErr: ErrMalformedReply,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := geminiServer(t, tt.reply)
			g, err := NewGemini("key", nil, WithBaseURL(srv.URL))
			if err != nil {
				t.Fatalf("NewGemini: %v", err)
			}

			got, err := g.Classify(context.Background(), "Jane Doe 555-0100")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGeminiClassifyTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g, err := NewGemini("key", nil, WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Classify(context.Background(), "text"); err == nil || errors.Is(err, ErrMalformedReply) {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestGeminiRequiresKey(t *testing.T) {
	t.Parallel()

	g, err := NewGemini("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := g.Classify(context.Background(), "text"); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestStripCodeFence(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
		`  {"a":1}  `:             `{"a":1}`,
	}
	for in, want := range tests {
		if got := stripCodeFence(in); got != want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildPromptListsCategories(t *testing.T) {
	t.Parallel()

	p := buildPrompt("hello")
	for _, c := range model.Categories {
		if !strings.Contains(p, c.String()) {
			t.Errorf("prompt is missing category %q", c)
		}
	}
	if !strings.Contains(p, `"Not Sensitive"`) {
		t.Error("prompt is missing the sentinel")
	}
}
