package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/privasee/privasee/internal/model"
	"github.com/privasee/privasee/internal/transport"
)

// DefaultBaseURL is the Generative Language API endpoint.
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// Classifier labels free text.
type Classifier interface {
	Classify(ctx context.Context, text string) (model.Classification, error)
}

// Gemini is a Classifier backed by the Gemini generateContent API.
type Gemini struct {
	api     *transport.Client
	apiKey  string
	baseURL string
	model   string
	schema  *jsonschema.Schema
	logger  *slog.Logger
}

// Option configures a Gemini classifier.
type Option func(*Gemini)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) Option {
	return func(g *Gemini) {
		if u != "" {
			g.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithModel sets the model name.
func WithModel(m string) Option {
	return func(g *Gemini) {
		if m != "" {
			g.model = m
		}
	}
}

// WithHTTPClient sets the http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gemini) {
		g.api = transport.New(transport.WithHTTPClient(c), transport.WithLogger(g.logger), transport.WithLogPrefix("gemini"))
	}
}

// NewGemini creates a Gemini classifier.
func NewGemini(apiKey string, logger *slog.Logger, opts ...Option) (*Gemini, error) {
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := compileSchema(replySchema)
	if err != nil {
		return nil, err
	}
	g := &Gemini{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		schema:  schema,
		logger:  logger,
	}
	g.api = transport.New(transport.WithLogger(logger), transport.WithLogPrefix("gemini"))
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content      `json:"contents"`
	GenerationConfig map[string]any `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Classify sends text to the model and parses its verdict.
// A response without candidates is treated as not sensitive.
func (g *Gemini) Classify(ctx context.Context, text string) (model.Classification, error) {
	if g.apiKey == "" {
		return model.Classification{}, ErrNoAPIKey
	}

	req := generateRequest{
		Contents:         []content{{Parts: []part{{Text: buildPrompt(text)}}}},
		GenerationConfig: map[string]any{"temperature": 0},
	}
	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))

	var resp generateResponse
	if err := g.api.PostJSON(ctx, endpoint, req, nil, &resp); err != nil {
		return model.Classification{}, fmt.Errorf("generate content: %w", err)
	}

	reply := "{}"
	if len(resp.Candidates) > 0 && len(resp.Candidates[0].Content.Parts) > 0 {
		reply = resp.Candidates[0].Content.Parts[0].Text
	}
	if strings.TrimSpace(reply) == "{}" {
		return model.Classification{Category: model.CategoryNotSensitive}, nil
	}

	c, err := g.parseReply(reply)
	if err != nil {
		return model.Classification{}, err
	}
	g.logger.Debug("gemini.classified", "category", c.Category.String())
	return c, nil
}

func (g *Gemini) parseReply(reply string) (model.Classification, error) {
	raw := extractJSONObject(stripCodeFence(reply))

	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return model.Classification{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	if err := g.schema.Validate(v); err != nil {
		return model.Classification{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	var out struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return model.Classification{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return model.Classification{
		Category: model.Canonicalize(out.Type),
		Value:    out.Value,
	}, nil
}

func buildPrompt(text string) string {
	names := make([]string, len(model.Categories))
	for i, c := range model.Categories {
		names[i] = c.String()
	}

	var b strings.Builder
	b.WriteString("You are given text extracted by OCR from a photo.\n\n")
	b.WriteString("Decide whether the text contains personally identifiable information (PII).\n\n")
	b.WriteString("If it does, reply with one JSON object naming the most sensitive item, for example:\n")
	b.WriteString(`  {"type": "SSN", "value": "123-45-6789"}` + "\n\n")
	b.WriteString("If it does not, reply exactly:\n")
	b.WriteString(`  {"type": "Not Sensitive", "value": ""}` + "\n\n")
	b.WriteString("Allowed types: " + strings.Join(names, ", ") + ".\n")
	b.WriteString("Copy the value exactly as it appears in the text.\n\n")
	b.WriteString("Text:\n\"\"\"\n")
	b.WriteString(text)
	b.WriteString("\n\"\"\"\n\nReply with the JSON object only.")
	return b.String()
}
