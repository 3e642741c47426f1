package vision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/privasee/privasee/internal/model"
	"github.com/privasee/privasee/internal/transport"
)

// DefaultBaseURL is the Cloud Vision API endpoint.
const DefaultBaseURL = "https://vision.googleapis.com/v1"

var (
	// ErrNoAPIKey is returned when the client has no API key.
	ErrNoAPIKey = errors.New("vision: missing API key")

	// ErrNoImage is returned when no image URL is given.
	ErrNoImage = errors.New("vision: no image reference")
)

// Extraction is the text found in one image.
type Extraction struct {
	FullText  string               `json:"fullText"`
	Fragments []model.TextFragment `json:"sensitiveWords"`
}

// Extractor detects text in an image reference.
type Extractor interface {
	DetectText(ctx context.Context, imageURL string) (Extraction, error)
}

// Client is a Cloud Vision client.
type Client struct {
	api     *transport.Client
	apiKey  string
	baseURL string
}

// NewClient creates a Client. baseURL may be empty for the public endpoint.
func NewClient(apiKey, baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		api:     transport.New(transport.WithHTTPClient(httpClient), transport.WithLogger(logger), transport.WithLogPrefix("vision")),
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type imageSource struct {
	ImageURI string `json:"imageUri,omitempty"`
}

type image struct {
	Source *imageSource `json:"source"`
}

type feature struct {
	Type string `json:"type"`
}

type annotateItem struct {
	Image    image     `json:"image"`
	Features []feature `json:"features"`
}

type annotateRequest struct {
	Requests []annotateItem `json:"requests"`
}

type annotateResponse struct {
	Responses []struct {
		TextAnnotations []struct {
			Description  string `json:"description"`
			BoundingPoly struct {
				Vertices []model.Vertex `json:"vertices"`
			} `json:"boundingPoly"`
		} `json:"textAnnotations"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// DetectText runs text detection on a publicly fetchable image URL.
func (c *Client) DetectText(ctx context.Context, imageURL string) (Extraction, error) {
	if imageURL == "" {
		return Extraction{}, ErrNoImage
	}
	return c.annotate(ctx, image{Source: &imageSource{ImageURI: imageURL}})
}

func (c *Client) annotate(ctx context.Context, img image) (Extraction, error) {
	if c.apiKey == "" {
		return Extraction{}, ErrNoAPIKey
	}

	req := annotateRequest{Requests: []annotateItem{{
		Image:    img,
		Features: []feature{{Type: "TEXT_DETECTION"}},
	}}}

	var resp annotateResponse
	endpoint := c.baseURL + "/images:annotate?key=" + url.QueryEscape(c.apiKey)
	if err := c.api.PostJSON(ctx, endpoint, req, nil, &resp); err != nil {
		return Extraction{}, fmt.Errorf("text detection: %w", err)
	}
	if len(resp.Responses) == 0 {
		return Extraction{}, nil
	}

	r := resp.Responses[0]
	if r.Error != nil && r.Error.Message != "" {
		return Extraction{}, fmt.Errorf("text detection: %d %s", r.Error.Code, r.Error.Message)
	}
	if len(r.TextAnnotations) == 0 {
		return Extraction{}, nil
	}

	out := Extraction{
		FullText:  r.TextAnnotations[0].Description,
		Fragments: make([]model.TextFragment, 0, len(r.TextAnnotations)-1),
	}
	for _, a := range r.TextAnnotations[1:] {
		out.Fragments = append(out.Fragments, model.TextFragment{
			Text:     a.Description,
			Vertices: a.BoundingPoly.Vertices,
		})
	}
	return out, nil
}
