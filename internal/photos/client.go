package photos

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/privasee/privasee/internal/model"
	"github.com/privasee/privasee/internal/transport"
)

// DefaultBaseURL is the Google Photos Library API endpoint.
const DefaultBaseURL = "https://photoslibrary.googleapis.com/v1"

// DefaultPageSize is the largest page size the Library API accepts.
const DefaultPageSize = 100

// Page is one page of a library listing.
type Page struct {
	Items         []model.MediaItem
	NextPageToken string
}

// Lister lists one page of media items. An empty pageToken requests the first page.
type Lister interface {
	ListPage(ctx context.Context, session model.Session, pageToken string) (Page, error)
}

// Client is a Google Photos Library API client.
type Client struct {
	api      *transport.Client
	baseURL  string
	pageSize int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithPageSize sets the requested page size.
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// NewClient creates a Client using httpClient (nil for a default) and logger.
func NewClient(httpClient *http.Client, logger *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		api:      transport.New(transport.WithHTTPClient(httpClient), transport.WithLogger(logger), transport.WithLogPrefix("photos")),
		baseURL:  DefaultBaseURL,
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type listResponse struct {
	MediaItems []struct {
		ID            string `json:"id"`
		BaseURL       string `json:"baseUrl"`
		MimeType      string `json:"mimeType"`
		Filename      string `json:"filename"`
		MediaMetadata struct {
			CreationTime string `json:"creationTime"`
			Width        string `json:"width"`
			Height       string `json:"height"`
		} `json:"mediaMetadata"`
	} `json:"mediaItems"`
	NextPageToken string `json:"nextPageToken"`
}

// ListPage fetches one page of the library.
func (c *Client) ListPage(ctx context.Context, session model.Session, pageToken string) (Page, error) {
	if !session.HasCredential() {
		return Page{}, ErrNoCredential
	}

	q := url.Values{}
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}

	var resp listResponse
	err := c.api.GetJSON(ctx, c.baseURL+"/mediaItems?"+q.Encode(), map[string]string{
		"Authorization": "Bearer " + session.AccessToken,
	}, &resp)
	if err != nil {
		return Page{}, fmt.Errorf("list media items: %w", err)
	}

	page := Page{NextPageToken: resp.NextPageToken, Items: make([]model.MediaItem, 0, len(resp.MediaItems))}
	for _, m := range resp.MediaItems {
		item := model.MediaItem{
			ID:       m.ID,
			MimeType: m.MimeType,
			BaseURL:  m.BaseURL,
			Filename: m.Filename,
		}
		if ts, err := time.Parse(time.RFC3339, m.MediaMetadata.CreationTime); err == nil {
			item.CreationTime = ts
		}
		item.Width, _ = strconv.Atoi(m.MediaMetadata.Width)
		item.Height, _ = strconv.Atoi(m.MediaMetadata.Height)
		page.Items = append(page.Items, item)
	}
	return page, nil
}

// Download fetches the bytes behind an item's base URL.
// The base URL is used unmodified so the pixels match the ones sent for text detection.
func (c *Client) Download(ctx context.Context, item model.MediaItem) ([]byte, error) {
	if item.BaseURL == "" {
		return nil, ErrEmptyURL
	}
	data, err := c.api.GetBytes(ctx, item.BaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", item.ID, err)
	}
	return data, nil
}
