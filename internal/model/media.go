package model

import (
	"strings"
	"time"
)

// MediaItem is a single item listed from the photo library.
// It is immutable once fetched.
type MediaItem struct {
	// ID is the provider-assigned identifier and the durable dedup key.
	ID string `json:"id"`

	// MimeType is the content type reported by the provider (e.g. "image/jpeg").
	MimeType string `json:"mimeType"`

	// BaseURL is the fetch URL for the item's bytes.
	BaseURL string `json:"baseUrl"`

	// Filename is the original file name, when the provider reports one.
	Filename string `json:"filename,omitempty"`

	// CreationTime is taken from the item metadata, when present.
	CreationTime time.Time `json:"creationTime,omitzero"`

	// Width and Height are the pixel dimensions reported by the provider.
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// IsImage reports whether the item's MIME type is an image type.
func (m MediaItem) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(m.MimeType), "image/")
}
