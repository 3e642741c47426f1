package redact

import (
	"encoding/hex"
	"net/http"
	"regexp"

	"golang.org/x/crypto/sha3"

	"github.com/privasee/privasee/internal/model"
)

// maxBaseLen caps the image id part of an artifact filename.
const maxBaseLen = 64

// Artifact is an exportable image.
type Artifact struct {
	ImageID     string      `json:"imageId"`
	Filename    string      `json:"filename"`
	ContentType string      `json:"contentType"`
	Data        []byte      `json:"-"`
	Digest      string      `json:"sha3_256"`
	Redacted    bool        `json:"redacted"`
	Rect        *model.Rect `json:"rect,omitempty"`
}

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

func newArtifact(imageID string, data []byte, rect *model.Rect) Artifact {
	contentType := http.DetectContentType(data)
	ext, ok := extensions[contentType]
	if !ok {
		ext = ".bin"
	}
	base := unsafeFilename.ReplaceAllString(imageID, "_")
	if len(base) > maxBaseLen {
		// Long ids may share a prefix; the digest keeps their names apart.
		base = base[:maxBaseLen] + "_" + Digest([]byte(imageID))[:8]
	}
	name := "blurred_sensitive_image"
	if base != "" {
		name = base + "_redacted"
	}
	return Artifact{
		ImageID:     imageID,
		Filename:    name + ext,
		ContentType: contentType,
		Data:        data,
		Digest:      Digest(data),
		Redacted:    rect != nil,
		Rect:        rect,
	}
}

// Digest returns the hex SHA3-256 digest of data.
func Digest(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
