package redact

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP decoding for library items

	"github.com/privasee/privasee/internal/model"
)

// BlurSigma is the Gaussian blur strength in pixels. It is not configurable.
const BlurSigma = 4.0

// ErrDecode is returned when the source bytes are not a supported image.
var ErrDecode = errors.New("redact: unsupported or corrupt image")

// BlurRegion returns a copy of img with only rect blurred.
func BlurRegion(img image.Image, rect model.Rect) *image.NRGBA {
	out := imaging.Clone(img)
	sub := imaging.Crop(out, image.Rect(rect.MinX, rect.MinY, rect.MaxX, rect.MaxY))
	return imaging.Paste(out, imaging.Blur(sub, BlurSigma), image.Pt(rect.MinX, rect.MinY))
}

// Redactor turns a flagged item and its image bytes into an Artifact.
type Redactor struct {
	padding int
	logger  *slog.Logger
}

// Option configures a Redactor.
type Option func(*Redactor)

// WithPadding sets the rectangle padding.
func WithPadding(p int) Option {
	return func(r *Redactor) {
		if p >= 0 {
			r.padding = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Redactor) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRedactor creates a Redactor.
func NewRedactor(opts ...Option) *Redactor {
	r := &Redactor{padding: DefaultPadding, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Redact produces the redacted image bytes for item.
// If no fragment matches the classification value, the source bytes are
// returned unchanged and Artifact.Redacted is false.
func (r *Redactor) Redact(item model.FlaggedItem, src []byte) (Artifact, error) {
	matched := Match(item.Classification.Value, item.Fragments)
	if len(matched) == 0 {
		r.logger.Debug("no matching fragment, exporting original", "image_id", item.ID())
		return newArtifact(item.ID(), src, nil), nil
	}

	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	b := img.Bounds()

	rect, ok := Merge(item.Classification.Value, item.Fragments, b.Dx(), b.Dy(), r.padding)
	if !ok {
		return newArtifact(item.ID(), src, nil), nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, BlurRegion(img, rect)); err != nil {
		return Artifact{}, fmt.Errorf("encode png: %w", err)
	}
	r.logger.Debug("region blurred", "image_id", item.ID(), "rect", rect)
	return newArtifact(item.ID(), buf.Bytes(), &rect), nil
}
