package redact

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/privasee/privasee/internal/model"
)

// checkerboard returns a PNG whose pixels alternate black and white, so a
// blur visibly changes every pixel it touches.
func checkerboard(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			c := color.NRGBA{A: 255}
			if (x+y)%2 == 0 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func flagged(value string, frags ...model.TextFragment) model.FlaggedItem {
	return model.FlaggedItem{Candidate: model.Candidate{
		Item:           model.MediaItem{ID: "AF1Qip/abc"},
		Fragments:      frags,
		Classification: model.Classification{Category: model.CategoryPhoneNumber, Value: value},
	}}
}

func TestRedactBlursOnlyTheRegion(t *testing.T) {
	t.Parallel()

	src := checkerboard(t, 100, 60)
	item := flagged("555-0100", quad("555-0100", 30, 20, 60, 30))

	art, err := NewRedactor().Redact(item, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !art.Redacted || art.Rect == nil {
		t.Fatalf("expected a redacted artifact, got %+v", art)
	}
	want := model.Rect{MinX: 20, MinY: 10, MaxX: 70, MaxY: 40}
	if *art.Rect != want {
		t.Errorf("rect = %+v, want %+v", *art.Rect, want)
	}
	if art.ContentType != "image/png" || art.Filename != "AF1Qip_abc_redacted.png" {
		t.Errorf("unexpected metadata %q %q", art.ContentType, art.Filename)
	}

	orig, _ := png.Decode(bytes.NewReader(src))
	out, err := png.Decode(bytes.NewReader(art.Data))
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if out.Bounds() != orig.Bounds() {
		t.Fatalf("bounds changed: %v vs %v", out.Bounds(), orig.Bounds())
	}

	changedInside := 0
	for y := range 60 {
		for x := range 100 {
			inside := x >= want.MinX && x < want.MaxX && y >= want.MinY && y < want.MaxY
			same := sameColor(orig.At(x, y), out.At(x, y))
			if !inside && !same {
				t.Fatalf("pixel (%d,%d) outside the rect changed", x, y)
			}
			if inside && !same {
				changedInside++
			}
		}
	}
	if changedInside == 0 {
		t.Error("expected pixels inside the rect to be blurred")
	}
}

func TestRedactWithoutMatchReturnsSourceBytes(t *testing.T) {
	t.Parallel()

	src := checkerboard(t, 20, 20)
	item := flagged("a@b.com", quad("a@b", 0, 0, 5, 5), quad(".co", 6, 0, 10, 5))

	art, err := NewRedactor().Redact(item, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if art.Redacted || art.Rect != nil {
		t.Errorf("expected an unredacted artifact, got %+v", art)
	}
	if !bytes.Equal(art.Data, src) {
		t.Error("expected the exported bytes to equal the source bytes")
	}
	if art.Digest != Digest(src) {
		t.Error("digest must describe the exported bytes")
	}
}

func TestRedactWithoutMatchAcceptsUndecodableBytes(t *testing.T) {
	t.Parallel()

	src := []byte("not an image")
	art, err := NewRedactor().Redact(flagged("nomatch"), src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(art.Data, src) {
		t.Error("expected source bytes")
	}
}

func TestRedactDecodeError(t *testing.T) {
	t.Parallel()

	_, err := NewRedactor().Redact(flagged("x", quad("x", 0, 0, 1, 1)), []byte("garbage"))
	if err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDigest(t *testing.T) {
	t.Parallel()

	// SHA3-256 of the empty string.
	const empty = "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"
	if got := Digest(nil); got != empty {
		t.Errorf("Digest(nil) = %s", got)
	}
}

func TestArtifactFilename(t *testing.T) {
	t.Parallel()

	prefix := strings.Repeat("AF1QipN", 12)
	longA := prefix + "-tailA"
	longB := prefix + "-tailB"
	data := checkerboard(t, 4, 4)

	tests := []struct {
		name string
		id   string
		want string
	}{
		{name: "short id", id: "AF1Qip-abc", want: "AF1Qip-abc_redacted.png"},
		{name: "unsafe runes", id: "a/b c", want: "a_b_c_redacted.png"},
		{name: "empty id", id: "", want: "blurred_sensitive_image.png"},
		{name: "long id", id: longA, want: prefix[:maxBaseLen] + "_" + Digest([]byte(longA))[:8] + "_redacted.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := newArtifact(tt.id, data, nil).Filename; got != tt.want {
				t.Errorf("Filename = %q, want %q", got, tt.want)
			}
		})
	}

	a := newArtifact(longA, data, nil).Filename
	b := newArtifact(longB, data, nil).Filename
	if a == b {
		t.Errorf("ids sharing a long prefix got the same filename %q", a)
	}
}

func sameColor(a, b color.Color) bool {
	r1, g1, b1, a1 := a.RGBA()
	r2, g2, b2, a2 := b.RGBA()
	return r1 == r2 && g1 == g2 && b1 == b2 && a1 == a2
}
