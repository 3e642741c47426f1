package metadata

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/privasee/privasee/internal/model"
)

func TestInspectWithoutExif(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatal(err)
	}

	report, err := Inspect(buf.Bytes())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Empty() {
		t.Errorf("expected empty report, got %+v", report)
	}
}

func TestClassifyTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		wantKind Kind
		wantSev  model.Severity
		wantOK   bool
	}{
		{"GPSLatitude", KindLocation, model.SeverityCritical, true},
		{"BodySerialNumber", KindDevice, model.SeverityHigh, true},
		{"Model", KindDevice, model.SeverityMedium, true},
		{"Artist", KindAuthor, model.SeverityHigh, true},
		{"Software", KindSoftware, model.SeverityLow, true},
		{"DateTimeOriginal", KindTime, model.SeverityLow, true},
		{"ExposureTime", "", model.SeverityInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tag, ok := classifyTag(tt.name, "v")
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && (tag.Kind != tt.wantKind || tag.Severity != tt.wantSev) {
				t.Errorf("got %+v", tag)
			}
		})
	}
}

func TestReportHasKind(t *testing.T) {
	t.Parallel()

	r := Report{Tags: []Tag{{Name: "GPSLatitude", Kind: KindLocation}}}
	if !r.HasKind(KindLocation) || r.HasKind(KindAuthor) {
		t.Errorf("unexpected HasKind results for %+v", r)
	}
}
