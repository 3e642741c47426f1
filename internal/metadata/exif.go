package metadata

import (
	exif "github.com/dsoprea/go-exif/v3"

	"github.com/privasee/privasee/internal/model"
)

// Kind groups EXIF tags by what they disclose.
type Kind string

// Tag kinds reported by Inspect.
const (
	KindLocation Kind = "location"
	KindDevice   Kind = "device"
	KindAuthor   Kind = "author"
	KindSoftware Kind = "software"
	KindTime     Kind = "time"
)

// Tag is one disclosing EXIF entry.
type Tag struct {
	Name     string         `json:"name"`
	Value    string         `json:"value"`
	Kind     Kind           `json:"kind"`
	Severity model.Severity `json:"severity"`
}

// Report lists the disclosing tags of an image.
type Report struct {
	Tags []Tag `json:"tags,omitempty"`
}

// HasKind reports whether any tag of kind k is present.
func (r Report) HasKind(k Kind) bool {
	for _, t := range r.Tags {
		if t.Kind == k {
			return true
		}
	}
	return false
}

// Empty reports whether no disclosing tag was found.
func (r Report) Empty() bool {
	return len(r.Tags) == 0
}

// Inspect parses EXIF data embedded in image bytes.
// Images without EXIF yield an empty report and no error.
func Inspect(data []byte) (Report, error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil || rawExif == nil {
		// Formats go-exif cannot scan are treated like images without EXIF.
		return Report{}, nil
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for _, entry := range entries {
		if tag, ok := classifyTag(entry.TagName, entry.Formatted); ok {
			report.Tags = append(report.Tags, tag)
		}
	}
	return report, nil
}

func classifyTag(name, value string) (Tag, bool) {
	tag := Tag{Name: name, Value: value}
	switch name {
	case "GPSLatitude", "GPSLongitude", "GPSLatitudeRef", "GPSLongitudeRef", "GPSAltitude":
		tag.Kind, tag.Severity = KindLocation, model.SeverityCritical
	case "SerialNumber", "CameraSerialNumber", "BodySerialNumber", "LensSerialNumber":
		tag.Kind, tag.Severity = KindDevice, model.SeverityHigh
	case "Make", "Model", "HostComputer":
		tag.Kind, tag.Severity = KindDevice, model.SeverityMedium
	case "Artist", "Author", "Copyright", "XPAuthor", "OwnerName", "CameraOwnerName":
		tag.Kind, tag.Severity = KindAuthor, model.SeverityHigh
	case "Software", "ProcessingSoftware":
		tag.Kind, tag.Severity = KindSoftware, model.SeverityLow
	case "DateTimeOriginal", "DateTimeDigitized", "DateTime":
		tag.Kind, tag.Severity = KindTime, model.SeverityLow
	default:
		return Tag{}, false
	}
	return tag, true
}
