package redact

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/privasee/privasee/internal/model"
)

// DefaultPadding is added around the merged rectangle.
const DefaultPadding = 10

// Normalize lower-cases s and removes every rune that is not a letter,
// digit or underscore.
func Normalize(s string) string {
	lower := cases.Lower(language.Und).String(s)
	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, lower)
}

// Tokens returns the set of normalized whitespace-delimited tokens of value.
// A punctuation-only token normalizes to "" and stays in the set, so
// punctuation-only fragments such as "-" join the rectangle.
func Tokens(value string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, field := range strings.Fields(value) {
		set[Normalize(field)] = struct{}{}
	}
	return set
}

// Match returns the fragments whose normalized text is one of value's tokens.
func Match(value string, fragments []model.TextFragment) []model.TextFragment {
	tokens := Tokens(value)
	if len(tokens) == 0 {
		return nil
	}
	var matched []model.TextFragment
	for _, f := range fragments {
		if _, ok := tokens[Normalize(f.Text)]; ok {
			matched = append(matched, f)
		}
	}
	return matched
}

// Bounds returns the smallest rectangle containing every vertex of fragments.
// It reports false when the fragments carry no vertices.
func Bounds(fragments []model.TextFragment) (model.Rect, bool) {
	r := model.Rect{MinX: math.MaxInt, MinY: math.MaxInt, MaxX: math.MinInt, MaxY: math.MinInt}
	found := false
	for _, f := range fragments {
		for _, v := range f.Vertices {
			r.MinX = min(r.MinX, v.X)
			r.MinY = min(r.MinY, v.Y)
			r.MaxX = max(r.MaxX, v.X)
			r.MaxY = max(r.MaxY, v.Y)
			found = true
		}
	}
	if !found {
		return model.Rect{}, false
	}
	return r, true
}

// Merge computes the padded, clamped rectangle covering the fragments that
// match value. It reports false when no fragment matches or the clamped
// rectangle is empty. The result depends only on its inputs.
func Merge(value string, fragments []model.TextFragment, width, height, padding int) (model.Rect, bool) {
	bounds, ok := Bounds(Match(value, fragments))
	if !ok {
		return model.Rect{}, false
	}
	r := bounds.Pad(padding).Clamp(width, height)
	if r.Empty() {
		return model.Rect{}, false
	}
	return r, true
}
