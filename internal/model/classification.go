package model

import "strings"

// Classification is the classifier's verdict for one image's text.
type Classification struct {
	Category Category `json:"type"`
	Value    string   `json:"value"`
}

// IsSensitive reports whether the classification should be retained:
// the category is not the sentinel and the value is non-empty after trimming.
func (c Classification) IsSensitive() bool {
	return c.Category != CategoryNotSensitive && strings.TrimSpace(c.Value) != ""
}

// Candidate joins a MediaItem with its extracted text and classification.
type Candidate struct {
	Item           MediaItem      `json:"item"`
	FullText       string         `json:"fullText"`
	Fragments      []TextFragment `json:"fragments"`
	Classification Classification `json:"classification"`
}

// FlaggedItem is a Candidate confirmed sensitive and pending review.
type FlaggedItem struct {
	Candidate
}

// ID returns the identifier of the underlying media item.
func (f FlaggedItem) ID() string {
	return f.Item.ID
}
