package model

import (
	"errors"
	"fmt"
	"time"
)

// Status is the persisted verdict for an image.
type Status string

// The only two statuses a DecisionRecord may hold.
const (
	StatusSensitive    Status = "Sensitive"
	StatusNotSensitive Status = "Not Sensitive"
)

// ErrInvalidStatus is returned by ParseStatus for any other string.
var ErrInvalidStatus = errors.New("invalid status: must be \"Sensitive\" or \"Not Sensitive\"")

// ParseStatus converts s into a Status. Matching is exact.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusSensitive, StatusNotSensitive:
		return Status(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}

// DecisionRecord is the durable verdict for one image.
// Each ImageID maps to at most one current record.
type DecisionRecord struct {
	ImageID   string    `json:"imageId"`
	Status    Status    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}
