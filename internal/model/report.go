package model

import "time"

// SkipReason explains why the gate did not retain a candidate.
type SkipReason string

// Skip reasons recorded by the gate.
const (
	SkipNoText          SkipReason = "no_text"
	SkipNotSensitive    SkipReason = "not_sensitive"
	SkipExtractFailed   SkipReason = "extract_failed"
	SkipClassifyFailed  SkipReason = "classify_failed"
	SkipCapReached      SkipReason = "cap_reached"
	SkipContextCanceled SkipReason = "canceled"
)

// Skip records one candidate the gate passed over.
type Skip struct {
	ImageID string     `json:"imageId"`
	Reason  SkipReason `json:"reason"`
	Detail  string     `json:"detail,omitempty"`
}

// ScanReport is the result of one scan of one account.
type ScanReport struct {
	// ID identifies the scan; review sessions refer to it.
	ID string `json:"id"`

	// Account is a label for the scanned library (e.g. the user name).
	Account string `json:"account"`

	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitzero"`

	// Walk statistics.
	PagesFetched    int `json:"pagesFetched"`
	ImagesFetched   int `json:"imagesFetched"`
	AlreadyReviewed int `json:"alreadyReviewed"`

	// Items holds the walked, deduplicated images handed to the gate.
	Items []MediaItem `json:"-"`

	// Gate statistics.
	CandidatesScanned int    `json:"candidatesScanned"`
	Skips             []Skip `json:"skips,omitempty"`

	// Flagged holds retained items in walk order.
	Flagged []FlaggedItem `json:"flagged"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performedSteps,omitempty"`

	// TimedOut is set when the scan context expired.
	TimedOut bool `json:"timedOut"`

	Error        error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewScanReport creates a report for account started now.
func NewScanReport(id, account string) *ScanReport {
	return &ScanReport{
		ID:        id,
		Account:   account,
		StartedAt: time.Now(),
		Flagged:   []FlaggedItem{},
	}
}

// AddSkip records a skipped candidate.
func (r *ScanReport) AddSkip(imageID string, reason SkipReason, detail string) {
	r.Skips = append(r.Skips, Skip{ImageID: imageID, Reason: reason, Detail: detail})
}

// SkipCount returns how many skips carry reason.
func (r *ScanReport) SkipCount(reason SkipReason) int {
	n := 0
	for _, s := range r.Skips {
		if s.Reason == reason {
			n++
		}
	}
	return n
}
