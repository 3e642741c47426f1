package model

import (
	"sort"
	"time"
)

// Summary is a condensed, human-oriented view of a ScanReport.
type Summary struct {
	ScanID      string    `json:"scanId"`
	Account     string    `json:"account"`
	DateScanned time.Time `json:"dateScanned"`

	CriticalCount int `json:"criticalCount"`
	HighCount     int `json:"highCount"`
	MediumCount   int `json:"mediumCount"`
	LowCount      int `json:"lowCount"`
	InfoCount     int `json:"infoCount"`

	ImagesFetched     int `json:"imagesFetched"`
	AlreadyReviewed   int `json:"alreadyReviewed"`
	CandidatesScanned int `json:"candidatesScanned"`
	NoText            int `json:"noText"`
	Failed            int `json:"failed"`

	Findings []Finding `json:"findings,omitempty"`

	TimedOut bool   `json:"timedOut"`
	Error    string `json:"error,omitempty"`
}

// Finding is one flagged image in the summary.
type Finding struct {
	ImageID        string   `json:"imageId"`
	Filename       string   `json:"filename,omitempty"`
	Category       Category `json:"category"`
	Severity       Severity `json:"severity"`
	SeverityText   string   `json:"severityText"`
	Impact         string   `json:"impact,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
}

// NewSummary builds a Summary from a ScanReport.
// Findings are ordered by severity (highest first), then by walk order.
// The extracted values are intentionally absent.
func NewSummary(report *ScanReport) *Summary {
	s := &Summary{
		ScanID:            report.ID,
		Account:           report.Account,
		DateScanned:       report.StartedAt,
		ImagesFetched:     report.ImagesFetched,
		AlreadyReviewed:   report.AlreadyReviewed,
		CandidatesScanned: report.CandidatesScanned,
		NoText:            report.SkipCount(SkipNoText),
		Failed:            report.SkipCount(SkipExtractFailed) + report.SkipCount(SkipClassifyFailed),
		TimedOut:          report.TimedOut,
	}
	if report.Error != nil {
		s.Error = report.Error.Error()
	} else {
		s.Error = report.ErrorMessage
	}

	for _, f := range report.Flagged {
		info := GetCategoryInfo(f.Classification.Category)
		s.Findings = append(s.Findings, Finding{
			ImageID:        f.Item.ID,
			Filename:       f.Item.Filename,
			Category:       f.Classification.Category,
			Severity:       info.Severity,
			SeverityText:   info.Severity.String(),
			Impact:         info.Impact,
			Recommendation: info.Recommendation,
		})
	}
	sort.SliceStable(s.Findings, func(i, j int) bool {
		return s.Findings[i].Severity > s.Findings[j].Severity
	})
	s.countBySeverity()
	return s
}

func (s *Summary) countBySeverity() {
	for _, f := range s.Findings {
		switch f.Severity {
		case SeverityCritical:
			s.CriticalCount++
		case SeverityHigh:
			s.HighCount++
		case SeverityMedium:
			s.MediumCount++
		case SeverityLow:
			s.LowCount++
		case SeverityInfo:
			s.InfoCount++
		}
	}
}

// TotalFindings returns the number of flagged images.
func (s *Summary) TotalFindings() int {
	return len(s.Findings)
}

// HasFindings reports whether any image was flagged.
func (s *Summary) HasFindings() bool {
	return len(s.Findings) > 0
}

// FindingsBySeverity returns the findings of one severity in summary order.
func (s *Summary) FindingsBySeverity(sev Severity) []Finding {
	var out []Finding
	for _, f := range s.Findings {
		if f.Severity == sev {
			out = append(out, f)
		}
	}
	return out
}
