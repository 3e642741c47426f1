package model

// Severity represents how damaging an exposed category is.
type Severity int

const (
	// SeverityInfo is used for unknown categories.
	SeverityInfo Severity = iota

	// SeverityLow indicates data that is often public anyway (a name).
	SeverityLow

	// SeverityMedium indicates contact details (phone, e-mail).
	SeverityMedium

	// SeverityHigh indicates data that locates a person (home address).
	SeverityHigh

	// SeverityCritical indicates identifiers usable for fraud (SSN, card numbers).
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// CategoryInfo describes the risk of a category and what to do about it.
type CategoryInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

var categoryInfoMapping = map[Category]CategoryInfo{
	CategorySSN: {
		Severity:       SeverityCritical,
		Impact:         "A social security number enables identity theft and fraudulent credit applications.",
		Recommendation: "Blur and re-upload the image, then delete the original from the library.",
	},
	CategoryCreditCard: {
		Severity:       SeverityCritical,
		Impact:         "A visible card number can be used for card-not-present fraud.",
		Recommendation: "Delete the original image and consider asking the issuer for a new card number.",
	},
	CategoryAddress: {
		Severity:       SeverityHigh,
		Impact:         "A street address reveals where the owner lives or works.",
		Recommendation: "Blur the address before sharing the image or album.",
	},
	CategoryPhoneNumber: {
		Severity:       SeverityMedium,
		Impact:         "A phone number enables spam, phishing and SIM-swap attempts.",
		Recommendation: "Blur the number before sharing the image.",
	},
	CategoryEmailAddress: {
		Severity:       SeverityMedium,
		Impact:         "An e-mail address links the image to online accounts.",
		Recommendation: "Blur the address before sharing the image.",
	},
	CategoryName: {
		Severity:       SeverityLow,
		Impact:         "A full name can be correlated with other personal data.",
		Recommendation: "Review whether the name should be visible in shared copies.",
	},
	CategoryOtherPII: {
		Severity:       SeverityMedium,
		Impact:         "The image contains other personally identifying information.",
		Recommendation: "Review the image and blur the identified value.",
	},
}

// GetSeverity returns the severity for a category, SeverityInfo when unknown.
func GetSeverity(c Category) Severity {
	if info, ok := categoryInfoMapping[c]; ok {
		return info.Severity
	}
	return SeverityInfo
}

// GetCategoryInfo returns the risk description for a category.
func GetCategoryInfo(c Category) CategoryInfo {
	if info, ok := categoryInfoMapping[c]; ok {
		return info
	}
	return CategoryInfo{
		Severity:       SeverityInfo,
		Impact:         "Unknown category. Review manually.",
		Recommendation: "Inspect the image and decide whether it is sensitive.",
	}
}
