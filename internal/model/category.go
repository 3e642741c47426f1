package model

import "strings"

// Category is a sensitivity label assigned by the classifier.
type Category string

// Categories accepted from the classifier. CategoryNotSensitive is the sentinel.
const (
	CategorySSN          Category = "SSN"
	CategoryPhoneNumber  Category = "Phone Number"
	CategoryEmailAddress Category = "Email Address"
	CategoryName         Category = "Name"
	CategoryAddress      Category = "Address"
	CategoryCreditCard   Category = "Credit Card"
	CategoryOtherPII     Category = "Other PII"
	CategoryNotSensitive Category = "Not Sensitive"
)

// Categories lists every sensitive category in prompt order.
var Categories = []Category{
	CategorySSN,
	CategoryPhoneNumber,
	CategoryEmailAddress,
	CategoryName,
	CategoryAddress,
	CategoryCreditCard,
	CategoryOtherPII,
}

var categorySynonyms = map[string]Category{
	"ssn":                    CategorySSN,
	"social security number": CategorySSN,
	"phone":                  CategoryPhoneNumber,
	"phone number":           CategoryPhoneNumber,
	"telephone":              CategoryPhoneNumber,
	"email":                  CategoryEmailAddress,
	"e-mail":                 CategoryEmailAddress,
	"email address":          CategoryEmailAddress,
	"name":                   CategoryName,
	"full name":              CategoryName,
	"address":                CategoryAddress,
	"street address":         CategoryAddress,
	"credit card":            CategoryCreditCard,
	"card number":            CategoryCreditCard,
	"other pii":              CategoryOtherPII,
	"not sensitive":          CategoryNotSensitive,
	"none":                   CategoryNotSensitive,
}

// Canonicalize maps a free-form label onto a known Category.
// Unknown non-empty labels become CategoryOtherPII; an empty label is CategoryNotSensitive.
func Canonicalize(label string) Category {
	key := strings.ToLower(strings.TrimSpace(label))
	if key == "" {
		return CategoryNotSensitive
	}
	if c, ok := categorySynonyms[key]; ok {
		return c
	}
	return CategoryOtherPII
}

// String returns the label as stored and displayed.
func (c Category) String() string {
	return string(c)
}
