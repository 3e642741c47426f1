package config

import "errors"

// Configuration validation errors returned by Config.Validate and Config.ValidateScan.
var (
	// ErrInvalidMaxItems is returned when the walk cap is not positive.
	ErrInvalidMaxItems = errors.New("invalid max items: must be positive")

	// ErrInvalidMaxFindings is returned when the classification cap is not positive.
	ErrInvalidMaxFindings = errors.New("invalid max findings: must be positive")

	// ErrInvalidPageSize is returned when the page size is outside 1..100.
	ErrInvalidPageSize = errors.New("invalid page size: must be between 1 and 100")

	// ErrInvalidPadding is returned when the redaction padding is negative.
	ErrInvalidPadding = errors.New("invalid padding: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrUnknownStoreDriver is returned for a store driver other than sqlite or postgres.
	ErrUnknownStoreDriver = errors.New("unknown store driver: must be sqlite or postgres")

	// ErrMissingDatabaseURL is returned when the postgres driver is selected without a DSN.
	ErrMissingDatabaseURL = errors.New("postgres store requires a database URL")

	// ErrMissingVisionKey is returned when a scan is requested without a Vision API key.
	ErrMissingVisionKey = errors.New("missing Vision API key: set VISION_API_KEY")

	// ErrMissingGeminiKey is returned when a scan is requested without a Gemini API key.
	ErrMissingGeminiKey = errors.New("missing Gemini API key: set GEMINI_API_KEY")
)
