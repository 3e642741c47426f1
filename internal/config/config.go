package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultMaxItems bounds the number of image items collected by a library walk.
	// The bound is checked after each page is appended, so a walk may overshoot it
	// by up to one page.
	DefaultMaxItems = 500

	// DefaultMaxFindings is the maximum number of sensitive items retained per scan.
	// Once reached, the remaining candidates are never sent to the classifier.
	DefaultMaxFindings = 20

	// DefaultPageSize is the page size requested from the photo library.
	// 100 is the largest value accepted by the Google Photos Library API.
	DefaultPageSize = 100

	// DefaultPadding is the number of pixels added around a merged text box.
	DefaultPadding = 10

	// DefaultTimeout is the timeout applied to each outbound HTTP request.
	// Vision and Gemini calls on large images regularly take tens of seconds.
	DefaultTimeout = 45 * time.Second

	// DefaultScanTimeout bounds a whole scan: the library walk plus every
	// gate call.
	DefaultScanTimeout = 15 * time.Minute

	// DefaultBatchSize is the number of accounts scanned concurrently by a batch run.
	DefaultBatchSize = 2

	// DefaultListenAddress is the address used by "privasee serve".
	DefaultListenAddress = ":8080"

	// DefaultGeminiModel is the generative model used for classification.
	DefaultGeminiModel = "gemini-2.0-flash"

	// DefaultStoreDriver selects the embedded SQLite flag store.
	DefaultStoreDriver = "sqlite"

	// AppName is the application name used for XDG directory paths.
	AppName = "privasee"
)

// Supported flag store drivers.
const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// Config holds all configuration options for privasee.
// It is populated from defaults, the config file, the environment and CLI flags
// (in that order of increasing precedence) and passed down explicitly.
type Config struct {
	// AccessToken is the OAuth access token for the photo library.
	// It is never read from the config file, only from flags or the environment.
	AccessToken string

	// Accounts holds additional access tokens for batch scans, keyed by label.
	Accounts map[string]string

	// MaxItems is the walk cap. See DefaultMaxItems.
	MaxItems int

	// MaxFindings is the classification cap. See DefaultMaxFindings.
	MaxFindings int

	// PageSize is the page size requested from the photo library.
	PageSize int

	// Padding is added around merged text boxes before redaction.
	Padding int

	// Timeout is the per-request timeout for outbound API calls.
	Timeout time.Duration

	// ScanTimeout bounds one complete scan.
	ScanTimeout time.Duration

	// BatchSize is the number of concurrent account scans.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches the log handler to JSON output.
	LogJSON bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .privasee is searched in the current and home directories.
	ConfigFilePath string

	// JSONReport and MarkdownReport select the report format. They are mutually exclusive.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// OutputDir is where redacted images are written by "privasee review accept".
	OutputDir string

	// StoreDriver is either "sqlite" or "postgres".
	StoreDriver string

	// DBDir is the SQLite database directory.
	DBDir string

	// DatabaseURL is the PostgreSQL connection string when StoreDriver is "postgres".
	DatabaseURL string

	// ListenAddress is the HTTP listen address for "privasee serve".
	ListenAddress string

	// StaticDir is an optional frontend build directory served by "privasee serve".
	StaticDir string

	// OAuth client settings for the identity provider.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// VisionAPIKey authenticates requests to the text extraction service.
	VisionAPIKey string

	// GeminiAPIKey authenticates requests to the sensitivity classifier.
	GeminiAPIKey string

	// GeminiModel is the generative model name.
	GeminiModel string

	// Base URLs of the external services. Overridable for testing.
	PhotosBaseURL string
	VisionBaseURL string
	GeminiBaseURL string

	// Analytics (GA4 Measurement Protocol). Tracking is disabled when empty.
	GAMeasurementID string
	GAAPISecret     string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		MaxItems:      DefaultMaxItems,
		MaxFindings:   DefaultMaxFindings,
		PageSize:      DefaultPageSize,
		Padding:       DefaultPadding,
		Timeout:       DefaultTimeout,
		ScanTimeout:   DefaultScanTimeout,
		BatchSize:     DefaultBatchSize,
		StoreDriver:   DefaultStoreDriver,
		DBDir:         XDGDataDir(),
		OutputDir:     filepath.Join(XDGCacheDir(), "redacted"),
		ListenAddress: DefaultListenAddress,
		GeminiModel:   DefaultGeminiModel,
		Accounts:      make(map[string]string),
	}
}

// XDGDataDir returns the XDG data directory for privasee.
// On Linux: ~/.local/share/privasee
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for privasee.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for privasee.
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks if the configuration is valid and returns the first problem found.
func (c *Config) Validate() error {
	if c.MaxItems <= 0 {
		return ErrInvalidMaxItems
	}
	if c.MaxFindings <= 0 {
		return ErrInvalidMaxFindings
	}
	if c.PageSize <= 0 || c.PageSize > DefaultPageSize {
		return ErrInvalidPageSize
	}
	if c.Padding < 0 {
		return ErrInvalidPadding
	}
	if c.Timeout <= 0 || c.ScanTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	switch c.StoreDriver {
	case StoreDriverSQLite:
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return ErrMissingDatabaseURL
		}
	default:
		return ErrUnknownStoreDriver
	}
	return nil
}

// ValidateScan checks the settings required to run a scan.
func (c *Config) ValidateScan() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.VisionAPIKey == "" {
		return ErrMissingVisionKey
	}
	if c.GeminiAPIKey == "" {
		return ErrMissingGeminiKey
	}
	return nil
}
