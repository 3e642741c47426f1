package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".privasee"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .privasee configuration file.
// Secrets are deliberately absent: tokens and API keys come from the environment.
type File struct {
	Scan    ScanSection   `yaml:"scan,omitempty"`
	Store   StoreSection  `yaml:"store,omitempty"`
	Server  ServerSection `yaml:"server,omitempty"`
	Report  ReportSection `yaml:"report,omitempty"`
	Gemini  GeminiSection `yaml:"gemini,omitempty"`
	Timeout string        `yaml:"timeout,omitempty"`

	// ScanTimeout bounds a whole scan, e.g. "15m".
	ScanTimeout string `yaml:"scanTimeout,omitempty"`
}

// ScanSection holds scan limits.
type ScanSection struct {
	MaxItems    int `yaml:"maxItems,omitempty"`
	MaxFindings int `yaml:"maxFindings,omitempty"`
	PageSize    int `yaml:"pageSize,omitempty"`
	Padding     int `yaml:"padding,omitempty"`
	BatchSize   int `yaml:"batchSize,omitempty"`
}

// StoreSection selects the flag store backend.
type StoreSection struct {
	Driver string `yaml:"driver,omitempty"`
	Dir    string `yaml:"dir,omitempty"`
}

// ServerSection configures "privasee serve".
type ServerSection struct {
	Listen    string `yaml:"listen,omitempty"`
	StaticDir string `yaml:"staticDir,omitempty"`
}

// ReportSection configures report output.
type ReportSection struct {
	Format    string `yaml:"format,omitempty"`
	OutputDir string `yaml:"outputDir,omitempty"`
}

// GeminiSection configures the classifier model.
type GeminiSection struct {
	Model string `yaml:"model,omitempty"`
}

// LoadConfigFile loads a YAML configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// Apply copies every non-zero value of the file onto cfg.
func (cf *File) Apply(cfg *Config) error {
	if cf.Scan.MaxItems != 0 {
		cfg.MaxItems = cf.Scan.MaxItems
	}
	if cf.Scan.MaxFindings != 0 {
		cfg.MaxFindings = cf.Scan.MaxFindings
	}
	if cf.Scan.PageSize != 0 {
		cfg.PageSize = cf.Scan.PageSize
	}
	if cf.Scan.Padding != 0 {
		cfg.Padding = cf.Scan.Padding
	}
	if cf.Scan.BatchSize != 0 {
		cfg.BatchSize = cf.Scan.BatchSize
	}
	if cf.Store.Driver != "" {
		cfg.StoreDriver = cf.Store.Driver
	}
	if cf.Store.Dir != "" {
		cfg.DBDir = cf.Store.Dir
	}
	if cf.Server.Listen != "" {
		cfg.ListenAddress = cf.Server.Listen
	}
	if cf.Server.StaticDir != "" {
		cfg.StaticDir = cf.Server.StaticDir
	}
	if cf.Report.OutputDir != "" {
		cfg.OutputDir = cf.Report.OutputDir
	}
	switch cf.Report.Format {
	case "json":
		cfg.JSONReport = true
	case "markdown":
		cfg.MarkdownReport = true
	}
	if cf.Gemini.Model != "" {
		cfg.GeminiModel = cf.Gemini.Model
	}
	if cf.Timeout != "" {
		d, err := time.ParseDuration(cf.Timeout)
		if err != nil {
			return err
		}
		cfg.Timeout = d
	}
	if cf.ScanTimeout != "" {
		d, err := time.ParseDuration(cf.ScanTimeout)
		if err != nil {
			return err
		}
		cfg.ScanTimeout = d
	}
	return nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .privasee in the current directory
// 3. Look for .privasee in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
