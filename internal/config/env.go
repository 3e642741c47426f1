package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names read by ApplyEnv.
const (
	EnvAccessToken        = "PRIVASEE_ACCESS_TOKEN"
	EnvAccounts           = "PRIVASEE_ACCOUNTS"
	EnvStoreDriver        = "PRIVASEE_DB_DRIVER"
	EnvDatabaseURL        = "PRIVASEE_DB_DSN"
	EnvGoogleClientID     = "GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret = "GOOGLE_CLIENT_SECRET"
	EnvGoogleRedirectURL  = "GOOGLE_REDIRECT_URI"
	EnvVisionAPIKey       = "VISION_API_KEY"
	EnvGeminiAPIKey       = "GEMINI_API_KEY"
	EnvGAMeasurementID    = "GA_MEASUREMENT_ID"
	EnvGAAPISecret        = "GA_API_SECRET"
	EnvPort               = "PORT"
)

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set.
// Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// ApplyEnv overlays values from the environment onto cfg.
// lookup is usually os.LookupEnv; tests pass a map-backed function.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	set(&cfg.AccessToken, EnvAccessToken)
	set(&cfg.StoreDriver, EnvStoreDriver)
	set(&cfg.DatabaseURL, EnvDatabaseURL)
	set(&cfg.GoogleClientID, EnvGoogleClientID)
	set(&cfg.GoogleClientSecret, EnvGoogleClientSecret)
	set(&cfg.GoogleRedirectURL, EnvGoogleRedirectURL)
	set(&cfg.VisionAPIKey, EnvVisionAPIKey)
	set(&cfg.GeminiAPIKey, EnvGeminiAPIKey)
	set(&cfg.GAMeasurementID, EnvGAMeasurementID)
	set(&cfg.GAAPISecret, EnvGAAPISecret)

	if port, ok := lookup(EnvPort); ok && port != "" {
		cfg.ListenAddress = ":" + strings.TrimPrefix(port, ":")
	}
	if v, ok := lookup(EnvAccounts); ok {
		if cfg.Accounts == nil {
			cfg.Accounts = make(map[string]string)
		}
		for label, token := range ParseAccounts(v) {
			cfg.Accounts[label] = token
		}
	}
}

// ParseAccounts parses "label=token,label2=token2". Entries without a label
// or token are dropped.
func ParseAccounts(s string) map[string]string {
	accounts := make(map[string]string)
	for entry := range strings.SplitSeq(s, ",") {
		label, token, ok := strings.Cut(entry, "=")
		label, token = strings.TrimSpace(label), strings.TrimSpace(token)
		if !ok || label == "" || token == "" {
			continue
		}
		accounts[label] = token
	}
	return accounts
}
