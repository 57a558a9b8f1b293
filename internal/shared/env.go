package shared

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override values from config.toml.
const (
	EnvBaseURL     = "DEXWATCH_BASE_URL"
	EnvSSEPrefix   = "DEXWATCH_SSE_PREFIX"
	EnvLogLevel    = "DEXWATCH_LOG_LEVEL"
	EnvJournalPath = "DEXWATCH_JOURNAL_PATH"
	EnvLayoutPath  = "DEXWATCH_LAYOUT_PATH"
	EnvRetryMS     = "DEXWATCH_RETRY_MS"
)

// LoadEnv loads variables from the given .env files (".env" when none are given).
//
// A missing file is not an error.
func LoadEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// ApplyEnv copies DEXWATCH_* environment overrides onto c.
//
// Setting DEXWATCH_JOURNAL_PATH also enables the journal.
func ApplyEnv(c *Config) {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Server.BaseURL = v
	}
	if v, ok := os.LookupEnv(EnvSSEPrefix); ok {
		c.Server.SSEPrefix = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvJournalPath); v != "" {
		c.Journal.Path = v
		c.Journal.Enabled = true
	}
	if v := os.Getenv(EnvLayoutPath); v != "" {
		c.Layout.Path = v
	}
	if v := os.Getenv(EnvRetryMS); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			c.Stream.RetryMS = ms
		}
	}
}
