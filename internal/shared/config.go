package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Stream  StreamConfig  `toml:"stream"`
	Journal JournalConfig `toml:"journal"`
	Layout  LayoutConfig  `toml:"layout"`
	Log     LogConfig     `toml:"log"`
	UI      UIConfig      `toml:"ui"`
}

// ServerConfig describes where the live page and its event stream are served.
type ServerConfig struct {
	BaseURL   string `toml:"base_url"`
	SSEPrefix string `toml:"sse_prefix"`
}

// StreamConfig contains event stream transport settings.
type StreamConfig struct {
	RetryMS       int               `toml:"retry_ms"`
	MaxBackoffMS  int               `toml:"max_backoff_ms"`
	ReconnectRate float64           `toml:"reconnect_rate"`
	QueueSize     int               `toml:"queue_size"`
	Headers       map[string]string `toml:"headers"`
}

// Retry returns the configured reconnection delay.
func (s StreamConfig) Retry() time.Duration {
	return time.Duration(s.RetryMS) * time.Millisecond
}

// MaxBackoff returns the configured upper bound on the reconnection delay.
func (s StreamConfig) MaxBackoff() time.Duration {
	return time.Duration(s.MaxBackoffMS) * time.Millisecond
}

// JournalConfig contains event journal database settings.
type JournalConfig struct {
	Enabled      bool   `toml:"enabled"`
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// LayoutConfig points at the games layout file and the game shown by default.
type LayoutConfig struct {
	Path string `toml:"path"`
	Game string `toml:"game"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	Columns int `toml:"columns"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate reports settings that would make the stream unusable.
func (c *Config) Validate() error {
	if c.Stream.RetryMS < 0 || c.Stream.MaxBackoffMS < 0 {
		return fmt.Errorf("%w: stream delays must not be negative", ErrInvalidConfig)
	}
	if c.Stream.MaxBackoffMS > 0 && c.Stream.MaxBackoffMS < c.Stream.RetryMS {
		return fmt.Errorf("%w: max_backoff_ms (%d) is below retry_ms (%d)", ErrInvalidConfig, c.Stream.MaxBackoffMS, c.Stream.RetryMS)
	}
	if c.Stream.QueueSize < 0 {
		return fmt.Errorf("%w: queue_size must not be negative", ErrInvalidConfig)
	}
	if c.UI.Columns < 0 {
		return fmt.Errorf("%w: ui columns must not be negative", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
