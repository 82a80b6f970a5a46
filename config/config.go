// Package config loads the application configuration from a YAML file,
// filling every omitted field with a sensible default.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Backend    Backend    `yaml:"backend"`
	Summarizer Summarizer `yaml:"summarizer"`
	Storage    Storage    `yaml:"storage"`
	Logging    Logging    `yaml:"logging"`
	Metrics    Metrics    `yaml:"metrics"`
}

// Backend configures the websocket connection to the transcription
// backend.
type Backend struct {
	URL                  string        `yaml:"url"`
	AutoReconnect        bool          `yaml:"auto_reconnect"`
	MaxReconnectAttempts int           `yaml:"max_reconnect_attempts"`
	ReconnectDelay       time.Duration `yaml:"reconnect_delay"`
	HeartbeatInterval    time.Duration `yaml:"heartbeat_interval"`
	DialTimeout          time.Duration `yaml:"dial_timeout"`
}

// Summarizer configures the summarization backend and scheduler.
type Summarizer struct {
	BaseURL           string        `yaml:"base_url"`
	DebounceCapturing time.Duration `yaml:"debounce_capturing"`
	DebounceIdle      time.Duration `yaml:"debounce_idle"`
	MinGrowthChars    int           `yaml:"min_growth_chars"`
	MaxSegmentChars   int           `yaml:"max_segment_chars"`
	MaxSegments       int           `yaml:"max_segments"`
	RatePerSecond     float64       `yaml:"rate_per_second"`
	RateBurst         int           `yaml:"rate_burst"`
}

// Storage selects and configures the session persistence backend.
type Storage struct {
	// Backend is "file" or "redis".
	Backend  string `yaml:"backend"`
	Path     string `yaml:"path"`
	RedisURL string `yaml:"redis_url"`
	RedisKey string `yaml:"redis_key"`
}

// Logging configures the structured logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Backend: Backend{
			URL:                  "ws://localhost:8000/ws",
			AutoReconnect:        true,
			MaxReconnectAttempts: 5,
			ReconnectDelay:       3 * time.Second,
			HeartbeatInterval:    30 * time.Second,
			DialTimeout:          10 * time.Second,
		},
		Summarizer: Summarizer{
			BaseURL:           "http://localhost:8000",
			DebounceCapturing: 1100 * time.Millisecond,
			DebounceIdle:      300 * time.Millisecond,
			MinGrowthChars:    40,
			MaxSegmentChars:   320,
			MaxSegments:       40,
			RatePerSecond:     2,
			RateBurst:         1,
		},
		Storage: Storage{
			Backend: "file",
			Path:    "sessions.json",
		},
		Logging: Logging{
			Level:  "info",
			Format: "text",
		},
		Metrics: Metrics{
			Enabled: false,
			Addr:    ":9090",
		},
	}
}

// Load reads a YAML configuration file. Fields absent from the file keep
// their defaults. An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case "file", "redis":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Backend.URL == "" {
		return fmt.Errorf("backend.url must be set")
	}
	return nil
}
