// Package config loads the feedback client configuration from a YAML file,
// environment variables and defaults.
package config

import (
	"time"
)

const (
	EnvHome    = "FEEDBACK_HOME"
	EnvConfig  = "FEEDBACK_CONFIG"
	defaultDir = ".feedback"
)

// Config is the root client configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Client    ClientConfig    `yaml:"client"`
	Log       LogConfig       `yaml:"log"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	// StateDir holds the session file, the config file and the debug log.
	StateDir string `yaml:"state_dir" env:"FEEDBACK_HOME"`
}

// ServerConfig locates the backend.
type ServerConfig struct {
	BaseURL string `yaml:"base_url" env:"FEEDBACK_BASE_URL" env-default:"http://localhost:5000"`
}

// ClientConfig tunes the HTTP client.
type ClientConfig struct {
	Timeout        time.Duration `yaml:"timeout"          env:"FEEDBACK_TIMEOUT"          env-default:"30s"`
	MaxAttempts    int           `yaml:"max_attempts"     env:"FEEDBACK_MAX_ATTEMPTS"     env-default:"3"`
	InitialDelay   time.Duration `yaml:"initial_delay"    env:"FEEDBACK_INITIAL_DELAY"    env-default:"500ms"`
	SummaryTimeout time.Duration `yaml:"summary_timeout"  env:"FEEDBACK_SUMMARY_TIMEOUT"  env-default:"60s"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" env:"FEEDBACK_MAX_UPLOAD_BYTES" env-default:"5242880"`
}

// LogConfig selects the log level and output format.
type LogConfig struct {
	Level  string `yaml:"level"  env:"FEEDBACK_LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"FEEDBACK_LOG_FORMAT" env-default:"text"`
}

// DashboardConfig tunes the terminal dashboard.
type DashboardConfig struct {
	WatchDebounce time.Duration `yaml:"watch_debounce" env:"FEEDBACK_WATCH_DEBOUNCE" env-default:"200ms"`
}
