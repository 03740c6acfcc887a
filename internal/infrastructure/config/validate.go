package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"text", "json"}
)

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server.base_url must be an http(s) URL with a host (got %q)", c.Server.BaseURL)
	}

	if err := c.Client.validate(); err != nil {
		return fmt.Errorf("client: %w", err)
	}

	if !slices.Contains(validLevels, strings.ToLower(c.Log.Level)) {
		return fmt.Errorf("log.level must be one of %s (got %q)", strings.Join(validLevels, ", "), c.Log.Level)
	}
	if !slices.Contains(validFormats, strings.ToLower(c.Log.Format)) {
		return fmt.Errorf("log.format must be one of %s (got %q)", strings.Join(validFormats, ", "), c.Log.Format)
	}

	if c.Dashboard.WatchDebounce < 0 {
		return fmt.Errorf("dashboard.watch_debounce must be >= 0 (got %v)", c.Dashboard.WatchDebounce)
	}
	return nil
}

func (c *ClientConfig) validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0 (got %v)", c.Timeout)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1 (got %d)", c.MaxAttempts)
	}
	if c.InitialDelay < 0 {
		return fmt.Errorf("initial_delay must be >= 0 (got %v)", c.InitialDelay)
	}
	if c.SummaryTimeout <= 0 {
		return fmt.Errorf("summary_timeout must be > 0 (got %v)", c.SummaryTimeout)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be > 0 (got %d)", c.MaxUploadBytes)
	}
	return nil
}
