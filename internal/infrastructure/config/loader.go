package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/feedback/pkg/storage"
	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// DefaultStateDir returns $FEEDBACK_HOME, or ~/.feedback.
func DefaultStateDir() (string, error) {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home directory: %w", err)
	}
	return filepath.Join(home, defaultDir), nil
}

// DefaultPath returns the config file inside the default state directory.
func DefaultPath() (string, error) {
	dir, err := DefaultStateDir()
	if err != nil {
		return "", err
	}
	return storage.NewFilesystemRepository(dir).ResolvePath(storage.ConfigFile)
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > defaults (via env-default tags).
// The file is path, else $FEEDBACK_CONFIG, else config.yaml in the state
// directory. A missing file is an error only when it was named explicitly.
func Load(path string) (*Config, error) {
	var cfg Config

	explicitPath := path != ""
	if !explicitPath {
		path = os.Getenv(EnvConfig)
		explicitPath = path != ""
	}
	if !explicitPath {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	if cfg.StateDir == "" {
		dir, err := DefaultStateDir()
		if err != nil {
			return nil, err
		}
		cfg.StateDir = dir
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration built from defaults and the environment
// only.
func Default() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	if cfg.StateDir == "" {
		dir, err := DefaultStateDir()
		if err != nil {
			return nil, err
		}
		cfg.StateDir = dir
	}
	return &cfg, nil
}

// fileConfig is the on-disk layout. Durations are written as strings so the
// file round-trips through Load.
type fileConfig struct {
	Server struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"server"`
	Client struct {
		Timeout        string `yaml:"timeout"`
		MaxAttempts    int    `yaml:"max_attempts"`
		InitialDelay   string `yaml:"initial_delay"`
		SummaryTimeout string `yaml:"summary_timeout"`
		MaxUploadBytes int64  `yaml:"max_upload_bytes"`
	} `yaml:"client"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Dashboard struct {
		WatchDebounce string `yaml:"watch_debounce"`
	} `yaml:"dashboard"`
	StateDir string `yaml:"state_dir,omitempty"`
}

// Marshal renders cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	var f fileConfig
	f.Server.BaseURL = cfg.Server.BaseURL
	f.Client.Timeout = cfg.Client.Timeout.String()
	f.Client.MaxAttempts = cfg.Client.MaxAttempts
	f.Client.InitialDelay = cfg.Client.InitialDelay.String()
	f.Client.SummaryTimeout = cfg.Client.SummaryTimeout.String()
	f.Client.MaxUploadBytes = cfg.Client.MaxUploadBytes
	f.Log.Level = cfg.Log.Level
	f.Log.Format = cfg.Log.Format
	f.Dashboard.WatchDebounce = cfg.Dashboard.WatchDebounce.String()
	f.StateDir = cfg.StateDir

	data, err := yaml.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("config: marshal: %w", err)
	}
	return data, nil
}

// Save writes cfg to path, creating the parent directory.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	// G301: Use 0700 for directories
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	// G306: Use 0600 for files
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
