package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/felixgeelhaar/feedback/internal/infrastructure/config"
	"github.com/felixgeelhaar/feedback/internal/infrastructure/logging"
	"github.com/felixgeelhaar/feedback/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/feedback/pkg/storage"
	"github.com/spf13/cobra"
)

// loadConfig reads the config file and applies the global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, NewCLIError("failed to load configuration", "Run 'feedback config init' or fix the file named by --config", err)
	}
	if baseURLFlag != "" {
		cfg.Server.BaseURL = baseURLFlag
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, NewCLIError("invalid configuration", "Check --base-url and --log-level", err)
	}
	return cfg, nil
}

// loadServices builds the services for a one-shot command. Logs go to the
// command's error stream.
func loadServices(cmd *cobra.Command) (*wiring.AppServices, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log, cmd.ErrOrStderr())
	return openServices(cfg, logger)
}

func openServices(cfg *config.Config, logger *slog.Logger) (*wiring.AppServices, error) {
	services, err := wiring.Open(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build services: %w", err)
	}
	return services, nil
}

// loadDashboardServices is loadServices with logs written to the state
// directory, since the dashboard owns the terminal.
func loadDashboardServices() (*wiring.AppServices, *os.File, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	repo := storage.NewFilesystemRepository(cfg.StateDir)
	if err := repo.Initialize(); err != nil {
		return nil, nil, err
	}
	logPath, err := repo.ResolvePath(storage.LogFile)
	if err != nil {
		return nil, nil, err
	}
	logFile, err := logging.OpenFile(logPath)
	if err != nil {
		return nil, nil, err
	}
	services, err := openServices(cfg, logging.New(cfg.Log, logFile))
	if err != nil {
		_ = logFile.Close()
		return nil, nil, err
	}
	return services, logFile, nil
}
