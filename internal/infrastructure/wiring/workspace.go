package wiring

import (
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/feedback/internal/infrastructure/config"
	"github.com/felixgeelhaar/feedback/pkg/storage"
)

// Workspace bundles the local state: the state directory and the cookie jar
// persisted inside it.
type Workspace struct {
	Config *config.Config
	Repo   *storage.FilesystemRepository
	Jar    *storage.PersistentJar
}

// NewWorkspace opens the state directory named by cfg and loads the saved
// session for the configured backend.
func NewWorkspace(cfg *config.Config, logger *slog.Logger) (*Workspace, error) {
	repo := storage.NewFilesystemRepository(cfg.StateDir)
	if err := repo.Initialize(); err != nil {
		return nil, fmt.Errorf("initialize state directory: %w", err)
	}
	jar, err := storage.NewPersistentJar(repo, cfg.Server.BaseURL, logger)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return &Workspace{Config: cfg, Repo: repo, Jar: jar}, nil
}
