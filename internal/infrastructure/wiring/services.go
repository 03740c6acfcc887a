package wiring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/feedback/internal/infrastructure/config"
	"github.com/felixgeelhaar/feedback/pkg/application"
	"github.com/felixgeelhaar/feedback/pkg/domain/events"
	"github.com/felixgeelhaar/feedback/pkg/sdk"
)

// AppServices exposes the backend client and the desk wired to a workspace.
type AppServices struct {
	Workspace *Workspace
	Client    *sdk.Client
	Desk      *application.Desk
	Logger    *slog.Logger
}

// BuildAppServices constructs the client and desk for a workspace. Role
// changes observed by the desk are recorded in the session file.
func BuildAppServices(ws *Workspace, logger *slog.Logger) (*AppServices, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := ws.Config

	client, err := sdk.NewClient(cfg.Server.BaseURL,
		sdk.WithCookieJar(ws.Jar),
		sdk.WithTimeout(cfg.Client.Timeout),
		sdk.WithRetry(cfg.Client.MaxAttempts, cfg.Client.InitialDelay),
		sdk.WithMaxUploadBytes(cfg.Client.MaxUploadBytes),
		sdk.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	desk := application.NewDeskForBackend(client, cfg.Client.SummaryTimeout, logger)
	desk.Subscribe("session-file", func(_ context.Context, e events.DomainEvent) error {
		changed, ok := e.(events.RoleChanged)
		if !ok {
			return nil
		}
		return ws.Repo.SaveRole(changed.To)
	}, events.EventTypeRoleChanged)

	return &AppServices{
		Workspace: ws,
		Client:    client,
		Desk:      desk,
		Logger:    logger,
	}, nil
}

// Open loads the workspace named by cfg and builds its services.
func Open(cfg *config.Config, logger *slog.Logger) (*AppServices, error) {
	ws, err := NewWorkspace(cfg, logger)
	if err != nil {
		return nil, err
	}
	return BuildAppServices(ws, logger)
}
