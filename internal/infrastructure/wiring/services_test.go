package wiring

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/feedback/internal/infrastructure/config"
	"github.com/felixgeelhaar/feedback/pkg/domain/session"
	"github.com/felixgeelhaar/feedback/pkg/sdk/sdktest"
)

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	t.Setenv(config.EnvHome, t.TempDir())
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Server.BaseURL = baseURL
	cfg.Client.MaxAttempts = 1
	return cfg
}

func TestOpen_PersistsSessionAcrossBuilds(t *testing.T) {
	backend := sdktest.NewBackend()
	srv := sdktest.NewServer(backend)
	defer srv.Close()
	cfg := testConfig(t, srv.URL)
	ctx := context.Background()

	first, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := first.Desk.AdminLogin(ctx, sdktest.AdminUsername, sdktest.AdminPassword); err != nil {
		t.Fatalf("AdminLogin: %v", err)
	}
	first.Desk.Close()

	state, err := first.Workspace.Repo.LoadSession()
	if err != nil {
		t.Fatal(err)
	}
	if state.Role != session.RoleAdmin {
		t.Errorf("saved role = %q, want admin", state.Role)
	}
	if len(state.Cookies) == 0 {
		t.Error("expected the session cookie to be saved")
	}

	// A second process picks up the saved cookie.
	second, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer second.Desk.Close()
	if role := second.Desk.Probe(ctx); role != session.RoleAdmin {
		t.Errorf("probed role = %q, want admin", role)
	}
}

func TestBuildAppServices_InvalidBaseURL(t *testing.T) {
	cfg := testConfig(t, "http://localhost:5000")
	ws, err := NewWorkspace(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	ws.Config.Server.BaseURL = "://broken"
	if _, err := BuildAppServices(ws, nil); err == nil {
		t.Error("expected error for an invalid base URL")
	}
}
