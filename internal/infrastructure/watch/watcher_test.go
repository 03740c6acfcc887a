package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/feedback/pkg/domain/session"
	"github.com/felixgeelhaar/feedback/pkg/storage"
)

func startWatcher(t *testing.T, dir string, onChange func(ChangeEvent)) context.CancelFunc {
	t.Helper()
	w, err := NewSessionWatcher(dir, 50*time.Millisecond, onChange, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = w.Run(ctx)
	}()
	// Give watcher time to start
	time.Sleep(50 * time.Millisecond)
	return cancel
}

func TestSessionWatcher_DetectsSessionSave(t *testing.T) {
	dir := t.TempDir()
	repo := storage.NewFilesystemRepository(dir)

	var eventCount atomic.Int32
	var lastPath atomic.Value
	cancel := startWatcher(t, dir, func(e ChangeEvent) {
		eventCount.Add(1)
		lastPath.Store(e.Path)
	})
	defer cancel()

	if err := repo.SaveSession(&storage.SessionState{BaseURL: "http://localhost:5000", Role: session.RoleUser}); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)

	if got := eventCount.Load(); got != 1 {
		t.Errorf("expected the save to coalesce into 1 event, got %d", got)
	}
	if p, _ := lastPath.Load().(string); filepath.Base(p) != storage.SessionFile {
		t.Errorf("unexpected path %q", p)
	}
}

func TestSessionWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	var eventCount atomic.Int32
	cancel := startWatcher(t, dir, func(ChangeEvent) {
		eventCount.Add(1)
	})
	defer cancel()

	if err := os.WriteFile(filepath.Join(dir, storage.LogFile), []byte("line\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, storage.ConfigFile), []byte("log: {}\n"), 0600); err != nil {
		t.Fatal(err)
	}

	time.Sleep(200 * time.Millisecond)

	if got := eventCount.Load(); got != 0 {
		t.Errorf("expected no events, got %d", got)
	}
}

func TestSessionWatcher_DetectsRemoval(t *testing.T) {
	dir := t.TempDir()
	repo := storage.NewFilesystemRepository(dir)
	if err := repo.SaveSession(&storage.SessionState{Role: session.RoleAdmin}); err != nil {
		t.Fatal(err)
	}

	var lastType atomic.Value
	cancel := startWatcher(t, dir, func(e ChangeEvent) {
		lastType.Store(e.ChangeType)
	})
	defer cancel()

	if err := repo.ClearSession(); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)

	if got, _ := lastType.Load().(string); got != "remove" {
		t.Errorf("change type = %q, want remove", got)
	}
}

func TestNewSessionWatcher_MissingDir(t *testing.T) {
	if _, err := NewSessionWatcher(filepath.Join(t.TempDir(), "absent"), 0, nil, nil); err == nil {
		t.Error("expected error for a missing directory")
	}
}
