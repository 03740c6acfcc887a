package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/feedback/pkg/storage"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 200 * time.Millisecond

// ChangeEvent describes a change to a watched file.
type ChangeEvent struct {
	Path       string
	ChangeType string // "create", "write", "remove", "rename"
}

// SessionWatcher reports changes to the session file in a state directory.
// The directory is watched rather than the file because saves replace the
// file by rename.
type SessionWatcher struct {
	watcher  *fsnotify.Watcher
	filter   *NameFilter
	debounce time.Duration
	onChange func(ChangeEvent)
	logger   *slog.Logger
}

// NewSessionWatcher watches dir for changes to the session file.
func NewSessionWatcher(dir string, debounce time.Duration, onChange func(ChangeEvent), logger *slog.Logger) (*SessionWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionWatcher{
		watcher:  w,
		filter:   NewNameFilter(storage.SessionFile),
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// Run starts the event loop. It blocks until the context is cancelled.
// Watcher errors are logged and do not stop the loop.
func (w *SessionWatcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	debouncer := NewDebouncer(w.debounce, func(ev ChangeEvent) {
		if ctx.Err() != nil || w.onChange == nil {
			return
		}
		w.onChange(ev)
	})
	defer debouncer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.filter.Matches(event.Name) {
				continue
			}
			changeType := opToChangeType(event.Op)
			if changeType == "" {
				continue
			}
			w.logger.Debug("session file changed", "path", event.Name, "change", changeType)
			debouncer.Trigger(ChangeEvent{Path: event.Name, ChangeType: changeType})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("session watcher error", "error", err)
		}
	}
}

func opToChangeType(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	default:
		return ""
	}
}
