// Package storage persists client-side state under the feedback state
// directory: the session file with the backend cookies, the config file and
// the dashboard debug log.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/felixgeelhaar/feedback/pkg/domain/session"
	"github.com/felixgeelhaar/fortify/retry"
)

const (
	SessionFile = "session.json"
	ConfigFile  = "config.yaml"
	LogFile     = "debug.log"
)

// StoredCookie is the persisted form of one session cookie.
type StoredCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SessionState is the content of session.json.
type SessionState struct {
	BaseURL   string         `json:"base_url"`
	Role      session.Role   `json:"role"`
	Cookies   []StoredCookie `json:"cookies"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// FilesystemRepository reads and writes files directly inside the state
// directory.
type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the state directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// ResolvePath ensures the path is a direct child of the state directory.
func (r *FilesystemRepository) ResolvePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	baseDir := filepath.Clean(r.root)
	cleanPath := filepath.Clean(filepath.Join(baseDir, filename))

	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}
	return cleanPath, nil
}

func (r *FilesystemRepository) Initialize() error {
	// G301: Use 0700 for directories
	if err := os.MkdirAll(r.root, 0700); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(r.root)
	return err == nil
}

// SaveSession writes the session file atomically.
func (r *FilesystemRepository) SaveSession(s *SessionState) error {
	if err := r.Initialize(); err != nil {
		return err
	}
	path, err := r.ResolvePath(SessionFile)
	if err != nil {
		return err
	}

	if s.Role == "" {
		s.Role = session.RoleAnonymous
	}
	s.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tmp := path + ".tmp"
	// G306: Use 0600 for files
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace session: %w", err)
	}
	return nil
}

// LoadSession reads the session file. A missing file yields an empty
// anonymous session. Reads are retried since another process may be
// replacing the file.
func (r *FilesystemRepository) LoadSession() (*SessionState, error) {
	path, err := r.ResolvePath(SessionFile)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return &SessionState{Role: session.RoleAnonymous}, nil
	}

	retryer := retry.New[*SessionState](r.retryConfig)
	return retryer.Do(context.Background(), func(ctx context.Context) (*SessionState, error) {
		// #nosec G304 -- Path is resolved and validated via ResolvePath
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read session file: %w", err)
		}

		var s SessionState
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session: %w", err)
		}
		if s.Role == "" {
			s.Role = session.RoleAnonymous
		}
		return &s, nil
	})
}

// ClearSession removes the session file. A missing file is not an error.
func (r *FilesystemRepository) ClearSession() error {
	path, err := r.ResolvePath(SessionFile)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}

// SaveRole records the last probed role without touching the cookies.
func (r *FilesystemRepository) SaveRole(role session.Role) error {
	s, err := r.LoadSession()
	if err != nil {
		return err
	}
	if s.Role == role {
		return nil
	}
	s.Role = role
	return r.SaveSession(s)
}
