package storage

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"github.com/felixgeelhaar/feedback/pkg/domain/session"
	"golang.org/x/net/publicsuffix"
)

// PersistentJar is an http.CookieJar that mirrors the cookies held for the
// backend origin into the session file, so consecutive CLI invocations share
// one backend session.
type PersistentJar struct {
	mu     sync.RWMutex
	jar    *cookiejar.Jar
	repo   *FilesystemRepository
	base   *url.URL
	logger *slog.Logger
}

var _ http.CookieJar = (*PersistentJar)(nil)

// NewPersistentJar creates a jar for baseURL seeded from the session file.
// Saved cookies for a different backend are ignored.
func NewPersistentJar(repo *FilesystemRepository, baseURL string, logger *slog.Logger) (*PersistentJar, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	j := &PersistentJar{repo: repo, base: base, logger: logger}
	if err := j.Reload(); err != nil {
		return nil, err
	}
	return j, nil
}

// Reload replaces the in-memory cookies with the session file content.
func (j *PersistentJar) Reload() error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}

	state, err := j.repo.LoadSession()
	if err != nil {
		return err
	}
	if state.BaseURL == j.base.String() && len(state.Cookies) > 0 {
		cookies := make([]*http.Cookie, 0, len(state.Cookies))
		for _, c := range state.Cookies {
			cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
		}
		jar.SetCookies(j.base, cookies)
	}

	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
	return nil
}

func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.jar.Cookies(u)
}

// SetCookies stores the cookies and persists the backend origin's cookie set.
// Persistence failures are logged; the in-memory jar stays authoritative.
func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	j.jar.SetCookies(u, cookies)
	current := j.jar.Cookies(j.base)
	j.mu.Unlock()

	if err := j.persist(current); err != nil {
		j.logger.Warn("failed to persist session cookies", "error", err)
	}
}

// Clear drops every cookie, in memory and on disk.
func (j *PersistentJar) Clear() error {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}
	j.mu.Lock()
	j.jar = jar
	j.mu.Unlock()
	return j.repo.ClearSession()
}

func (j *PersistentJar) persist(current []*http.Cookie) error {
	state, err := j.repo.LoadSession()
	if err != nil {
		return err
	}
	if state.BaseURL != j.base.String() {
		state = &SessionState{Role: session.RoleAnonymous}
	}
	state.BaseURL = j.base.String()
	state.Cookies = state.Cookies[:0]
	for _, c := range current {
		state.Cookies = append(state.Cookies, StoredCookie{Name: c.Name, Value: c.Value})
	}
	return j.repo.SaveSession(state)
}
