package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/feedback/pkg/domain/session"
	"github.com/felixgeelhaar/feedback/pkg/sdk"
)

// AuthService runs the signup, login and logout flows. Every successful
// login or logout re-probes the session and returns the resulting role.
type AuthService struct {
	auth   Authenticator
	probe  *SessionProbe
	logger *slog.Logger
}

func NewAuthService(auth Authenticator, probe *SessionProbe, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{auth: auth, probe: probe, logger: logger}
}

// Signup registers an account. The backend's message is returned verbatim on
// success; on rejection the ActionError alert is the backend's error text.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (string, error) {
	msg, err := s.auth.Signup(ctx, sdk.SignupRequest{Name: name, Email: email, Password: password})
	if err != nil {
		alert := err.Error()
		var apiErr *sdk.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			alert = apiErr.Message
		}
		s.logger.Info("signup rejected", "email", email, "error", err)
		return "", &ActionError{Op: "signup", Alert: alert, Err: err}
	}
	s.logger.Info("signup succeeded", "email", email)
	return msg, nil
}

// Login starts a user session.
func (s *AuthService) Login(ctx context.Context, email, password string) (session.Role, error) {
	if err := s.auth.Login(ctx, email, password); err != nil {
		s.logger.Info("login failed", "email", email, "error", err)
		return session.RoleAnonymous, &ActionError{Op: "login", Alert: AlertInvalidLogin, Err: err}
	}
	role := s.probe.Role(ctx)
	s.logger.Info("login succeeded", "email", email, "role", role)
	return role, nil
}

// AdminLogin starts an admin session.
func (s *AuthService) AdminLogin(ctx context.Context, username, password string) (session.Role, error) {
	if err := s.auth.AdminLogin(ctx, username, password); err != nil {
		s.logger.Info("admin login failed", "username", username, "error", err)
		return session.RoleAnonymous, &ActionError{Op: "admin login", Alert: AlertInvalidLogin, Err: err}
	}
	role := s.probe.Role(ctx)
	s.logger.Info("admin login succeeded", "username", username, "role", role)
	return role, nil
}

// Logout ends the session of the given role.
func (s *AuthService) Logout(ctx context.Context, role session.Role) (session.Role, error) {
	if !role.IsAuthenticated() {
		return session.RoleAnonymous, ErrNotLoggedIn
	}
	if err := s.auth.Logout(ctx, role); err != nil {
		return role, fmt.Errorf("logout: %w", err)
	}
	next := s.probe.Role(ctx)
	s.logger.Info("logged out", "role", role, "now", next)
	return next, nil
}

// LogoutNotice is the notice shown after a successful logout of role.
func LogoutNotice(role session.Role) string {
	if role.IsAdmin() {
		return NoticeAdminLoggedOut
	}
	return NoticeUserLoggedOut
}
