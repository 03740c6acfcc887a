package cli

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/felixgeelhaar/feedback/pkg/application"
	"github.com/felixgeelhaar/feedback/pkg/domain/feedback"
	"github.com/felixgeelhaar/feedback/pkg/sdk"
)

func TestCLIError(t *testing.T) {
	t.Run("Error with cause", func(t *testing.T) {
		cause := errors.New("root cause")
		e := NewCLIError("something failed", "try this", cause)
		if e.Error() != "something failed: root cause" {
			t.Fatalf("unexpected: %s", e.Error())
		}
		if e.ExitCode != 1 {
			t.Fatalf("expected exit code 1, got %d", e.ExitCode)
		}
	})

	t.Run("Error without cause", func(t *testing.T) {
		e := NewCLIError("something failed", "try this", nil)
		if e.Error() != "something failed" {
			t.Fatalf("unexpected: %s", e.Error())
		}
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("root")
		e := NewCLIError("msg", "", cause)
		if !errors.Is(e, cause) {
			t.Fatal("errors.Is should match wrapped cause")
		}
	})
}

func TestMapError(t *testing.T) {
	notFound := &sdk.APIError{Op: "delete", StatusCode: http.StatusNotFound, Message: "Feedback not found", Err: sdk.ErrAuthorizationDenied}
	denied := &sdk.APIError{Op: "delete", StatusCode: http.StatusUnauthorized, Message: "Unauthorized", Err: sdk.ErrAuthorizationDenied}

	tests := []struct {
		name        string
		err         error
		wantMessage string
		wantHint    string
		wantCLI     bool
	}{
		{
			name: "nil returns nil",
			err:  nil,
		},
		{
			name:        "not logged in",
			err:         fmt.Errorf("logout: %w", application.ErrNotLoggedIn),
			wantMessage: "not logged in",
			wantHint:    "feedback login",
			wantCLI:     true,
		},
		{
			name:        "delete denied keeps the alert",
			err:         &application.ActionError{Op: "delete", Alert: application.AlertDeleteFailed, Err: denied},
			wantMessage: application.AlertDeleteFailed,
			wantHint:    "admin login",
			wantCLI:     true,
		},
		{
			name:        "delete of a missing id hints at list",
			err:         &application.ActionError{Op: "delete", Alert: application.AlertDeleteFailed, Err: notFound},
			wantMessage: application.AlertDeleteFailed,
			wantHint:    "feedback list",
			wantCLI:     true,
		},
		{
			name:        "invalid login",
			err:         &application.ActionError{Op: "login", Alert: application.AlertInvalidLogin, Err: sdk.ErrInvalidLogin},
			wantMessage: "Invalid login",
			wantHint:    "signup",
			wantCLI:     true,
		},
		{
			name:        "empty text",
			err:         feedback.ErrEmptyText,
			wantMessage: "feedback text is required",
			wantHint:    "--text",
			wantCLI:     true,
		},
		{
			name:        "invalid category lists the choices",
			err:         fmt.Errorf("%w: %q", feedback.ErrInvalidCategory, "Praise"),
			wantMessage: "invalid category",
			wantHint:    `"Feature Request"`,
			wantCLI:     true,
		},
		{
			name:        "screenshot too large",
			err:         feedback.ErrScreenshotTooLarge,
			wantMessage: "screenshot is too large",
			wantHint:    "max_upload_bytes",
			wantCLI:     true,
		},
		{
			name:        "signup rejection shows the server text",
			err:         &application.ActionError{Op: "signup", Alert: "User already exists", Err: sdk.ErrSignupRejected},
			wantMessage: "User already exists",
			wantHint:    "feedback login",
			wantCLI:     true,
		},
		{
			name:        "unmapped action error keeps its alert",
			err:         &application.ActionError{Op: "submit", Alert: application.AlertSubmitFailed, Err: errors.New("boom")},
			wantMessage: application.AlertSubmitFailed,
			wantCLI:     true,
		},
		{
			name: "unknown error passes through",
			err:  errors.New("something else"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}

			var cliErr *CLIError
			isCLI := errors.As(got, &cliErr)
			if isCLI != tt.wantCLI {
				t.Fatalf("expected CLIError=%v, got %T", tt.wantCLI, got)
			}
			if !tt.wantCLI {
				if got != tt.err {
					t.Fatalf("expected passthrough, got %v", got)
				}
				return
			}
			if cliErr.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", cliErr.Message, tt.wantMessage)
			}
			if !strings.Contains(cliErr.Hint, tt.wantHint) {
				t.Errorf("hint = %q, want it to mention %q", cliErr.Hint, tt.wantHint)
			}
			if !errors.Is(got, tt.err) {
				t.Error("CLIError should wrap the original error")
			}
		})
	}
}

func TestMapError_Idempotent(t *testing.T) {
	first := MapError(feedback.ErrEmptyText)
	if again := MapError(first); again != first {
		t.Errorf("mapping a CLIError twice should return it unchanged")
	}
}
