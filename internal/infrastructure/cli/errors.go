package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/feedback/pkg/application"
	"github.com/felixgeelhaar/feedback/pkg/domain/feedback"
	"github.com/felixgeelhaar/feedback/pkg/sdk"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known errors into CLIErrors with actionable hints.
// Failed actions keep the alert text users see in the dashboard.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	var actionErr *application.ActionError
	alert := ""
	if errors.As(err, &actionErr) {
		alert = actionErr.Alert
	}
	message := func(fallback string) string {
		if alert != "" {
			return alert
		}
		return fallback
	}

	switch {
	case errors.Is(err, application.ErrNotLoggedIn):
		return NewCLIError("not logged in", "Run 'feedback login' or 'feedback admin login' first", err)
	case errors.Is(err, sdk.ErrInvalidLogin):
		return NewCLIError(message("Invalid login"), "Check your credentials, or run 'feedback signup' to create an account", err)
	case errors.Is(err, sdk.ErrAuthorizationDenied) && sdk.IsNotFound(err):
		return NewCLIError(message("feedback not found"), "Run 'feedback list' to see available ids", err)
	case errors.Is(err, sdk.ErrAuthorizationDenied):
		return NewCLIError(message("admin session required"), "Run 'feedback admin login' first", err)
	case errors.Is(err, feedback.ErrEmptyText):
		return NewCLIError("feedback text is required", "Pass the feedback with --text", err)
	case errors.Is(err, feedback.ErrInvalidCategory):
		return NewCLIError("invalid category", "Use one of: "+categoryList(), err)
	case errors.Is(err, feedback.ErrScreenshotTooLarge):
		return NewCLIError("screenshot is too large", "Attach a smaller file or raise client.max_upload_bytes", err)
	case errors.Is(err, sdk.ErrMissingField):
		return NewCLIError("missing required field", "Name, email and password are all required", err)
	case errors.Is(err, sdk.ErrSignupRejected):
		return NewCLIError(message("signup rejected"), "Try 'feedback login' if the account already exists", err)
	case errors.Is(err, sdk.ErrSummaryUnavailable):
		return NewCLIError("Unable to generate summary.", "Retry later; the backend summarizer may be busy", err)
	case errors.Is(err, sdk.ErrInvalidExport):
		return NewCLIError(message("export is malformed"), "Run with --log-level debug and check the backend logs", err)
	}

	if alert != "" {
		return NewCLIError(alert, "", err)
	}
	return err
}

func categoryList() string {
	names := make([]string, 0, 3)
	for _, c := range feedback.AllCategories() {
		names = append(names, fmt.Sprintf("%q", c.String()))
	}
	return strings.Join(names, ", ")
}
