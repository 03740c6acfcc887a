package application

import (
	"errors"
	"fmt"
)

// User-facing alert and notice texts.
const (
	AlertDeleteFailed = "Delete failed — maybe you're not admin?"
	AlertInvalidLogin = "Invalid login"
	AlertSubmitFailed = "Could not submit feedback. Your input was kept, please try again."
	AlertExportFailed = "Export failed — maybe you're not admin?"

	NoticeUserLoggedIn   = "User logged in"
	NoticeAdminLoggedIn  = "Admin logged in"
	NoticeUserLoggedOut  = "User logged out"
	NoticeAdminLoggedOut = "Admin logged out"
	NoticeSubmitted      = "Feedback submitted"
	NoticeDeleted        = "Feedback deleted"
)

var (
	// ErrNotLoggedIn is returned by logout without a session.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrSessionChanged is returned when a result arrives after the session
	// it was requested in has ended. The result is discarded.
	ErrSessionChanged = errors.New("session changed while request was in flight")
)

// ActionError pairs a failed action with the alert shown to the user.
type ActionError struct {
	Op    string
	Alert string
	Err   error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// AlertText returns the alert for err: the ActionError alert when there is
// one, otherwise the error text.
func AlertText(err error) string {
	if err == nil {
		return ""
	}
	var ae *ActionError
	if errors.As(err, &ae) && ae.Alert != "" {
		return ae.Alert
	}
	return err.Error()
}
