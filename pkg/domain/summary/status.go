package summary

// Status is the per-item summary state.
type Status string

const (
	StatusUnset    Status = "unset"
	StatusLoading  Status = "loading"
	StatusResolved Status = "resolved"
	StatusFailed   Status = "failed"
)

// Events accepted by the summary machine.
const (
	EventRequest = "request"
	EventResolve = "resolve"
	EventFail    = "fail"
)

// Placeholder texts shown while a summary is pending or after it failed.
const (
	LoadingText = "Loading summary..."
	FailedText  = "Unable to generate summary."
)

// IsTerminal returns true once a fetch has settled.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusFailed
}

// IsInFlight returns true while a fetch is outstanding.
func (s Status) IsInFlight() bool {
	return s == StatusLoading
}

// Entry is the displayed value for one item.
type Entry struct {
	Status Status
	Text   string
}

// Display returns the text a view should show, or "" for an unset entry.
func (e Entry) Display() string {
	switch e.Status {
	case StatusLoading:
		return LoadingText
	case StatusFailed:
		return FailedText
	case StatusResolved:
		return e.Text
	default:
		return ""
	}
}
