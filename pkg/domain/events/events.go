// Package events carries change notifications from the feedback desk to its
// views.
package events

import (
	"time"

	"github.com/felixgeelhaar/feedback/pkg/domain/session"
)

// Event types emitted by the desk.
const (
	EventTypeRoleChanged     = "session.role_changed"
	EventTypeSessionReset    = "session.reset"
	EventTypeFeedbackLoaded  = "feedback.loaded"
	EventTypeFeedbackCreated = "feedback.created"
	EventTypeFeedbackDeleted = "feedback.deleted"
	EventTypeStatsLoaded     = "stats.loaded"
	EventTypeSummaryUpdated  = "summary.updated"
	EventTypeOperationFailed = "operation.failed"
)

// DomainEvent is implemented by every event.
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
	// Generation is the session generation the event belongs to. Views drop
	// events from an older generation.
	Generation() uint64
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	Type string
	At   time.Time
	Gen  uint64
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.At }
func (e BaseEvent) Generation() uint64    { return e.Gen }

// NewBaseEvent stamps an event of the given type.
func NewBaseEvent(eventType string, gen uint64) BaseEvent {
	return BaseEvent{Type: eventType, At: time.Now(), Gen: gen}
}

// RoleChanged is emitted after a probe resolves to a different role.
type RoleChanged struct {
	BaseEvent
	From session.Role
	To   session.Role
}

// FeedbackDeleted is emitted after a successful delete.
type FeedbackDeleted struct {
	BaseEvent
	ID int
}

// SummaryUpdated is emitted when a summary entry changes state.
type SummaryUpdated struct {
	BaseEvent
	ID   int
	Text string
}

// OperationFailed carries the user-facing alert for a failed action.
type OperationFailed struct {
	BaseEvent
	Op    string
	Alert string
	Err   error
}
