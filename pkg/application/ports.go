package application

import (
	"context"

	"github.com/felixgeelhaar/feedback/pkg/domain/feedback"
	"github.com/felixgeelhaar/feedback/pkg/domain/session"
	"github.com/felixgeelhaar/feedback/pkg/sdk"
)

// SessionChecker answers the two session probes.
type SessionChecker interface {
	CheckAdmin(ctx context.Context) (bool, error)
	CheckUser(ctx context.Context) (bool, error)
}

// FeedbackRepository is the remote feedback collection.
type FeedbackRepository interface {
	ListFeedback(ctx context.Context) ([]feedback.Item, error)
	CreateFeedback(ctx context.Context, s feedback.Submission) error
	DeleteFeedback(ctx context.Context, id int) error
}

// StatsSource serves the precomputed aggregates.
type StatsSource interface {
	GetStats(ctx context.Context) (*feedback.Stats, error)
}

// Summarizer produces a summary for one item.
type Summarizer interface {
	Summarize(ctx context.Context, id int) (string, error)
}

// Exporter downloads the collection as a document.
type Exporter interface {
	Export(ctx context.Context, format sdk.ExportFormat) (*sdk.Export, error)
}

// Authenticator starts and ends backend sessions.
type Authenticator interface {
	Signup(ctx context.Context, req sdk.SignupRequest) (string, error)
	Login(ctx context.Context, email, password string) error
	AdminLogin(ctx context.Context, username, password string) error
	Logout(ctx context.Context, role session.Role) error
}

// Backend is everything the desk needs from the remote service.
// *sdk.Client implements it.
type Backend interface {
	SessionChecker
	FeedbackRepository
	StatsSource
	Summarizer
	Exporter
	Authenticator
}

var _ Backend = (*sdk.Client)(nil)
