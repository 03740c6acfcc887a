package application_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/felixgeelhaar/feedback/pkg/domain/feedback"
	"github.com/felixgeelhaar/feedback/pkg/domain/session"
	"github.com/felixgeelhaar/feedback/pkg/sdk"
)

var errUnreachable = errors.New("backend unreachable")

// fakeBackend is an in-memory application.Backend with failure switches and
// call counters.
type fakeBackend struct {
	mu     sync.Mutex
	role   session.Role
	items  []feedback.Item
	nextID int
	stats  feedback.Stats

	ListErr     error
	StatsErr    error
	CreateErr   error
	CheckErr    error
	SummaryText string
	SummaryErr  error
	// SummaryGate, when set, blocks Summarize until it is closed or the
	// context ends.
	SummaryGate chan struct{}

	summarizeCalls atomic.Int32
	listCalls      atomic.Int32
	statsCalls     atomic.Int32
	created        []feedback.Submission
}

func newFakeBackend(items ...feedback.Item) *fakeBackend {
	b := &fakeBackend{role: session.RoleAnonymous, nextID: 1, SummaryText: "A short summary."}
	for _, it := range items {
		it.ID = b.nextID
		b.nextID++
		b.items = append(b.items, it)
	}
	b.recount()
	return b
}

func (b *fakeBackend) setRole(r session.Role) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.role = r
}

func (b *fakeBackend) recount() {
	b.stats = feedback.Stats{Total: len(b.items), ByCategory: map[string]int{}, BySentiment: map[string]int{}}
	for _, it := range b.items {
		b.stats.ByCategory[it.Category.String()]++
		b.stats.BySentiment[it.Sentiment.String()]++
	}
}

func (b *fakeBackend) CheckAdmin(context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.CheckErr != nil {
		return false, b.CheckErr
	}
	return b.role == session.RoleAdmin, nil
}

func (b *fakeBackend) CheckUser(context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.CheckErr != nil {
		return false, b.CheckErr
	}
	return b.role == session.RoleUser, nil
}

func (b *fakeBackend) ListFeedback(context.Context) ([]feedback.Item, error) {
	b.listCalls.Add(1)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ListErr != nil {
		return nil, b.ListErr
	}
	return append([]feedback.Item{}, b.items...), nil
}

func (b *fakeBackend) CreateFeedback(_ context.Context, s feedback.Submission) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.CreateErr != nil {
		return b.CreateErr
	}
	b.created = append(b.created, s)
	b.items = append(b.items, feedback.Item{
		ID: b.nextID, Text: s.Text, Category: s.Category, Sentiment: feedback.SentimentNeutral,
	})
	b.nextID++
	b.recount()
	return nil
}

func (b *fakeBackend) DeleteFeedback(_ context.Context, id int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.role != session.RoleAdmin {
		return &sdk.APIError{Op: "delete feedback", StatusCode: 401, Err: sdk.ErrAuthorizationDenied}
	}
	for i, it := range b.items {
		if it.ID == id {
			b.items = append(b.items[:i], b.items[i+1:]...)
			b.recount()
			return nil
		}
	}
	return &sdk.APIError{Op: "delete feedback", StatusCode: 404, Err: sdk.ErrAuthorizationDenied}
}

func (b *fakeBackend) GetStats(context.Context) (*feedback.Stats, error) {
	b.statsCalls.Add(1)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.StatsErr != nil {
		return nil, b.StatsErr
	}
	s := b.stats
	return &s, nil
}

func (b *fakeBackend) Summarize(ctx context.Context, _ int) (string, error) {
	b.summarizeCalls.Add(1)
	b.mu.Lock()
	gate, text, err := b.SummaryGate, b.SummaryText, b.SummaryErr
	b.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return text, err
}

func (b *fakeBackend) Export(_ context.Context, format sdk.ExportFormat) (*sdk.Export, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.role != session.RoleAdmin {
		return nil, &sdk.APIError{Op: "export", StatusCode: 401, Err: sdk.ErrAuthorizationDenied}
	}
	return &sdk.Export{Format: format, Filename: format.DefaultFilename(), Records: len(b.items)}, nil
}

func (b *fakeBackend) Signup(_ context.Context, req sdk.SignupRequest) (string, error) {
	if req.Email == "taken@example.com" {
		return "", &sdk.APIError{Op: "signup", StatusCode: 400, Message: "User already exists", Err: sdk.ErrSignupRejected}
	}
	return "User registered", nil
}

func (b *fakeBackend) Login(_ context.Context, email, password string) error {
	if password != "pw" {
		return &sdk.APIError{Op: "login", StatusCode: 401, Err: sdk.ErrInvalidLogin}
	}
	b.setRole(session.RoleUser)
	return nil
}

func (b *fakeBackend) AdminLogin(_ context.Context, username, password string) error {
	if username != "admin" || password != "pw" {
		return &sdk.APIError{Op: "admin login", StatusCode: 401, Err: sdk.ErrInvalidLogin}
	}
	b.setRole(session.RoleAdmin)
	return nil
}

func (b *fakeBackend) Logout(_ context.Context, role session.Role) error {
	b.setRole(session.RoleAnonymous)
	return nil
}
