package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/feedback/pkg/domain/events"
	"github.com/felixgeelhaar/feedback/pkg/domain/feedback"
	"github.com/felixgeelhaar/feedback/pkg/domain/session"
	"github.com/felixgeelhaar/feedback/pkg/domain/summary"
	"github.com/felixgeelhaar/feedback/pkg/domain/view"
	"github.com/felixgeelhaar/feedback/pkg/sdk"
	"golang.org/x/sync/errgroup"
)

// Desk owns the client state of one backend session: the role, the last
// feedback and stats snapshots, and the summaries requested so far.
//
// Every remote call runs in a context derived from both the caller's context
// and the desk's session scope. A role change cancels the scope and bumps the
// generation, so responses that arrive afterwards are discarded instead of
// being written into the new session's state.
type Desk struct {
	feedback  *FeedbackService
	stats     *StatsService
	summaries *SummaryCache
	auth      *AuthService
	probe     *SessionProbe
	events    *events.Dispatcher
	logger    *slog.Logger

	mu        sync.RWMutex
	role      session.Role
	items     []feedback.Item
	snapshot  feedback.Stats
	gen       uint64
	scope     context.Context
	cancel    context.CancelFunc
	lastError error
}

// DeskConfig collects the desk's collaborators.
type DeskConfig struct {
	Feedback   *FeedbackService
	Stats      *StatsService
	Summaries  *SummaryCache
	Auth       *AuthService
	Probe      *SessionProbe
	Dispatcher *events.Dispatcher
	Logger     *slog.Logger
}

func NewDesk(cfg DeskConfig) *Desk {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dispatcher := cfg.Dispatcher
	if dispatcher == nil {
		dispatcher = events.NewDispatcher()
	}
	scope, cancel := context.WithCancel(context.Background())
	d := &Desk{
		feedback:  cfg.Feedback,
		stats:     cfg.Stats,
		summaries: cfg.Summaries,
		auth:      cfg.Auth,
		probe:     cfg.Probe,
		events:    dispatcher,
		logger:    logger,
		role:      session.RoleAnonymous,
		items:     []feedback.Item{},
		snapshot:  feedback.Stats{}.Normalize(),
		scope:     scope,
		cancel:    cancel,
	}
	d.summaries.OnChange(func(id int, entry summary.Entry) {
		d.publish(events.SummaryUpdated{
			BaseEvent: events.NewBaseEvent(events.EventTypeSummaryUpdated, d.Generation()),
			ID:        id,
			Text:      entry.Display(),
		})
	})
	return d
}

// NewDeskForBackend wires a desk and its services around one backend.
func NewDeskForBackend(backend Backend, summaryTimeout time.Duration, logger *slog.Logger) *Desk {
	probe := NewSessionProbe(backend, logger)
	return NewDesk(DeskConfig{
		Feedback:  NewFeedbackService(backend, backend, logger),
		Stats:     NewStatsService(backend, logger),
		Summaries: NewSummaryCache(backend, summaryTimeout, logger),
		Auth:      NewAuthService(backend, probe, logger),
		Probe:     probe,
		Logger:    logger,
	})
}

// Subscribe registers a change handler. See events.Dispatcher.Subscribe.
func (d *Desk) Subscribe(name string, handler events.HandlerFunc, eventTypes ...string) func() {
	return d.events.Subscribe(name, handler, eventTypes...)
}

// Start probes the session and loads the first snapshots.
func (d *Desk) Start(ctx context.Context) error {
	d.Probe(ctx)
	return d.Refresh(ctx)
}

// Close cancels every outstanding request.
func (d *Desk) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancel()
}

// Probe re-runs the session probe. A different role resets the session state.
func (d *Desk) Probe(ctx context.Context) session.Role {
	ctx, done, gen := d.derive(ctx)
	defer done()

	role := d.probe.Role(ctx)
	if !d.current(gen) {
		return d.Role()
	}
	if role != d.Role() {
		d.resetSession(role)
	}
	return role
}

// Refresh re-fetches the feedback list and the stats concurrently. Each
// result is applied on its own as it arrives; a failed fetch keeps the
// previous snapshot and is reported in the returned error.
func (d *Desk) Refresh(ctx context.Context) error {
	ctx, done, gen := d.derive(ctx)
	defer done()

	var listErr, statsErr error
	var g errgroup.Group
	g.Go(func() error {
		items, err := d.feedback.List(ctx)
		if err != nil {
			listErr = err
			d.logger.Warn("keeping previous feedback list", "error", err)
			return nil
		}
		if d.apply(gen, func() { d.items = items }) {
			d.publish(events.NewBaseEvent(events.EventTypeFeedbackLoaded, gen))
		}
		return nil
	})
	g.Go(func() error {
		stats, err := d.stats.Refresh(ctx)
		if err != nil {
			statsErr = err
			d.logger.Warn("keeping previous stats", "error", err)
			return nil
		}
		if d.apply(gen, func() { d.snapshot = stats }) {
			d.publish(events.NewBaseEvent(events.EventTypeStatsLoaded, gen))
		}
		return nil
	})
	_ = g.Wait()

	return errors.Join(listErr, statsErr)
}

// Submit sends a submission and refreshes on success. On failure nothing
// changes; callers keep the form populated and show the alert.
func (d *Desk) Submit(ctx context.Context, sub feedback.Submission) error {
	ctx, done, gen := d.derive(ctx)
	defer done()

	if err := d.feedback.Submit(ctx, sub); err != nil {
		d.fail(gen, "submit", err)
		return err
	}
	d.publish(events.NewBaseEvent(events.EventTypeFeedbackCreated, gen))
	d.refreshAfterMutation(ctx)
	return nil
}

// Delete removes an item and refreshes on success. On failure the state is
// unchanged and the error carries AlertDeleteFailed.
func (d *Desk) Delete(ctx context.Context, id int) error {
	ctx, done, gen := d.derive(ctx)
	defer done()

	if err := d.feedback.Delete(ctx, id); err != nil {
		d.fail(gen, "delete", err)
		return err
	}
	d.publish(events.FeedbackDeleted{
		BaseEvent: events.NewBaseEvent(events.EventTypeFeedbackDeleted, gen),
		ID:        id,
	})
	d.refreshAfterMutation(ctx)
	return nil
}

func (d *Desk) refreshAfterMutation(ctx context.Context) {
	if err := d.Refresh(ctx); err != nil {
		d.logger.Warn("refresh after mutation failed", "error", err)
	}
}

// RequestSummary marks id as loading without waiting for the fetch. It
// returns false when a fetch for id is already outstanding.
func (d *Desk) RequestSummary(id int) bool {
	started, err := d.summaries.Request(id)
	if err != nil {
		d.logger.Error("summary request rejected", "id", id, "error", err)
		return false
	}
	return started
}

// Summarize requests a summary and waits for it.
func (d *Desk) Summarize(ctx context.Context, id int) (summary.Entry, error) {
	ctx, done, _ := d.derive(ctx)
	defer done()
	return d.summaries.Summarize(ctx, id)
}

// FetchSummary completes a summary previously marked by RequestSummary.
func (d *Desk) FetchSummary(ctx context.Context, id int) (summary.Entry, error) {
	ctx, done, _ := d.derive(ctx)
	defer done()
	return d.summaries.Fetch(ctx, id)
}

// Export downloads the collection.
func (d *Desk) Export(ctx context.Context, format sdk.ExportFormat) (*sdk.Export, error) {
	ctx, done, gen := d.derive(ctx)
	defer done()

	exp, err := d.feedback.Export(ctx, format)
	if err != nil {
		d.fail(gen, "export", err)
		return nil, err
	}
	return exp, nil
}

// Signup registers an account. It does not change the session.
func (d *Desk) Signup(ctx context.Context, name, email, password string) (string, error) {
	ctx, done, _ := d.derive(ctx)
	defer done()
	return d.auth.Signup(ctx, name, email, password)
}

// Login starts a user session and returns the notice to show.
func (d *Desk) Login(ctx context.Context, email, password string) (string, error) {
	role, err := d.auth.Login(ctx, email, password)
	if err != nil {
		d.fail(d.Generation(), "login", err)
		return "", err
	}
	d.startSession(ctx, role)
	return NoticeUserLoggedIn, nil
}

// AdminLogin starts an admin session and returns the notice to show.
func (d *Desk) AdminLogin(ctx context.Context, username, password string) (string, error) {
	role, err := d.auth.AdminLogin(ctx, username, password)
	if err != nil {
		d.fail(d.Generation(), "admin login", err)
		return "", err
	}
	d.startSession(ctx, role)
	return NoticeAdminLoggedIn, nil
}

// Logout ends the current session, resets all state explicitly and returns
// to the anonymous view.
func (d *Desk) Logout(ctx context.Context) (string, error) {
	role := d.Role()
	next, err := d.auth.Logout(ctx, role)
	if err != nil {
		d.fail(d.Generation(), "logout", err)
		return "", err
	}
	d.startSession(ctx, next)
	return LogoutNotice(role), nil
}

// startSession resets state for role and loads fresh snapshots.
func (d *Desk) startSession(ctx context.Context, role session.Role) {
	d.resetSession(role)
	if err := d.Refresh(ctx); err != nil {
		d.logger.Warn("refresh after session change failed", "error", err)
	}
}

// resetSession cancels the session scope, bumps the generation, forgets all
// summaries and installs role.
func (d *Desk) resetSession(role session.Role) {
	// Summaries first, so a fetch woken by the scope cancellation settles
	// against the new generation and is dropped.
	d.summaries.Reset()

	d.mu.Lock()
	d.cancel()
	d.scope, d.cancel = context.WithCancel(context.Background())
	d.gen++
	from := d.role
	d.role = role
	d.lastError = nil
	gen := d.gen
	d.mu.Unlock()

	d.logger.Info("session reset", "from", from, "to", role, "generation", gen)

	d.publish(events.NewBaseEvent(events.EventTypeSessionReset, gen))
	if from != role {
		d.publish(events.RoleChanged{
			BaseEvent: events.NewBaseEvent(events.EventTypeRoleChanged, gen),
			From:      from,
			To:        role,
		})
	}
}

// derive returns a context cancelled when either ctx or the session scope
// ends, together with the generation it belongs to.
func (d *Desk) derive(ctx context.Context) (context.Context, context.CancelFunc, uint64) {
	d.mu.RLock()
	scope, gen := d.scope, d.gen
	d.mu.RUnlock()

	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(scope, cancel)
	return ctx, func() {
		stop()
		cancel()
	}, gen
}

func (d *Desk) current(gen uint64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.gen == gen
}

// apply runs fn under the lock if gen is still current.
func (d *Desk) apply(gen uint64, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gen != gen {
		d.logger.Debug("discarded stale response", "generation", gen, "current", d.gen)
		return false
	}
	fn()
	return true
}

func (d *Desk) fail(gen uint64, op string, err error) {
	if !d.apply(gen, func() { d.lastError = err }) {
		return
	}
	d.publish(events.OperationFailed{
		BaseEvent: events.NewBaseEvent(events.EventTypeOperationFailed, gen),
		Op:        op,
		Alert:     AlertText(err),
		Err:       err,
	})
}

func (d *Desk) publish(e events.DomainEvent) {
	if err := d.events.Publish(context.Background(), e); err != nil {
		d.logger.Warn("event handler failed", "event", e.EventType(), "error", err)
	}
}

// Role returns the current role.
func (d *Desk) Role() session.Role {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.role
}

// Generation returns the current session generation.
func (d *Desk) Generation() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.gen
}

// Items returns a copy of the last feedback snapshot.
func (d *Desk) Items() []feedback.Item {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]feedback.Item{}, d.items...)
}

// Stats returns the last stats snapshot.
func (d *Desk) Stats() feedback.Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshot
}

// LastError returns the most recent failed action of this session.
func (d *Desk) LastError() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastError
}

// SummaryEntry returns the summary state for id.
func (d *Desk) SummaryEntry(id int) summary.Entry {
	return d.summaries.Entry(id)
}

// Plan composes the role-gated view of the current state.
func (d *Desk) Plan() view.Plan {
	d.mu.RLock()
	role, items, stats := d.role, d.items, d.snapshot
	d.mu.RUnlock()
	return view.Compose(role, items, stats, d.summaries.Snapshot())
}
