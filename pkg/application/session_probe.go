package application

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/feedback/pkg/domain/session"
	"golang.org/x/sync/errgroup"
)

// SessionProbe determines which role the current backend session has.
type SessionProbe struct {
	checker SessionChecker
	logger  *slog.Logger
}

func NewSessionProbe(checker SessionChecker, logger *slog.Logger) *SessionProbe {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionProbe{checker: checker, logger: logger}
}

// Probe issues both checks concurrently. A failed check counts as false and
// is logged; Probe itself never fails.
func (p *SessionProbe) Probe(ctx context.Context) session.Probe {
	var res session.Probe
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res.Admin, res.AdminErr = p.checker.CheckAdmin(gctx)
		if res.AdminErr != nil {
			res.Admin = false
			p.logger.Warn("admin check failed", "error", res.AdminErr)
		}
		return nil
	})
	g.Go(func() error {
		res.User, res.UserErr = p.checker.CheckUser(gctx)
		if res.UserErr != nil {
			res.User = false
			p.logger.Warn("user check failed", "error", res.UserErr)
		}
		return nil
	})
	_ = g.Wait()

	p.logger.Debug("session probed", "admin", res.Admin, "user", res.User, "role", res.Role())
	return res
}

// Role probes and collapses the result to a role.
func (p *SessionProbe) Role(ctx context.Context) session.Role {
	return p.Probe(ctx).Role()
}
