package mcpclient

import (
	"context"
	"errors"
	"sync"

	"github.com/chatwing/chatwing/internal/catalog"
	"github.com/chatwing/chatwing/types"
)

// Target pairs a server's transport spec with the catalog it is audited
// against.
type Target struct {
	Name    string
	Spec    string
	Catalog *catalog.Catalog
}

// ReconcileSession owns every connection opened during one audit run and
// closes them together. Connections are not shared across sessions, so an
// audit never observes another run's half-closed transport.
type ReconcileSession struct {
	mu       sync.Mutex
	sessions []*ServerSession

	// dial is swappable so tests can route through in-memory transports.
	dial func(ctx context.Context, name, spec string) (*ServerSession, error)
}

// NewReconcileSession returns an empty session. Call Close when the audit is
// done, regardless of outcome.
func NewReconcileSession() *ReconcileSession {
	return &ReconcileSession{dial: Connect}
}

// Reconcile connects to one server, fetches its live tool names, and diffs
// them against the target catalog. Failures to reach or query the server come
// back as a *types.ConnectionError scoped to that server.
func (rs *ReconcileSession) Reconcile(ctx context.Context, target Target) (catalog.Report, error) {
	sess, err := rs.dial(ctx, target.Name, target.Spec)
	if err != nil {
		return catalog.Report{Server: target.Name}, &types.ConnectionError{Server: target.Name, Err: err}
	}
	rs.track(sess)

	names, err := sess.ToolNames(ctx)
	if err != nil {
		return catalog.Report{Server: target.Name}, &types.ConnectionError{Server: target.Name, Err: err}
	}
	return catalog.Diff(target.Catalog, names), nil
}

// ReconcileAll audits every target, continuing past per-server connection
// failures. Reports and errors are index-aligned with targets; exactly one of
// the pair is meaningful per index.
func (rs *ReconcileSession) ReconcileAll(ctx context.Context, targets []Target) ([]catalog.Report, []error) {
	reports := make([]catalog.Report, len(targets))
	errs := make([]error, len(targets))
	for i, target := range targets {
		reports[i], errs[i] = rs.Reconcile(ctx, target)
	}
	return reports, errs
}

// Close releases every connection the session opened.
func (rs *ReconcileSession) Close() error {
	rs.mu.Lock()
	sessions := rs.sessions
	rs.sessions = nil
	rs.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (rs *ReconcileSession) track(s *ServerSession) {
	rs.mu.Lock()
	rs.sessions = append(rs.sessions, s)
	rs.mu.Unlock()
}
