package survey

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dusk-indust/surveynotes/internal/notes"
	"github.com/dusk-indust/surveynotes/internal/session"
	"github.com/dusk-indust/surveynotes/internal/status"
)

// ErrInvalidArgument marks caller errors such as a blank session name.
var ErrInvalidArgument = errors.New("survey: invalid argument")

// Service is the operation surface shared by the JSON-RPC server, the MCP
// tools and the CLI.
type Service struct {
	refresher  *Refresher
	store      session.Store
	reconciler *notes.Reconciler
}

// NewService wraps a Refresher. Its store and reconciler serve the read
// operations too.
func NewService(refresher *Refresher) *Service {
	return &Service{
		refresher:  refresher,
		store:      refresher.store,
		reconciler: refresher.reconciler,
	}
}

// Reconciler returns the configured reconciler.
func (s *Service) Reconciler() *notes.Reconciler {
	return s.reconciler
}

// Reconcile merges incoming into previous without touching any session. A
// non-empty order replaces the configured canonical order for this call;
// compact additionally collapses near-duplicate lines.
func (s *Service) Reconcile(previous, incoming []notes.Section, order []string, compact bool) []notes.Section {
	r := s.reconciler
	if len(order) > 0 {
		r = r.ForOrder(order)
	}
	out := r.Reconcile(previous, incoming)
	if compact {
		out = r.Compact(out)
	}
	return out
}

// CreateSession stores a new empty session.
func (s *Service) CreateSession(ctx context.Context, name string) (*session.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: session name is required", ErrInvalidArgument)
	}
	sess := session.New(name)
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("survey: create session: %w", err)
	}
	return &sess, nil
}

// GetSession returns a stored session.
func (s *Service) GetSession(ctx context.Context, id string) (*session.Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidArgument)
	}
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("survey: get session %s: %w", id, err)
	}
	return sess, nil
}

// ListSessions returns one page of sessions.
func (s *Service) ListSessions(ctx context.Context, opts session.ListOptions) (*session.ListResult, error) {
	res, err := s.store.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("survey: list sessions: %w", err)
	}
	return res, nil
}

// Ingest stores transcript as the session's cumulative transcript and runs
// one processing and reconciliation pass.
func (s *Service) Ingest(ctx context.Context, id, transcript string) (*session.Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidArgument)
	}
	return s.refresher.Refresh(ctx, id, transcript)
}

// Status summarizes canonical section coverage for a session.
func (s *Service) Status(ctx context.Context, id string) (*status.SessionStatus, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	st := status.Summarize(sess, s.reconciler.Schema())
	return &st, nil
}
