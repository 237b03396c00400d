package survey

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dusk-indust/surveynotes/internal/notes"
	"github.com/dusk-indust/surveynotes/internal/processor"
	"github.com/dusk-indust/surveynotes/internal/session"
)

// Refresher runs one merge pass for a session: the cumulative transcript is
// re-processed remotely, the returned sections are reconciled with the stored
// ones and the result is persisted with the next revision.
type Refresher struct {
	store      session.Store
	proc       processor.Processor
	reconciler *notes.Reconciler
	logger     *zap.Logger
	onProgress func(ProgressEvent)
	now        func() time.Time

	locks sync.Map // session ID -> *sync.Mutex
}

// NewRefresher wires a Refresher. onProgress is called synchronously and may
// be nil.
func NewRefresher(store session.Store, proc processor.Processor, reconciler *notes.Reconciler, logger *zap.Logger, onProgress func(ProgressEvent)) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		store:      store,
		proc:       proc,
		reconciler: reconciler,
		logger:     logger,
		onProgress: onProgress,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Store returns the session store the refresher persists to.
func (r *Refresher) Store() session.Store {
	return r.store
}

// Refresh replaces the session's transcript with transcript and runs a merge
// pass. Passes for the same session are serialized.
func (r *Refresher) Refresh(ctx context.Context, id, transcript string) (*session.Session, error) {
	mu := r.lock(id)
	mu.Lock()
	defer mu.Unlock()

	sess, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("survey: load session %s: %w", id, err)
	}
	sess.Transcript = transcript
	return r.pass(ctx, sess)
}

// RefreshStored runs a merge pass over the transcript already stored for the
// session. A session without transcript text is returned unchanged.
func (r *Refresher) RefreshStored(ctx context.Context, id string) (*session.Session, error) {
	mu := r.lock(id)
	mu.Lock()
	defer mu.Unlock()

	sess, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("survey: load session %s: %w", id, err)
	}
	if strings.TrimSpace(sess.Transcript) == "" {
		r.emit(ProgressEvent{SessionID: id, Status: ProgressSkipped, Revision: sess.Revision})
		return sess, nil
	}
	return r.pass(ctx, sess)
}

func (r *Refresher) pass(ctx context.Context, sess *session.Session) (*session.Session, error) {
	r.emit(ProgressEvent{SessionID: sess.ID, Status: ProgressWorking})

	res, err := r.proc.Process(ctx, processor.Request{
		SessionID:    sess.ID,
		Transcript:   sess.Transcript,
		SectionOrder: r.reconciler.Schema().Names(),
	})
	if err != nil {
		return nil, r.fail(sess.ID, fmt.Errorf("survey: process session %s: %w", sess.ID, err))
	}

	sess.Sections = r.reconciler.Reconcile(sess.Sections, res.Sections)
	sess.Revision++
	sess.UpdatedAt = r.now()

	if err := r.store.Put(ctx, *sess); err != nil {
		return nil, r.fail(sess.ID, fmt.Errorf("survey: save session %s: %w", sess.ID, err))
	}

	for _, c := range notes.CheckConsistency(sess.Sections) {
		r.logger.Warn("inconsistent measurement",
			zap.String("session", sess.ID),
			zap.String("subject", c.Subject),
			zap.String("detail", c.Description),
		)
	}
	r.logger.Info("session reconciled",
		zap.String("session", sess.ID),
		zap.Int("revision", sess.Revision),
		zap.Int("incoming", len(res.Sections)),
		zap.Int("sections", len(sess.Sections)),
		zap.String("model", res.Model),
	)
	r.emit(ProgressEvent{
		SessionID: sess.ID,
		Status:    ProgressComplete,
		Revision:  sess.Revision,
		Sections:  len(sess.Sections),
	})
	return sess, nil
}

func (r *Refresher) fail(id string, err error) error {
	r.logger.Error("session refresh failed", zap.String("session", id), zap.Error(err))
	r.emit(ProgressEvent{SessionID: id, Status: ProgressFailed, Message: err.Error()})
	return err
}

func (r *Refresher) lock(id string) *sync.Mutex {
	mu, _ := r.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// emit sends a progress event if a callback is registered.
func (r *Refresher) emit(ev ProgressEvent) {
	if r.onProgress != nil {
		r.onProgress(ev)
	}
}
