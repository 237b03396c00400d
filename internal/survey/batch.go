package survey

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchResult holds the outcome of refreshing one session.
type BatchResult struct {
	SessionID string
	Revision  int
	Err       error
}

// Batch refreshes several stored sessions in parallel.
type Batch struct {
	refresher *Refresher
	limit     int
}

// NewBatch creates a Batch running at most limit refreshes at once. A limit
// <= 0 means no limit.
func NewBatch(refresher *Refresher, limit int) *Batch {
	return &Batch{refresher: refresher, limit: limit}
}

// Run refreshes every session in ids from its stored transcript. The first
// failure cancels the derived context so remaining passes return early.
//
// All results are returned in ids order regardless of whether an error
// occurred. The returned error is the first non-nil error from the group.
func (b *Batch) Run(ctx context.Context, ids []string) ([]BatchResult, error) {
	results := make([]BatchResult, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	if b.limit > 0 {
		g.SetLimit(b.limit)
	}

	for i, id := range ids {
		b.refresher.emit(ProgressEvent{SessionID: id, Status: ProgressPending})

		g.Go(func() error {
			sess, err := b.refresher.RefreshStored(gctx, id)
			if err != nil {
				results[i] = BatchResult{SessionID: id, Err: err}
				return err
			}
			results[i] = BatchResult{SessionID: id, Revision: sess.Revision}
			return nil
		})
	}

	err := g.Wait()
	return results, err
}
