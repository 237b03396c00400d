package session

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/dusk-indust/surveynotes/internal/notes"
)

// Errors returned by Store implementations.
var (
	ErrNotFound         = errors.New("session: not found")
	ErrExists           = errors.New("session: already exists")
	ErrInvalidPageToken = errors.New("session: invalid page token")
	ErrKuzuUnavailable  = errors.New("session: kuzu store requires a cgo build")
)

// Session is one survey: its cumulative transcript and the sections
// reconciled from it so far.
type Session struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Transcript string          `json:"transcript"`
	Sections   []notes.Section `json:"sections"`
	Revision   int             `json:"revision"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	dst := *s
	dst.Sections = notes.CloneSections(s.Sections)
	return &dst
}

// ListOptions controls pagination. PageToken is the ID of the last session of
// the previous page. PageSize <= 0 returns everything.
type ListOptions struct {
	PageSize  int    `json:"pageSize,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
}

// ListResult is one page of sessions in creation order.
type ListResult struct {
	Sessions      []Session `json:"sessions"`
	TotalSize     int       `json:"totalSize"`
	NextPageToken string    `json:"nextPageToken,omitempty"`
}

// Store persists sessions. Implementations are safe for concurrent use and
// never hand out references to their internal state.
type Store interface {
	io.Closer

	// Create stores a new session. It fails with ErrExists if the ID is taken.
	Create(ctx context.Context, s Session) error

	// Get returns the session with the given ID or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Put inserts or replaces a session.
	Put(ctx context.Context, s Session) error

	// Delete removes a session. Deleting a missing session returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// List returns sessions in creation order.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)
}

// NewID returns a random session identifier.
func NewID() string {
	return uuid.NewString()
}

// New returns a fresh session named name with a new ID and timestamps set.
func New(name string) Session {
	now := time.Now().UTC()
	return Session{
		ID:        NewID(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// paginate applies ListOptions to sessions already in creation order.
func paginate(all []Session, opts ListOptions) (*ListResult, error) {
	start := 0
	if opts.PageToken != "" {
		found := false
		for i, s := range all {
			if s.ID == opts.PageToken {
				start = i + 1
				found = true
				break
			}
		}
		if !found {
			return nil, ErrInvalidPageToken
		}
	}

	page := all[start:]
	var next string
	if opts.PageSize > 0 && len(page) > opts.PageSize {
		page = page[:opts.PageSize]
		next = page[len(page)-1].ID
	}

	out := make([]Session, len(page))
	for i := range page {
		out[i] = *page[i].Clone()
	}
	return &ListResult{
		Sessions:      out,
		TotalSize:     len(all),
		NextPageToken: next,
	}, nil
}
