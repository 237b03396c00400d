package session

import (
	"context"
	"sync"
)

// Compile-time check that MemoryStore satisfies Store.
var _ Store = (*MemoryStore)(nil)

// MemoryStore is a concurrency-safe in-memory Store. Sessions are kept in a
// map keyed by ID with a separate slice maintaining insertion order for
// deterministic pagination.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	orderIDs []string
}

// NewMemoryStore returns an initialized MemoryStore ready for use.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
	}
}

func (m *MemoryStore) Create(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID]; exists {
		return ErrExists
	}
	m.sessions[s.ID] = s.Clone()
	m.orderIDs = append(m.orderIDs, s.ID)
	return nil
}

// Get returns a deep copy of the stored session; callers may mutate it freely.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[s.ID]; !exists {
		m.orderIDs = append(m.orderIDs, s.ID)
	}
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[id]; !exists {
		return ErrNotFound
	}
	delete(m.sessions, id)
	for i, oid := range m.orderIDs {
		if oid == id {
			m.orderIDs = append(m.orderIDs[:i], m.orderIDs[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) List(_ context.Context, opts ListOptions) (*ListResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]Session, 0, len(m.orderIDs))
	for _, id := range m.orderIDs {
		all = append(all, *m.sessions[id])
	}
	return paginate(all, opts)
}

// Close is a no-op.
func (m *MemoryStore) Close() error {
	return nil
}
