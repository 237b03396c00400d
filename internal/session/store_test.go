package session

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/surveynotes/internal/notes"
)

func sampleSession(id string) Session {
	ts := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	return Session{
		ID:         id,
		Name:       "12 Acacia Avenue",
		Transcript: "boiler is old, flue exits rear wall",
		Sections: []notes.Section{
			{Name: "Needs", PlainText: "Boiler is old", NaturalLanguage: "The boiler is old."},
			{Name: "Flue", PlainText: "Rear wall"},
		},
		Revision:  2,
		CreatedAt: ts,
		UpdatedAt: ts.Add(time.Minute),
	}
}

// runStoreContract exercises behaviour every Store implementation shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("create and get round trip", func(t *testing.T) {
		s := newStore(t)
		want := sampleSession("sess-1")
		require.NoError(t, s.Create(ctx, want))

		got, err := s.Get(ctx, "sess-1")
		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Transcript, got.Transcript)
		assert.Equal(t, want.Sections, got.Sections)
		assert.Equal(t, want.Revision, got.Revision)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
		assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))
	})

	t.Run("create duplicate fails", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, sampleSession("dup")))
		assert.ErrorIs(t, s.Create(ctx, sampleSession("dup")), ErrExists)
	})

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("put replaces sections and keeps order", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, sampleSession("a")))
		require.NoError(t, s.Create(ctx, sampleSession("b")))

		updated := sampleSession("a")
		updated.Revision = 3
		updated.Sections = []notes.Section{{Name: "Pipe work", PlainText: "22mm gas"}}
		require.NoError(t, s.Put(ctx, updated))

		got, err := s.Get(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, 3, got.Revision)
		assert.Equal(t, updated.Sections, got.Sections)

		list, err := s.List(ctx, ListOptions{})
		require.NoError(t, err)
		require.Len(t, list.Sessions, 2)
		assert.Equal(t, "a", list.Sessions[0].ID, "put must not move an existing session")
	})

	t.Run("put inserts new session", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, sampleSession("fresh")))
		_, err := s.Get(ctx, "fresh")
		require.NoError(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Create(ctx, sampleSession("gone")))
		require.NoError(t, s.Delete(ctx, "gone"))
		_, err := s.Get(ctx, "gone")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "gone"), ErrNotFound)
	})

	t.Run("list paginates in creation order", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 5; i++ {
			require.NoError(t, s.Create(ctx, sampleSession(fmt.Sprintf("s%d", i))))
		}

		page1, err := s.List(ctx, ListOptions{PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, page1.TotalSize)
		require.Len(t, page1.Sessions, 2)
		assert.Equal(t, "s0", page1.Sessions[0].ID)
		assert.Equal(t, "s1", page1.NextPageToken)

		page2, err := s.List(ctx, ListOptions{PageSize: 2, PageToken: page1.NextPageToken})
		require.NoError(t, err)
		assert.Equal(t, []string{"s2", "s3"}, []string{page2.Sessions[0].ID, page2.Sessions[1].ID})

		page3, err := s.List(ctx, ListOptions{PageSize: 2, PageToken: page2.NextPageToken})
		require.NoError(t, err)
		require.Len(t, page3.Sessions, 1)
		assert.Empty(t, page3.NextPageToken)

		_, err = s.List(ctx, ListOptions{PageToken: "missing"})
		assert.ErrorIs(t, err, ErrInvalidPageToken)
	})

	t.Run("list empty store", func(t *testing.T) {
		s := newStore(t)
		list, err := s.List(ctx, ListOptions{})
		require.NoError(t, err)
		assert.Empty(t, list.Sessions)
		assert.Zero(t, list.TotalSize)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "sessions.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestSQLiteStore_InMemory(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Create(context.Background(), sampleSession("m")))
	got, err := s.Get(context.Background(), "m")
	require.NoError(t, err)
	assert.Equal(t, "m", got.ID)
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), sampleSession("keep")))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get(context.Background(), "keep")
	require.NoError(t, err)
	assert.Len(t, got.Sections, 2)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Create(ctx, sampleSession("c")))

	got, err := s.Get(ctx, "c")
	require.NoError(t, err)
	got.Sections[0].PlainText = "mutated"

	again, err := s.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, "Boiler is old", again.Sections[0].PlainText)
}

func TestOpen(t *testing.T) {
	s, err := Open("memory", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open("sqlite", filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open("postgres", "")
	require.Error(t, err)
}

func TestNew(t *testing.T) {
	a, b := New("x"), New("x")
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, a.ID, 36)
	assert.False(t, a.CreatedAt.IsZero())
	assert.Equal(t, a.CreatedAt, a.UpdatedAt)
}
