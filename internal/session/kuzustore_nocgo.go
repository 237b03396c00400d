//go:build !cgo

package session

// KuzuStore is unavailable without CGO; the type exists so callers compile.
type KuzuStore struct {
	MemoryStore
}

// NewKuzuStore always fails in builds without CGO.
func NewKuzuStore(path string) (*KuzuStore, error) {
	return nil, ErrKuzuUnavailable
}
