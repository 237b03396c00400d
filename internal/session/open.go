package session

import "fmt"

// Open returns the Store for driver ("memory", "sqlite" or "kuzu") at path.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		ss, err := NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return ss, nil
	case "kuzu":
		ks, err := NewKuzuStore(path)
		if err != nil {
			return nil, err
		}
		return ks, nil
	default:
		return nil, fmt.Errorf("session: unknown store driver %q", driver)
	}
}
