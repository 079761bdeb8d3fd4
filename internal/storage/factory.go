package storage

import "fmt"

// NewStore selects a brain-store backend by name: "memory" keeps walkers'
// records in-process (gone when the run exits), "sqlite" persists them to
// the database at sqlitePath and needs the sqlite build tag.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

// CloseIfSupported closes file-backed stores and is a no-op for the memory
// backend.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
