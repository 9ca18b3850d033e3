package types

import "errors"

// Store is the entry point to the storage layer. Callers attach it to a
// backend, reach the five tables through the typed accessors, and detach
// when done. A Store is constructed once and shared by reference.
type Store interface {
	// Attach connects the Store to the backend described by config, creating
	// or migrating the schema. Returns ErrAlreadyAttached if already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, every table operation returns ErrStoreDetached.
	Detach() error

	Users() UserTable
	Properties() PropertyTable
	Photos() PhotoTable
	Messages() MessageTable
	Favorites() FavoriteTable
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
	ErrSchemaVersion   = errors.New("schema version is newer than supported")
)
