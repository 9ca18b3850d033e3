// Package sqlite provides the public API for the SQLite listings backend.
// It exposes the factory while keeping the implementation internal.
//
// Store operations are counted in prometheus.DefaultRegisterer under the
// listings_ prefix. Embedders expose them by serving promhttp.Handler() or
// any other gatherer of the default registry.
package sqlite

import (
	"log/slog"

	"github.com/mesh-intelligence/listings/internal/sqlite"
	"github.com/mesh-intelligence/listings/pkg/types"
)

// NewBackend creates a new SQLite backend instance. A nil logger falls back
// to slog.Default(). The backend is not attached; call Attach with a Config
// to open it.
//
// Example:
//
//	store := sqlite.NewBackend(nil)
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".listings-db",
//	})
//	defer store.Detach()
func NewBackend(logger *slog.Logger) types.Store {
	return sqlite.NewBackend(logger)
}
