package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/listings/pkg/types"
)

func TestNewBackend_InMemoryRoundTrip(t *testing.T) {
	store := NewBackend(nil)
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: types.MemoryDataDir}))
	defer store.Detach()

	u, outcome, err := store.Users().Register(types.Registration{
		DisplayName: "Ana",
		Email:       "ana@example.com",
		Password:    "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, types.RegisterCreated, outcome)

	got, err := store.Users().Authenticate("ana@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.UserID, got.UserID)
}

func TestNewBackend_DetachedTables(t *testing.T) {
	store := NewBackend(nil)
	_, err := store.Properties().Get(1)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
}
