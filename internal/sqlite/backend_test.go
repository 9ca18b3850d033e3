package sqlite

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/listings/pkg/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestBackend returns an unattached backend with a cheap bcrypt cost.
func newTestBackend() *Backend {
	b := NewBackend(quietLogger())
	b.passwordCost = bcrypt.MinCost
	return b
}

// setupBackend attaches a fresh file-backed store in a temp dir.
func setupBackend(t *testing.T) *Backend {
	t.Helper()
	b := newTestBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })
	return b
}

func mustRegister(t *testing.T, b *Backend, name, email string) *types.User {
	t.Helper()
	u, outcome, err := b.Users().Register(types.Registration{DisplayName: name, Email: email, Password: "secret"})
	require.NoError(t, err)
	require.Equal(t, types.RegisterCreated, outcome)
	return u
}

func mustProperty(t *testing.T, b *Backend, ownerID int64, title string, price float64) *types.Property {
	t.Helper()
	p := &types.Property{
		PropertyType: "house",
		Title:        title,
		Price:        price,
		Address:      "1 Main St",
		Status:       "for_sale",
		Contact:      "555-0100",
		OwnerID:      ownerID,
	}
	require.NoError(t, b.Properties().Insert(p))
	return p
}

func countRows(t *testing.T, b *Backend, table string) int {
	t.Helper()
	var n int
	require.NoError(t, b.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestBackend_Attach(t *testing.T) {
	dir := t.TempDir()
	b := newTestBackend()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	require.NoError(t, b.Attach(config))
	defer b.Detach()

	_, err := os.Stat(filepath.Join(dir, types.DefaultDatabaseFile))
	assert.NoError(t, err, "database file should exist")

	assert.ErrorIs(t, b.Attach(config), types.ErrAlreadyAttached)

	version, err := b.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, latestVersion(), version)
}

func TestBackend_AttachInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  types.Config
		wantErr error
	}{
		{"empty backend", types.Config{DataDir: types.MemoryDataDir}, types.ErrBackendEmpty},
		{"unknown backend", types.Config{Backend: "postgres", DataDir: types.MemoryDataDir}, types.ErrBackendUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBackend()
			assert.ErrorIs(t, b.Attach(tt.config), tt.wantErr)
		})
	}
}

func TestBackend_InMemory(t *testing.T) {
	b := newTestBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: types.MemoryDataDir}))
	defer b.Detach()

	u := mustRegister(t, b, "Ana", "ana@example.com")
	got, err := b.Users().Get(u.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.DisplayName)
}

func TestBackend_CustomDatabaseFile(t *testing.T) {
	dir := t.TempDir()
	b := newTestBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir, DatabaseFile: "app.db"}))
	defer b.Detach()

	_, err := os.Stat(filepath.Join(dir, "app.db"))
	assert.NoError(t, err)
}

func TestBackend_Detach(t *testing.T) {
	b := newTestBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))

	require.NoError(t, b.Detach())
	assert.NoError(t, b.Detach(), "second Detach should not error")

	_, err := b.Users().Get(1)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	_, err = b.Properties().Search(types.PropertyQuery{})
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	_, err = b.Messages().Inbox(1)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	assert.ErrorIs(t, b.Favorites().Add(1, 1), types.ErrStoreDetached)
	_, err = b.Photos().ListByProperty(1)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	_, err = b.SchemaVersion()
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	assert.ErrorIs(t, b.Reset(), types.ErrStoreDetached)
}

func TestBackend_ReattachKeepsData(t *testing.T) {
	dir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir}

	b := newTestBackend()
	require.NoError(t, b.Attach(config))
	u := mustRegister(t, b, "Ana", "ana@example.com")
	require.NoError(t, b.Detach())

	b2 := newTestBackend()
	require.NoError(t, b2.Attach(config))
	defer b2.Detach()

	got, err := b2.Users().Get(u.UserID)
	require.NoError(t, err)
	assert.Equal(t, u.Email, got.Email)
}

func TestBackend_SchemaVersion(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, dir string)
	}{
		{
			name: "newer stored version is refused without destructive upgrade",
			check: func(t *testing.T, dir string) {
				config := types.Config{Backend: types.BackendSQLite, DataDir: dir}
				b := newTestBackend()
				require.NoError(t, b.Attach(config))
				mustRegister(t, b, "Ana", "ana@example.com")
				_, err := b.db.Exec("PRAGMA user_version = 99")
				require.NoError(t, err)
				require.NoError(t, b.Detach())

				b2 := newTestBackend()
				err = b2.Attach(config)
				assert.ErrorIs(t, err, types.ErrSchemaVersion)
				_, err = b2.SchemaVersion()
				assert.ErrorIs(t, err, types.ErrStoreDetached, "refused attach leaves the backend detached")
			},
		},
		{
			name: "destructive upgrade drops data and rebuilds",
			check: func(t *testing.T, dir string) {
				config := types.Config{Backend: types.BackendSQLite, DataDir: dir}
				b := newTestBackend()
				require.NoError(t, b.Attach(config))
				mustRegister(t, b, "Ana", "ana@example.com")
				_, err := b.db.Exec("PRAGMA user_version = 99")
				require.NoError(t, err)
				require.NoError(t, b.Detach())

				config.DestructiveUpgrade = true
				b2 := newTestBackend()
				require.NoError(t, b2.Attach(config))
				defer b2.Detach()

				version, err := b2.SchemaVersion()
				require.NoError(t, err)
				assert.Equal(t, latestVersion(), version)
				assert.Equal(t, 0, countRows(t, b2, types.UsersTable))
			},
		},
		{
			name: "older version is migrated additively",
			check: func(t *testing.T, dir string) {
				config := types.Config{Backend: types.BackendSQLite, DataDir: dir}
				b := newTestBackend()
				require.NoError(t, b.Attach(config))
				mustRegister(t, b, "Ana", "ana@example.com")
				for _, idx := range []string{"idx_properties_owner", "idx_properties_price",
					"idx_photos_property", "idx_messages_recipient", "idx_messages_pair"} {
					_, err := b.db.Exec("DROP INDEX " + idx)
					require.NoError(t, err)
				}
				_, err := b.db.Exec("PRAGMA user_version = 1")
				require.NoError(t, err)
				require.NoError(t, b.Detach())

				b2 := newTestBackend()
				require.NoError(t, b2.Attach(config))
				defer b2.Detach()

				version, err := b2.SchemaVersion()
				require.NoError(t, err)
				assert.Equal(t, latestVersion(), version)
				assert.Equal(t, 1, countRows(t, b2, types.UsersTable), "data survives migration")

				var n int
				require.NoError(t, b2.db.QueryRow(
					"SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name LIKE 'idx_%'").Scan(&n))
				assert.Equal(t, 5, n)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, t.TempDir())
		})
	}
}

func TestBackend_Reset(t *testing.T) {
	b := setupBackend(t)
	owner := mustRegister(t, b, "Ana", "ana@example.com")
	p := mustProperty(t, b, owner.UserID, "Cottage", 100000)
	require.NoError(t, b.Favorites().Add(owner.UserID, p.PropertyID))
	_, err := b.Messages().Send(owner.UserID, owner.UserID, "note to self")
	require.NoError(t, err)

	require.NoError(t, b.Reset())

	for _, table := range types.StandardTableNames {
		assert.Equal(t, 0, countRows(t, b, table), table)
	}
	version, err := b.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, latestVersion(), version)

	// The store stays usable after a reset.
	mustRegister(t, b, "Ana", "ana@example.com")
}

func TestBackend_Stamp(t *testing.T) {
	b := newTestBackend()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := []time.Time{base, base, base.Add(-time.Hour), base.Add(time.Second)}
	i := 0
	b.now = func() time.Time {
		tm := clock[i]
		i++
		return tm
	}

	var stamps []time.Time
	for range clock {
		stamps = append(stamps, b.stamp())
	}
	ms := base.UnixMilli()
	assert.Equal(t, ms, stamps[0].UnixMilli())
	assert.Equal(t, ms+1, stamps[1].UnixMilli(), "stalled clock still advances")
	assert.Equal(t, ms+2, stamps[2].UnixMilli(), "clock stepping back still advances")
	assert.Equal(t, base.Add(time.Second).UnixMilli(), stamps[3].UnixMilli())
}

func TestBackend_StampSeededFromStoredMessages(t *testing.T) {
	dir := t.TempDir()
	config := types.Config{Backend: types.BackendSQLite, DataDir: dir}
	future := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)

	b := newTestBackend()
	b.now = func() time.Time { return future }
	require.NoError(t, b.Attach(config))
	u := mustRegister(t, b, "Ana", "ana@example.com")
	first, err := b.Messages().Send(u.UserID, u.UserID, "from the future")
	require.NoError(t, err)
	require.NoError(t, b.Detach())

	b2 := newTestBackend()
	require.NoError(t, b2.Attach(config))
	defer b2.Detach()
	second, err := b2.Messages().Send(u.UserID, u.UserID, "now")
	require.NoError(t, err)
	assert.True(t, second.SentAt.After(first.SentAt))
}

func TestDataSourceName(t *testing.T) {
	dsn, err := dataSourceName(types.Config{Backend: types.BackendSQLite, DataDir: types.MemoryDataDir})
	require.NoError(t, err)
	assert.Equal(t, "file::memory:?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dsn)

	dir := filepath.Join(t.TempDir(), "nested")
	dsn, err = dataSourceName(types.Config{Backend: types.BackendSQLite, DataDir: dir})
	require.NoError(t, err)
	assert.Contains(t, dsn, filepath.ToSlash(filepath.Join(dir, types.DefaultDatabaseFile)))
	assert.Contains(t, dsn, "foreign_keys(1)")
	_, err = os.Stat(dir)
	assert.NoError(t, err, "data dir is created")
}

func TestResultLabel(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{types.ErrInvalidID, "invalid"},
		{types.ErrInvalidFilter, "invalid"},
		{types.ErrNotFound, "not_found"},
		{types.ErrAlreadyExists, "conflict"},
		{types.ErrReferenced, "conflict"},
		{types.ErrTransaction, "error"},
		{types.ErrStoreDetached, "error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, resultLabel(tt.err), "%v", tt.err)
	}
}
