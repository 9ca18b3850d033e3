// Package sqlite implements the SQLite storage backend for listings.
// One Backend owns the database handle; the five table accessors share it.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/listings/internal/metrics"
	"github.com/mesh-intelligence/listings/pkg/types"
)

// Compile-time interface check: Backend must implement Store.
var _ types.Store = (*Backend)(nil)

// busyTimeoutMillis bounds how long a statement waits on a locked database.
const busyTimeoutMillis = 5000

// Backend implements types.Store on an embedded SQLite database.
type Backend struct {
	mu       sync.RWMutex // guards attach state, not individual operations
	attached bool
	config   types.Config
	db       *sql.DB
	logger   *slog.Logger

	passwordCost int // bcrypt cost for password secrets

	clockMu   sync.Mutex
	lastStamp int64            // last sent_at handed out, Unix milliseconds
	now       func() time.Time // for testing

	users      *usersTable
	properties *propertiesTable
	photos     *photosTable
	messages   *messagesTable
	favorites  *favoritesTable
}

// NewBackend creates a new SQLite backend instance. A nil logger falls back
// to slog.Default(). The backend is not attached; call Attach to open it.
func NewBackend(logger *slog.Logger) *Backend {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Backend{
		logger:       logger,
		passwordCost: bcrypt.DefaultCost,
		now:          time.Now,
	}
	b.users = &usersTable{backend: b}
	b.properties = &propertiesTable{backend: b}
	b.photos = &photosTable{backend: b}
	b.messages = &messagesTable{backend: b}
	b.favorites = &favoritesTable{backend: b}
	return b
}

// Users returns the user table accessor.
func (b *Backend) Users() types.UserTable { return b.users }

// Properties returns the property table accessor.
func (b *Backend) Properties() types.PropertyTable { return b.properties }

// Photos returns the photo table accessor.
func (b *Backend) Photos() types.PhotoTable { return b.photos }

// Messages returns the message table accessor.
func (b *Backend) Messages() types.MessageTable { return b.messages }

// Favorites returns the favorite table accessor.
func (b *Backend) Favorites() types.FavoriteTable { return b.favorites }

// Attach opens the database described by config and brings its schema up to
// the latest version. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dsn, err := dataSourceName(config)
	if err != nil {
		return err
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	// One connection: the engine serializes writers and an in-memory
	// database stays the same database for every call.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("opening database: %w", err)
	}

	if err := migrate(db, b.logger, config.DestructiveUpgrade); err != nil {
		db.Close()
		return err
	}

	var maxSent sql.NullInt64
	if err := db.QueryRow("SELECT MAX(sent_at) FROM messages").Scan(&maxSent); err != nil {
		db.Close()
		return fmt.Errorf("reading message clock: %w", err)
	}

	b.clockMu.Lock()
	b.lastStamp = maxSent.Int64
	b.clockMu.Unlock()

	b.db = db
	b.config = config
	b.attached = true

	b.logger.Info("store attached",
		slog.String("backend", config.Backend),
		slog.String("data_dir", config.DataDir),
	)
	return nil
}

// Detach closes the database. Idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	b.logger.Info("store detached")
	return nil
}

// Reset drops every table and recreates the schema. All data is lost.
func (b *Backend) Reset() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	if err := recreate(b.db, b.logger); err != nil {
		return err
	}
	b.clockMu.Lock()
	b.lastStamp = 0
	b.clockMu.Unlock()
	return nil
}

// SchemaVersion returns the schema version stored in the database.
func (b *Backend) SchemaVersion() (int, error) {
	db, release, err := b.conn()
	if err != nil {
		return 0, err
	}
	defer release()
	return userVersion(db)
}

// dataSourceName builds the modernc DSN, creating the data directory for
// file databases.
func dataSourceName(config types.Config) (string, error) {
	pragmas := fmt.Sprintf("_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", busyTimeoutMillis)
	if config.InMemory() {
		return "file::memory:?" + pragmas, nil
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}
	path := filepath.ToSlash(filepath.Join(dataDir, config.DatabaseFileName()))
	return "file:" + path + "?" + pragmas, nil
}

// conn returns the database handle while holding the read lock. The caller
// must call release when the operation is finished.
func (b *Backend) conn() (*sql.DB, func(), error) {
	b.mu.RLock()
	if !b.attached {
		b.mu.RUnlock()
		return nil, nil, types.ErrStoreDetached
	}
	return b.db, b.mu.RUnlock, nil
}

// withTx runs fn inside a transaction. Any error rolls back every write made
// by fn; the commit is the single visibility point.
func withTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return classify("beginning transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify("committing transaction", err)
	}
	return nil
}

// stamp returns the sent_at for a new message. Values are strictly
// increasing per Backend, even when the wall clock stalls or steps back.
func (b *Backend) stamp() time.Time {
	b.clockMu.Lock()
	defer b.clockMu.Unlock()

	ms := b.now().UnixMilli()
	if ms <= b.lastStamp {
		ms = b.lastStamp + 1
	}
	b.lastStamp = ms
	return time.UnixMilli(ms).UTC()
}

// observe records metrics for an operation and logs failures. Use as
//
//	defer b.observe(table, op, time.Now(), &err)
func (b *Backend) observe(table, op string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	result := resultLabel(err)
	metrics.ObserveOperation(table, op, result, time.Since(start))

	switch result {
	case metrics.ResultOK:
	case metrics.ResultError:
		b.logger.Error("store operation failed",
			slog.String("table", table),
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
	default:
		b.logger.Debug("store operation rejected",
			slog.String("table", table),
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
	}
}

// resultLabel maps an operation error to its metrics result label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, types.ErrInvalidID), errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrEmptyPatch), errors.Is(err, types.ErrInvalidFilter),
		errors.Is(err, types.ErrInvalidCredentials):
		return metrics.ResultInvalid
	case errors.Is(err, types.ErrNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, types.ErrAlreadyExists), errors.Is(err, types.ErrReferenced):
		return metrics.ResultConflict
	default:
		return metrics.ResultError
	}
}
