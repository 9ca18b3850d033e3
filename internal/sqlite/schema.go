package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/listings/internal/metrics"
	"github.com/mesh-intelligence/listings/pkg/types"
)

// Schema DDL for all tables. Column names are a stable contract for other
// tooling that reads the database file.
const (
	createUsers = `CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    display_name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_secret TEXT NOT NULL,
    profile_photo_url TEXT,
    phone TEXT
);`

	createProperties = `CREATE TABLE properties (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    property_type TEXT NOT NULL,
    title TEXT NOT NULL,
    price REAL NOT NULL,
    address TEXT NOT NULL,
    status TEXT NOT NULL,
    contact TEXT NOT NULL,
    description TEXT,
    owner_id INTEGER NOT NULL REFERENCES users(id)
);`

	createPhotos = `CREATE TABLE photos (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    property_id INTEGER NOT NULL REFERENCES properties(id),
    url TEXT NOT NULL
);`

	createMessages = `CREATE TABLE messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    sender_id INTEGER NOT NULL REFERENCES users(id),
    recipient_id INTEGER NOT NULL REFERENCES users(id),
    content TEXT NOT NULL,
    sent_at INTEGER NOT NULL,
    is_read INTEGER NOT NULL DEFAULT 0
);`

	createFavorites = `CREATE TABLE favorites (
    user_id INTEGER NOT NULL REFERENCES users(id),
    property_id INTEGER NOT NULL REFERENCES properties(id),
    PRIMARY KEY (user_id, property_id)
);`
)

// Index DDL for common queries.
const (
	idxPropertiesOwner   = `CREATE INDEX idx_properties_owner ON properties(owner_id);`
	idxPropertiesPrice   = `CREATE INDEX idx_properties_price ON properties(price);`
	idxPhotosProperty    = `CREATE INDEX idx_photos_property ON photos(property_id);`
	idxMessagesRecipient = `CREATE INDEX idx_messages_recipient ON messages(recipient_id, sent_at);`
	idxMessagesPair      = `CREATE INDEX idx_messages_pair ON messages(sender_id, recipient_id, sent_at);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createUsers,
	createProperties,
	createPhotos,
	createMessages,
	createFavorites,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxPropertiesOwner,
	idxPropertiesPrice,
	idxPhotosProperty,
	idxMessagesRecipient,
	idxMessagesPair,
}

// migration is one additive schema step. Steps run in version order and each
// commits together with the new user_version.
type migration struct {
	version int
	name    string
	stmts   []string
}

var migrations = []migration{
	{version: 1, name: "create tables", stmts: schemaDDL},
	{version: 2, name: "add lookup indexes", stmts: indexDDL},
}

// latestVersion is the schema version this build writes.
func latestVersion() int {
	return migrations[len(migrations)-1].version
}

func userVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// migrate applies every migration newer than the stored version. A database
// written by a newer build is refused unless destructive is set, in which case
// it is dropped and recreated.
func migrate(db *sql.DB, logger *slog.Logger, destructive bool) error {
	current, err := userVersion(db)
	if err != nil {
		return err
	}
	latest := latestVersion()

	if current > latest {
		if !destructive {
			return fmt.Errorf("%w: database is at version %d, this build supports %d",
				types.ErrSchemaVersion, current, latest)
		}
		logger.Warn("schema version is newer than supported, dropping all tables",
			slog.Int("stored_version", current),
			slog.Int("supported_version", latest),
		)
		return recreate(db, logger)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		err := withTx(db, func(tx *sql.Tx) error {
			for _, stmt := range m.stmts {
				if _, err := tx.Exec(stmt); err != nil {
					return err
				}
			}
			_, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version))
			return err
		})
		if err != nil {
			logger.Error("schema migration failed",
				slog.Int("version", m.version),
				slog.String("name", m.name),
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("applying schema version %d (%s): %w", m.version, m.name, err)
		}
		metrics.IncMigration("additive")
		logger.Info("schema migrated",
			slog.Int("version", m.version),
			slog.String("name", m.name),
		)
	}
	return nil
}

// recreate drops every table, children first, and rebuilds the schema from
// version zero.
func recreate(db *sql.DB, logger *slog.Logger) error {
	err := withTx(db, func(tx *sql.Tx) error {
		for i := len(types.StandardTableNames) - 1; i >= 0; i-- {
			if _, err := tx.Exec("DROP TABLE IF EXISTS " + types.StandardTableNames[i]); err != nil {
				return err
			}
		}
		_, err := tx.Exec("PRAGMA user_version = 0")
		return err
	})
	if err != nil {
		return fmt.Errorf("dropping tables: %w", err)
	}
	metrics.IncMigration("destructive")
	logger.Warn("all tables dropped, recreating schema")
	return migrate(db, logger, false)
}
