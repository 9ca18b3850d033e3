// This file provides the JSONL snapshot export. Each table is written to
// <table>.jsonl in the target directory with the temp-file, fsync, rename
// pattern, so a reader never sees a half-written file.
package sqlite

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/listings/pkg/types"
)

// exportQueries selects every row of a table in a stable order and converts
// it into its JSON-serializable entity.
var exportQueries = map[string]struct {
	query   string
	hydrate func(rowScanner) (any, error)
}{
	types.UsersTable: {
		"SELECT " + userColumns + " FROM users ORDER BY id",
		func(r rowScanner) (any, error) { return hydrateUser(r) },
	},
	types.PropertiesTable: {
		"SELECT " + propertyColumns + " FROM properties ORDER BY id",
		func(r rowScanner) (any, error) { return hydrateProperty(r) },
	},
	types.PhotosTable: {
		"SELECT id, property_id, url FROM photos ORDER BY id",
		func(r rowScanner) (any, error) {
			var p types.Photo
			err := r.Scan(&p.PhotoID, &p.PropertyID, &p.URL)
			return &p, err
		},
	},
	types.MessagesTable: {
		"SELECT " + messageColumns + " FROM messages ORDER BY sent_at, id",
		func(r rowScanner) (any, error) { return hydrateMessage(r) },
	},
	types.FavoritesTable: {
		"SELECT user_id, property_id FROM favorites ORDER BY user_id, property_id",
		func(r rowScanner) (any, error) {
			var f types.Favorite
			err := r.Scan(&f.UserID, &f.PropertyID)
			return &f, err
		},
	},
}

// Export writes every table to dir as JSONL and returns the row count per
// table. Password secrets are never written.
func (b *Backend) Export(dir string) (map[string]int, error) {
	db, release, err := b.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export dir: %w", err)
	}

	counts := make(map[string]int, len(types.StandardTableNames))
	for _, table := range types.StandardTableNames {
		records, err := exportTable(db, table)
		if err != nil {
			return nil, err
		}
		if err := writeJSONL(filepath.Join(dir, table+".jsonl"), records); err != nil {
			return nil, fmt.Errorf("exporting %s: %w", table, err)
		}
		counts[table] = len(records)
	}
	b.logger.Info("store exported", slog.String("dir", dir), slog.Any("rows", counts))
	return counts, nil
}

func exportTable(db *sql.DB, table string) ([]json.RawMessage, error) {
	q := exportQueries[table]
	rows, err := db.Query(q.query)
	if err != nil {
		return nil, classify("exporting "+table, err)
	}
	defer rows.Close()

	records := []json.RawMessage{}
	for rows.Next() {
		entity, err := q.hydrate(rows)
		if err != nil {
			return nil, classify("hydrating "+table, err)
		}
		data, err := json.Marshal(entity)
		if err != nil {
			return nil, fmt.Errorf("encoding %s row: %w", table, err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterating "+table, err)
	}
	return records, nil
}

// writeJSONL atomically writes records to path, one per line.
func writeJSONL(path string, records []json.RawMessage) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%s: %w", step, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
