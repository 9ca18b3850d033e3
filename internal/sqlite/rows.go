package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/listings/pkg/types"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// nullString stores empty optional text as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// expectOneRow returns ErrNotFound unless the statement affected exactly one row.
func expectOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return classify("reading rows affected", err)
	}
	if n != 1 {
		return fmt.Errorf("%s: %w", what, types.ErrNotFound)
	}
	return nil
}

// validID rejects identifiers that cannot name a row.
func validID(ids ...int64) error {
	for _, id := range ids {
		if id <= 0 {
			return fmt.Errorf("id %d: %w", id, types.ErrInvalidID)
		}
	}
	return nil
}
