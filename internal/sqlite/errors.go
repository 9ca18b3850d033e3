package sqlite

import (
	"errors"
	"fmt"
	"strings"

	sqlitedriver "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/listings/pkg/types"
)

// classify wraps an engine error with the sentinel for its kind. Constraint
// violations become ErrAlreadyExists or ErrReferenced; anything else is a
// transaction failure.
func classify(op string, err error) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w", op, types.ErrAlreadyExists)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%s: %w", op, types.ErrReferenced)
	default:
		return fmt.Errorf("%s: %w: %w", op, types.ErrTransaction, err)
	}
}

func isUniqueViolation(err error) bool {
	var se *sqlitedriver.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	var se *sqlitedriver.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY {
		return true
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
