package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/listings/pkg/types"
)

// Compile-time interface check: favoritesTable must implement FavoriteTable.
var _ types.FavoriteTable = (*favoritesTable)(nil)

type favoritesTable struct {
	backend *Backend
}

// Add bookmarks the property for the user. An existing pair is left as is.
// Returns ErrReferenced when either side does not exist.
func (ft *favoritesTable) Add(userID, propertyID int64) (err error) {
	defer ft.backend.observe(types.FavoritesTable, "add", time.Now(), &err)

	if err := validID(userID, propertyID); err != nil {
		return err
	}
	db, release, err := ft.backend.conn()
	if err != nil {
		return err
	}
	defer release()

	return withTx(db, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			"INSERT INTO favorites (user_id, property_id) VALUES (?, ?) ON CONFLICT (user_id, property_id) DO NOTHING",
			userID, propertyID,
		)
		if err != nil {
			return classify("adding favorite", err)
		}
		return nil
	})
}

func (ft *favoritesTable) Remove(userID, propertyID int64) (err error) {
	defer ft.backend.observe(types.FavoritesTable, "remove", time.Now(), &err)

	if err := validID(userID, propertyID); err != nil {
		return err
	}
	db, release, err := ft.backend.conn()
	if err != nil {
		return err
	}
	defer release()

	return withTx(db, func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM favorites WHERE user_id = ? AND property_id = ?", userID, propertyID)
		if err != nil {
			return classify("removing favorite", err)
		}
		return expectOneRow(res, fmt.Sprintf("favorite %d/%d", userID, propertyID))
	})
}

// ListByUser returns the user's favorite property ids in ascending order.
func (ft *favoritesTable) ListByUser(userID int64) (ids []int64, err error) {
	defer ft.backend.observe(types.FavoritesTable, "list", time.Now(), &err)

	if err := validID(userID); err != nil {
		return nil, err
	}
	db, release, err := ft.backend.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.Query("SELECT property_id FROM favorites WHERE user_id = ? ORDER BY property_id", userID)
	if err != nil {
		return nil, classify("listing favorites", err)
	}
	defer rows.Close()

	ids = []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, classify("hydrating favorite", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterating favorites", err)
	}
	return ids, nil
}

func (ft *favoritesTable) Contains(userID, propertyID int64) (ok bool, err error) {
	defer ft.backend.observe(types.FavoritesTable, "contains", time.Now(), &err)

	if err := validID(userID, propertyID); err != nil {
		return false, err
	}
	db, release, err := ft.backend.conn()
	if err != nil {
		return false, err
	}
	defer release()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM favorites WHERE user_id = ? AND property_id = ?", userID, propertyID).Scan(&n); err != nil {
		return false, classify("checking favorite", err)
	}
	return n > 0, nil
}
