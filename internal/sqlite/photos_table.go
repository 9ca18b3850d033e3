package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/listings/pkg/types"
)

// Compile-time interface check: photosTable must implement PhotoTable.
var _ types.PhotoTable = (*photosTable)(nil)

type photosTable struct {
	backend *Backend
}

// Insert attaches url to the property. Returns ErrReferenced when the
// property does not exist.
func (pt *photosTable) Insert(propertyID int64, url string) (photo *types.Photo, err error) {
	defer pt.backend.observe(types.PhotosTable, "insert", time.Now(), &err)

	if err := validID(propertyID); err != nil {
		return nil, err
	}
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("url: %w", types.ErrInvalidData)
	}

	db, release, err := pt.backend.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	p := &types.Photo{PropertyID: propertyID, URL: url}
	err = withTx(db, func(tx *sql.Tx) error {
		res, err := tx.Exec("INSERT INTO photos (property_id, url) VALUES (?, ?)", propertyID, url)
		if err != nil {
			return classify("inserting photo", err)
		}
		p.PhotoID, err = res.LastInsertId()
		if err != nil {
			return classify("reading photo id", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (pt *photosTable) Delete(photoID int64) (err error) {
	defer pt.backend.observe(types.PhotosTable, "delete", time.Now(), &err)

	if err := validID(photoID); err != nil {
		return err
	}
	db, release, err := pt.backend.conn()
	if err != nil {
		return err
	}
	defer release()

	return withTx(db, func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM photos WHERE id = ?", photoID)
		if err != nil {
			return classify("deleting photo", err)
		}
		return expectOneRow(res, fmt.Sprintf("photo %d", photoID))
	})
}

// ListByProperty returns the property's photos ordered by id. An unknown
// property yields an empty slice.
func (pt *photosTable) ListByProperty(propertyID int64) (photos []*types.Photo, err error) {
	defer pt.backend.observe(types.PhotosTable, "list", time.Now(), &err)

	if err := validID(propertyID); err != nil {
		return nil, err
	}
	db, release, err := pt.backend.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.Query("SELECT id, property_id, url FROM photos WHERE property_id = ? ORDER BY id", propertyID)
	if err != nil {
		return nil, classify("listing photos", err)
	}
	defer rows.Close()

	photos = []*types.Photo{}
	for rows.Next() {
		var p types.Photo
		if err := rows.Scan(&p.PhotoID, &p.PropertyID, &p.URL); err != nil {
			return nil, classify("hydrating photo", err)
		}
		photos = append(photos, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterating photos", err)
	}
	return photos, nil
}
