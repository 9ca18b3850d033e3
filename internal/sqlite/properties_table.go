// This file implements the properties table accessor: listing CRUD with
// partial updates and the equality-plus-price-range search.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/listings/pkg/types"
)

// Compile-time interface check: propertiesTable must implement PropertyTable.
var _ types.PropertyTable = (*propertiesTable)(nil)

const propertyColumns = "id, property_type, title, price, address, status, contact, description, owner_id"

// propertyFilterColumns are the columns Search accepts as equality filters.
// price is filtered through the range bounds instead.
var propertyFilterColumns = map[string]bool{
	"id":            true,
	"property_type": true,
	"title":         true,
	"address":       true,
	"status":        true,
	"contact":       true,
	"description":   true,
	"owner_id":      true,
}

// propertyOrderColumns are the columns PropertyQuery.OrderBy may name.
var propertyOrderColumns = map[string]bool{
	"id":    true,
	"price": true,
	"title": true,
}

type propertiesTable struct {
	backend *Backend
}

// Insert validates the listing and inserts it, setting p.PropertyID.
func (pt *propertiesTable) Insert(p *types.Property) (err error) {
	defer pt.backend.observe(types.PropertiesTable, "insert", time.Now(), &err)

	if p == nil {
		return types.ErrInvalidData
	}
	if err := p.Validate(); err != nil {
		return err
	}

	db, release, err := pt.backend.conn()
	if err != nil {
		return err
	}
	defer release()

	return withTx(db, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			`INSERT INTO properties (property_type, title, price, address, status, contact, description, owner_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			p.PropertyType, p.Title, p.Price, p.Address, p.Status, p.Contact, nullString(p.Description), p.OwnerID,
		)
		if err != nil {
			return classify("inserting property", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return classify("reading property id", err)
		}
		p.PropertyID = id
		return nil
	})
}

// Update writes the supplied fields only.
func (pt *propertiesTable) Update(id int64, patch types.PropertyPatch) (err error) {
	defer pt.backend.observe(types.PropertiesTable, "update", time.Now(), &err)

	if err := validID(id); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return types.ErrEmptyPatch
	}

	var set setBuilder
	required := []struct {
		column string
		value  *string
	}{
		{"property_type", patch.PropertyType},
		{"title", patch.Title},
		{"address", patch.Address},
		{"status", patch.Status},
		{"contact", patch.Contact},
	}
	for _, f := range required {
		if f.value == nil {
			continue
		}
		if *f.value == "" {
			return fmt.Errorf("%s: %w", f.column, types.ErrInvalidData)
		}
		set.Set(f.column, *f.value)
	}
	if patch.Price != nil {
		if !types.ValidPrice(*patch.Price) {
			return fmt.Errorf("price: %w", types.ErrInvalidData)
		}
		set.Set("price", *patch.Price)
	}
	if patch.Description != nil {
		set.Set("description", nullString(*patch.Description))
	}
	if patch.OwnerID != nil {
		if err := validID(*patch.OwnerID); err != nil {
			return err
		}
		set.Set("owner_id", *patch.OwnerID)
	}

	db, release, err := pt.backend.conn()
	if err != nil {
		return err
	}
	defer release()

	return withTx(db, func(tx *sql.Tx) error {
		clause, args := set.Build()
		res, err := tx.Exec("UPDATE properties "+clause+" WHERE id = ?", append(args, id)...)
		if err != nil {
			return classify("updating property", err)
		}
		return expectOneRow(res, fmt.Sprintf("property %d", id))
	})
}

// Delete removes the listing. Photos and favorites pointing at it are not
// removed; the delete fails with ErrReferenced while any remain.
func (pt *propertiesTable) Delete(id int64) (err error) {
	defer pt.backend.observe(types.PropertiesTable, "delete", time.Now(), &err)

	if err := validID(id); err != nil {
		return err
	}
	db, release, err := pt.backend.conn()
	if err != nil {
		return err
	}
	defer release()

	return withTx(db, func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM properties WHERE id = ?", id)
		if err != nil {
			return classify("deleting property", err)
		}
		return expectOneRow(res, fmt.Sprintf("property %d", id))
	})
}

// Get retrieves a listing by ID.
func (pt *propertiesTable) Get(id int64) (property *types.Property, err error) {
	defer pt.backend.observe(types.PropertiesTable, "get", time.Now(), &err)

	if err := validID(id); err != nil {
		return nil, err
	}
	db, release, err := pt.backend.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	p, err := hydrateProperty(db.QueryRow("SELECT "+propertyColumns+" FROM properties WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("property %d: %w", id, types.ErrNotFound)
		}
		return nil, classify("getting property", err)
	}
	return p, nil
}

// Search builds a conjunctive predicate from the equality filters, appends
// the price clause, and applies the optional ordering and limit.
func (pt *propertiesTable) Search(q types.PropertyQuery) (properties []*types.Property, err error) {
	defer pt.backend.observe(types.PropertiesTable, "search", time.Now(), &err)

	query, args, err := buildPropertySearch(q)
	if err != nil {
		return nil, err
	}

	db, release, err := pt.backend.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, classify("searching properties", err)
	}
	defer rows.Close()

	properties = []*types.Property{}
	for rows.Next() {
		p, err := hydrateProperty(rows)
		if err != nil {
			return nil, classify("hydrating property", err)
		}
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterating properties", err)
	}
	return properties, nil
}

// buildPropertySearch renders the SELECT for q.
func buildPropertySearch(q types.PropertyQuery) (string, []any, error) {
	conds, err := equalityConditions(q.Equal, propertyFilterColumns)
	if err != nil {
		return "", nil, err
	}
	var where whereBuilder
	for _, c := range conds {
		where.Add(c)
	}
	price, ok, err := priceCondition(q.PriceMin, q.PriceMax)
	if err != nil {
		return "", nil, err
	}
	if ok {
		where.Add(price)
	}
	if q.Limit < 0 {
		return "", nil, fmt.Errorf("negative limit: %w", types.ErrInvalidFilter)
	}

	clause, args, err := where.Build()
	if err != nil {
		return "", nil, err
	}
	order, err := orderClause(q.OrderBy, propertyOrderColumns)
	if err != nil {
		return "", nil, err
	}

	parts := []string{"SELECT " + propertyColumns + " FROM properties"}
	if clause != "" {
		parts = append(parts, clause)
	}
	if order != "" {
		parts = append(parts, order)
	}
	if q.Limit > 0 {
		parts = append(parts, "LIMIT ?")
		args = append(args, q.Limit)
	}
	return strings.Join(parts, " "), args, nil
}

// hydrateProperty converts a row into a *types.Property.
func hydrateProperty(row rowScanner) (*types.Property, error) {
	var p types.Property
	var description sql.NullString
	if err := row.Scan(&p.PropertyID, &p.PropertyType, &p.Title, &p.Price, &p.Address,
		&p.Status, &p.Contact, &description, &p.OwnerID); err != nil {
		return nil, err
	}
	p.Description = description.String
	return &p, nil
}
