package types

import "math"

// Property is a listing owned by a user.
type Property struct {
	PropertyID   int64   `json:"id" yaml:"id"`
	PropertyType string  `json:"property_type" yaml:"property_type"`
	Title        string  `json:"title" yaml:"title"`
	Price        float64 `json:"price" yaml:"price"`
	Address      string  `json:"address" yaml:"address"`
	Status       string  `json:"status" yaml:"status"`
	Contact      string  `json:"contact" yaml:"contact"`
	Description  string  `json:"description,omitempty" yaml:"description,omitempty"`
	OwnerID      int64   `json:"owner_id" yaml:"owner_id"`
}

// Validate checks the fields required before a listing is written.
func (p *Property) Validate() error {
	if p.OwnerID <= 0 {
		return ErrInvalidID
	}
	if p.PropertyType == "" || p.Title == "" || p.Address == "" || p.Status == "" || p.Contact == "" {
		return ErrInvalidData
	}
	if !ValidPrice(p.Price) {
		return ErrInvalidData
	}
	return nil
}

// ValidPrice reports whether v is a finite, non-negative price.
func ValidPrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// PropertyPatch lists the fields an update may change. Nil fields are left as they are.
type PropertyPatch struct {
	PropertyType *string
	Title        *string
	Price        *float64
	Address      *string
	Status       *string
	Contact      *string
	Description  *string
	OwnerID      *int64
}

// IsEmpty reports whether the patch changes nothing.
func (p PropertyPatch) IsEmpty() bool {
	return p.PropertyType == nil && p.Title == nil && p.Price == nil && p.Address == nil &&
		p.Status == nil && p.Contact == nil && p.Description == nil && p.OwnerID == nil
}

// PropertyQuery selects listings for PropertyTable.Search.
type PropertyQuery struct {
	Equal    Filter   // column = value conditions, ANDed
	PriceMin *float64 // inclusive
	PriceMax *float64 // inclusive

	// OrderBy is one of "id", "price", "title", optionally prefixed with "-"
	// for descending order. Empty leaves the order to the engine.
	OrderBy string
	Limit   int
}
