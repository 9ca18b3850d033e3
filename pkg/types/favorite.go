package types

// Favorite marks a property as bookmarked by a user. The pair is the whole
// state; there is nothing to update.
type Favorite struct {
	UserID     int64 `json:"user_id"`
	PropertyID int64 `json:"property_id"`
}
