package types

// Photo is an image URL attached to a property.
type Photo struct {
	PhotoID    int64  `json:"id"`
	PropertyID int64  `json:"property_id"`
	URL        string `json:"url"`
}
