package types

import "errors"

// Filter maps column names to the value each must equal. Conditions are
// ANDed; an empty or nil filter matches every row.
type Filter map[string]any

// UserTable manages user profiles.
type UserTable interface {
	// Register creates a user unless the email is already taken.
	// The outcome is always set, including when err is non-nil.
	Register(reg Registration) (*User, RegisterOutcome, error)

	// Update writes only the non-nil fields of patch.
	// Returns ErrNotFound if no user has the id.
	Update(id int64, patch UserPatch) error

	// Delete removes the user. Returns ErrNotFound if no user has the id and
	// ErrReferenced while other rows still point at it.
	Delete(id int64) error

	Get(id int64) (*User, error)
	Search(filter Filter) ([]*User, error)

	// Authenticate returns the user whose email and password match.
	Authenticate(email, password string) (*User, error)
}

// PropertyTable manages property listings.
type PropertyTable interface {
	// Insert creates the listing and sets p.PropertyID.
	Insert(p *Property) error
	Update(id int64, patch PropertyPatch) error
	Delete(id int64) error
	Get(id int64) (*Property, error)

	// Search returns listings matching every equality filter and the price
	// range. Result order is unspecified unless q.OrderBy is set.
	Search(q PropertyQuery) ([]*Property, error)
}

// PhotoTable manages photo URLs attached to a property.
type PhotoTable interface {
	Insert(propertyID int64, url string) (*Photo, error)
	Delete(photoID int64) error

	// ListByProperty returns the property's photos in insertion order.
	ListByProperty(propertyID int64) ([]*Photo, error)
}

// MessageTable manages direct messages between two users.
type MessageTable interface {
	Send(senderID, recipientID int64, content string) (*Message, error)

	// Inbox returns the messages addressed to recipientID, newest first.
	Inbox(recipientID int64) ([]*Message, error)
	MarkRead(messageID int64) error
	Delete(messageID int64) error

	// LastBetween returns the most recent message exchanged in either
	// direction. Returns ErrNotFound when the users never exchanged one.
	LastBetween(userA, userB int64) (*Message, error)

	// Involving returns every message the user sent or received, newest first.
	Involving(userID int64) ([]*Message, error)

	// Between returns the conversation between two users in chronological order.
	Between(userA, userB int64) ([]*Message, error)

	UnreadCount(recipientID int64) (int, error)
}

// FavoriteTable manages the user to property bookmark relation.
type FavoriteTable interface {
	// Add bookmarks the property. Adding an existing pair is a no-op.
	Add(userID, propertyID int64) error

	// Remove deletes the pair. Returns ErrNotFound if it was not present.
	Remove(userID, propertyID int64) error

	ListByUser(userID int64) ([]int64, error)
	Contains(userID, propertyID int64) (bool, error)
}

// Validation errors. Returned before any write is attempted.
var (
	ErrInvalidID     = errors.New("invalid entity ID")
	ErrInvalidData   = errors.New("invalid entity data")
	ErrEmptyPatch    = errors.New("patch has no fields to update")
	ErrInvalidFilter = errors.New("invalid filter")
)

// Storage outcome errors.
var (
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrReferenced         = errors.New("foreign key constraint failed")
	ErrTransaction        = errors.New("transaction failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
