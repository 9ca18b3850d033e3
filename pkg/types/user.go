package types

// User is a registered account.
type User struct {
	UserID          int64  `json:"id" yaml:"id"`
	DisplayName     string `json:"display_name" yaml:"display_name"`
	Email           string `json:"email" yaml:"email"`
	PasswordSecret  string `json:"-" yaml:"-"` // bcrypt hash, never serialized.
	ProfilePhotoURL string `json:"profile_photo_url,omitempty" yaml:"profile_photo_url,omitempty"`
	Phone           string `json:"phone,omitempty" yaml:"phone,omitempty"`
}

// Registration carries the fields needed to create a user. Password is the
// plaintext; only its hash is stored.
type Registration struct {
	DisplayName     string `yaml:"display_name"`
	Email           string `yaml:"email"`
	Password        string `yaml:"password"`
	ProfilePhotoURL string `yaml:"profile_photo_url,omitempty"`
	Phone           string `yaml:"phone,omitempty"`
}

// UserPatch lists the fields an update may change. Nil fields are left as they are.
type UserPatch struct {
	DisplayName     *string
	Email           *string
	Password        *string
	ProfilePhotoURL *string
	Phone           *string
}

// IsEmpty reports whether the patch changes nothing.
func (p UserPatch) IsEmpty() bool {
	return p.DisplayName == nil && p.Email == nil && p.Password == nil &&
		p.ProfilePhotoURL == nil && p.Phone == nil
}

// RegisterOutcome is the result of UserTable.Register.
type RegisterOutcome int

const (
	RegisterFailed RegisterOutcome = iota
	RegisterCreated
	RegisterAlreadyExists
)

// String returns the string representation of the outcome.
func (o RegisterOutcome) String() string {
	switch o {
	case RegisterCreated:
		return "created"
	case RegisterAlreadyExists:
		return "already_exists"
	default:
		return "failed"
	}
}
