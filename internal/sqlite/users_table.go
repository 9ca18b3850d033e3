// This file implements the users table accessor: registration with an email
// uniqueness check, partial updates, lookups and password authentication.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/listings/pkg/types"
)

// Compile-time interface check: usersTable must implement UserTable.
var _ types.UserTable = (*usersTable)(nil)

const userColumns = "id, display_name, email, password_secret, profile_photo_url, phone"

// userFilterColumns are the columns Search accepts. password_secret is
// deliberately absent.
var userFilterColumns = map[string]bool{
	"id":                true,
	"display_name":      true,
	"email":             true,
	"phone":             true,
	"profile_photo_url": true,
}

type usersTable struct {
	backend *Backend
}

// normalizeEmail trims and lower-cases an address so uniqueness is
// case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	return at > 0 && at < len(email)-1
}

func (ut *usersTable) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), ut.backend.passwordCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Register validates reg, then checks for the email and inserts the user in
// one transaction. A UNIQUE violation from a concurrent registration is
// reported the same way as a failed pre-check.
func (ut *usersTable) Register(reg types.Registration) (user *types.User, outcome types.RegisterOutcome, err error) {
	defer ut.backend.observe(types.UsersTable, "register", time.Now(), &err)

	email := normalizeEmail(reg.Email)
	if strings.TrimSpace(reg.DisplayName) == "" || reg.Password == "" || !validEmail(email) {
		return nil, types.RegisterFailed, types.ErrInvalidData
	}

	hash, err := ut.hashPassword(reg.Password)
	if err != nil {
		return nil, types.RegisterFailed, err
	}

	db, release, err := ut.backend.conn()
	if err != nil {
		return nil, types.RegisterFailed, err
	}
	defer release()

	u := &types.User{
		DisplayName:     strings.TrimSpace(reg.DisplayName),
		Email:           email,
		PasswordSecret:  hash,
		ProfilePhotoURL: reg.ProfilePhotoURL,
		Phone:           reg.Phone,
	}

	err = withTx(db, func(tx *sql.Tx) error {
		var existing int64
		err := tx.QueryRow("SELECT id FROM users WHERE email = ?", email).Scan(&existing)
		if err == nil {
			return fmt.Errorf("email %s: %w", email, types.ErrAlreadyExists)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return classify("checking email", err)
		}

		res, err := tx.Exec(
			"INSERT INTO users (display_name, email, password_secret, profile_photo_url, phone) VALUES (?, ?, ?, ?, ?)",
			u.DisplayName, u.Email, u.PasswordSecret, nullString(u.ProfilePhotoURL), nullString(u.Phone),
		)
		if err != nil {
			return classify("inserting user", err)
		}
		u.UserID, err = res.LastInsertId()
		if err != nil {
			return classify("reading user id", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, types.ErrAlreadyExists) {
			return nil, types.RegisterAlreadyExists, err
		}
		return nil, types.RegisterFailed, err
	}
	return u, types.RegisterCreated, nil
}

// Update writes the supplied fields only. Taking an email owned by another
// user is logged and then rejected by the UNIQUE constraint.
func (ut *usersTable) Update(id int64, patch types.UserPatch) (err error) {
	defer ut.backend.observe(types.UsersTable, "update", time.Now(), &err)

	if err := validID(id); err != nil {
		return err
	}
	if patch.IsEmpty() {
		return types.ErrEmptyPatch
	}

	var set setBuilder
	var email string
	if patch.DisplayName != nil {
		name := strings.TrimSpace(*patch.DisplayName)
		if name == "" {
			return fmt.Errorf("display name: %w", types.ErrInvalidData)
		}
		set.Set("display_name", name)
	}
	if patch.Email != nil {
		email = normalizeEmail(*patch.Email)
		if !validEmail(email) {
			return fmt.Errorf("email: %w", types.ErrInvalidData)
		}
		set.Set("email", email)
	}
	if patch.Password != nil {
		if *patch.Password == "" {
			return fmt.Errorf("password: %w", types.ErrInvalidData)
		}
		hash, err := ut.hashPassword(*patch.Password)
		if err != nil {
			return err
		}
		set.Set("password_secret", hash)
	}
	if patch.ProfilePhotoURL != nil {
		set.Set("profile_photo_url", nullString(*patch.ProfilePhotoURL))
	}
	if patch.Phone != nil {
		set.Set("phone", nullString(*patch.Phone))
	}

	db, release, err := ut.backend.conn()
	if err != nil {
		return err
	}
	defer release()

	return withTx(db, func(tx *sql.Tx) error {
		if patch.Email != nil {
			var owner int64
			err := tx.QueryRow("SELECT id FROM users WHERE email = ? AND id <> ?", email, id).Scan(&owner)
			switch {
			case err == nil:
				ut.backend.logger.Warn("email already registered to another user",
					slog.Int64("user_id", id),
					slog.Int64("owner_id", owner),
					slog.String("email", email),
				)
			case !errors.Is(err, sql.ErrNoRows):
				return classify("checking email", err)
			}
		}

		clause, args := set.Build()
		res, err := tx.Exec("UPDATE users "+clause+" WHERE id = ?", append(args, id)...)
		if err != nil {
			return classify("updating user", err)
		}
		return expectOneRow(res, fmt.Sprintf("user %d", id))
	})
}

// Delete removes the user. Rows that reference the user are not removed; the
// delete fails with ErrReferenced while any remain.
func (ut *usersTable) Delete(id int64) (err error) {
	defer ut.backend.observe(types.UsersTable, "delete", time.Now(), &err)

	if err := validID(id); err != nil {
		return err
	}
	db, release, err := ut.backend.conn()
	if err != nil {
		return err
	}
	defer release()

	return withTx(db, func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM users WHERE id = ?", id)
		if err != nil {
			return classify("deleting user", err)
		}
		return expectOneRow(res, fmt.Sprintf("user %d", id))
	})
}

// Get retrieves a user by ID.
func (ut *usersTable) Get(id int64) (user *types.User, err error) {
	defer ut.backend.observe(types.UsersTable, "get", time.Now(), &err)

	if err := validID(id); err != nil {
		return nil, err
	}
	db, release, err := ut.backend.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	u, err := hydrateUser(db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", id, types.ErrNotFound)
		}
		return nil, classify("getting user", err)
	}
	return u, nil
}

// Search returns users matching every equality filter, ordered by id.
func (ut *usersTable) Search(filter types.Filter) (users []*types.User, err error) {
	defer ut.backend.observe(types.UsersTable, "search", time.Now(), &err)

	if v, ok := filter["email"].(string); ok {
		filter = copyFilter(filter)
		filter["email"] = normalizeEmail(v)
	}
	conds, err := equalityConditions(filter, userFilterColumns)
	if err != nil {
		return nil, err
	}
	var where whereBuilder
	for _, c := range conds {
		where.Add(c)
	}
	clause, args, err := where.Build()
	if err != nil {
		return nil, err
	}

	db, release, err := ut.backend.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := db.Query("SELECT "+userColumns+" FROM users "+clause+" ORDER BY id", args...)
	if err != nil {
		return nil, classify("searching users", err)
	}
	defer rows.Close()

	users = []*types.User{}
	for rows.Next() {
		u, err := hydrateUser(rows)
		if err != nil {
			return nil, classify("hydrating user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("iterating users", err)
	}
	return users, nil
}

// Authenticate returns the user with the given email if password matches
// the stored secret. Unknown emails and wrong passwords are indistinguishable.
func (ut *usersTable) Authenticate(email, password string) (user *types.User, err error) {
	defer ut.backend.observe(types.UsersTable, "authenticate", time.Now(), &err)

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, types.ErrInvalidCredentials
	}
	db, release, err := ut.backend.conn()
	if err != nil {
		return nil, err
	}
	defer release()

	u, err := hydrateUser(db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrInvalidCredentials
		}
		return nil, classify("getting user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordSecret), []byte(password)); err != nil {
		ut.backend.logger.Info("login failed with wrong password", slog.String("email", email))
		return nil, types.ErrInvalidCredentials
	}
	return u, nil
}

// hydrateUser converts a row into a *types.User.
func hydrateUser(row rowScanner) (*types.User, error) {
	var u types.User
	var photo, phone sql.NullString
	if err := row.Scan(&u.UserID, &u.DisplayName, &u.Email, &u.PasswordSecret, &photo, &phone); err != nil {
		return nil, err
	}
	u.ProfilePhotoURL = photo.String
	u.Phone = phone.String
	return &u, nil
}

// copyFilter returns a shallow copy so callers' maps are never modified.
func copyFilter(f types.Filter) types.Filter {
	out := make(types.Filter, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
