package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/listings/pkg/types"
)

func strPtr(s string) *string { return &s }

func TestUsersTable_Register(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend)
	}{
		{
			name: "same email twice yields created then already exists",
			check: func(t *testing.T, b *Backend) {
				reg := types.Registration{DisplayName: "Ana", Email: "a@x.com", Password: "p1"}
				u, outcome, err := b.Users().Register(reg)
				require.NoError(t, err)
				assert.Equal(t, types.RegisterCreated, outcome)
				assert.Positive(t, u.UserID)

				reg.DisplayName = "Other Ana"
				u2, outcome, err := b.Users().Register(reg)
				assert.ErrorIs(t, err, types.ErrAlreadyExists)
				assert.Equal(t, types.RegisterAlreadyExists, outcome)
				assert.Nil(t, u2)
				assert.Equal(t, 1, countRows(t, b, types.UsersTable))
			},
		},
		{
			name: "email uniqueness ignores case and surrounding space",
			check: func(t *testing.T, b *Backend) {
				mustRegister(t, b, "Ana", "a@x.com")
				_, outcome, err := b.Users().Register(types.Registration{DisplayName: "B", Email: "  A@X.COM ", Password: "p"})
				assert.ErrorIs(t, err, types.ErrAlreadyExists)
				assert.Equal(t, types.RegisterAlreadyExists, outcome)
			},
		},
		{
			name: "password is stored as a hash",
			check: func(t *testing.T, b *Backend) {
				u := mustRegister(t, b, "Ana", "a@x.com")
				assert.NotEqual(t, "secret", u.PasswordSecret)
				assert.NotEmpty(t, u.PasswordSecret)
			},
		},
		{
			name: "missing fields fail validation without writing",
			check: func(t *testing.T, b *Backend) {
				for _, reg := range []types.Registration{
					{Email: "a@x.com", Password: "p"},
					{DisplayName: "Ana", Password: "p"},
					{DisplayName: "Ana", Email: "not-an-email", Password: "p"},
					{DisplayName: "Ana", Email: "a@x.com"},
				} {
					_, outcome, err := b.Users().Register(reg)
					assert.ErrorIs(t, err, types.ErrInvalidData, "%+v", reg)
					assert.Equal(t, types.RegisterFailed, outcome)
				}
				assert.Equal(t, 0, countRows(t, b, types.UsersTable))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, setupBackend(t))
		})
	}
}

func TestUsersTable_Update(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend)
	}{
		{
			name: "partial update changes only supplied fields",
			check: func(t *testing.T, b *Backend) {
				u := mustRegister(t, b, "Ana", "a@x.com")
				require.NoError(t, b.Users().Update(u.UserID, types.UserPatch{Phone: strPtr("555-0101")}))

				got, err := b.Users().Get(u.UserID)
				require.NoError(t, err)
				assert.Equal(t, "555-0101", got.Phone)
				assert.Equal(t, "Ana", got.DisplayName)
				assert.Equal(t, "a@x.com", got.Email)
				assert.Equal(t, u.PasswordSecret, got.PasswordSecret)
			},
		},
		{
			name: "password update rehashes",
			check: func(t *testing.T, b *Backend) {
				u := mustRegister(t, b, "Ana", "a@x.com")
				require.NoError(t, b.Users().Update(u.UserID, types.UserPatch{Password: strPtr("new-secret")}))

				_, err := b.Users().Authenticate("a@x.com", "secret")
				assert.ErrorIs(t, err, types.ErrInvalidCredentials)
				_, err = b.Users().Authenticate("a@x.com", "new-secret")
				assert.NoError(t, err)
			},
		},
		{
			name: "taking another user's email is rejected",
			check: func(t *testing.T, b *Backend) {
				mustRegister(t, b, "Ana", "a@x.com")
				u := mustRegister(t, b, "Ben", "b@x.com")
				err := b.Users().Update(u.UserID, types.UserPatch{Email: strPtr("A@x.com")})
				assert.ErrorIs(t, err, types.ErrAlreadyExists)

				got, err := b.Users().Get(u.UserID)
				require.NoError(t, err)
				assert.Equal(t, "b@x.com", got.Email)
			},
		},
		{
			name: "empty patch and bad values are rejected",
			check: func(t *testing.T, b *Backend) {
				u := mustRegister(t, b, "Ana", "a@x.com")
				assert.ErrorIs(t, b.Users().Update(u.UserID, types.UserPatch{}), types.ErrEmptyPatch)
				assert.ErrorIs(t, b.Users().Update(u.UserID, types.UserPatch{DisplayName: strPtr(" ")}), types.ErrInvalidData)
				assert.ErrorIs(t, b.Users().Update(u.UserID, types.UserPatch{Email: strPtr("nope")}), types.ErrInvalidData)
				assert.ErrorIs(t, b.Users().Update(0, types.UserPatch{Phone: strPtr("1")}), types.ErrInvalidID)
			},
		},
		{
			name: "unknown id is not found",
			check: func(t *testing.T, b *Backend) {
				assert.ErrorIs(t, b.Users().Update(42, types.UserPatch{Phone: strPtr("1")}), types.ErrNotFound)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, setupBackend(t))
		})
	}
}

func TestUsersTable_Delete(t *testing.T) {
	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend)
	}{
		{
			name: "delete removes the user",
			check: func(t *testing.T, b *Backend) {
				u := mustRegister(t, b, "Ana", "a@x.com")
				require.NoError(t, b.Users().Delete(u.UserID))
				_, err := b.Users().Get(u.UserID)
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "missing id is not found and nothing changes",
			check: func(t *testing.T, b *Backend) {
				mustRegister(t, b, "Ana", "a@x.com")
				assert.ErrorIs(t, b.Users().Delete(999), types.ErrNotFound)
				assert.Equal(t, 1, countRows(t, b, types.UsersTable))
			},
		},
		{
			name: "owner of a listing cannot be deleted",
			check: func(t *testing.T, b *Backend) {
				u := mustRegister(t, b, "Ana", "a@x.com")
				mustProperty(t, b, u.UserID, "Cottage", 1)
				assert.ErrorIs(t, b.Users().Delete(u.UserID), types.ErrReferenced)
				assert.Equal(t, 1, countRows(t, b, types.UsersTable))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, setupBackend(t))
		})
	}
}

func TestUsersTable_Search(t *testing.T) {
	b := setupBackend(t)
	ana := mustRegister(t, b, "Ana", "a@x.com")
	ben := mustRegister(t, b, "Ben", "b@x.com")
	require.NoError(t, b.Users().Update(ben.UserID, types.UserPatch{Phone: strPtr("555")}))

	tests := []struct {
		name    string
		filter  types.Filter
		want    []int64
		wantErr error
	}{
		{"nil filter returns all in id order", nil, []int64{ana.UserID, ben.UserID}, nil},
		{"email is normalized", types.Filter{"email": "A@X.com"}, []int64{ana.UserID}, nil},
		{"conjunctive", types.Filter{"display_name": "Ben", "phone": "555"}, []int64{ben.UserID}, nil},
		{"no match is empty", types.Filter{"display_name": "Cy"}, []int64{}, nil},
		{"secret is not filterable", types.Filter{"password_secret": "x"}, nil, types.ErrInvalidFilter},
		{"unknown column", types.Filter{"name; DROP TABLE users": "x"}, nil, types.ErrInvalidFilter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := b.Users().Search(tt.filter)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			ids := []int64{}
			for _, u := range users {
				ids = append(ids, u.UserID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestUsersTable_Authenticate(t *testing.T) {
	b := setupBackend(t)
	u := mustRegister(t, b, "Ana", "a@x.com")

	got, err := b.Users().Authenticate(" A@x.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, u.UserID, got.UserID)

	_, err = b.Users().Authenticate("a@x.com", "wrong")
	assert.ErrorIs(t, err, types.ErrInvalidCredentials)
	_, err = b.Users().Authenticate("nobody@x.com", "secret")
	assert.ErrorIs(t, err, types.ErrInvalidCredentials)
	_, err = b.Users().Authenticate("", "")
	assert.ErrorIs(t, err, types.ErrInvalidCredentials)
}
