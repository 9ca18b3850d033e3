package seed

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/listings/internal/sqlite"
	"github.com/mesh-intelligence/listings/pkg/types"
)

const demo = `
users:
  - display_name: Ana
    email: ana@example.com
    password: secret
  - display_name: Ben
    email: ben@example.com
    password: secret
    phone: "555-0102"
properties:
  - key: cottage
    owner_email: ana@example.com
    property_type: house
    title: Seaside cottage
    price: 150000
    address: 1 Shore Rd
    status: for_sale
    contact: ana@example.com
    photos:
      - http://img/cottage-1.jpg
      - http://img/cottage-2.jpg
messages:
  - from: ben@example.com
    to: ana@example.com
    content: Is the cottage available?
    read: true
  - from: ana@example.com
    to: ben@example.com
    content: Yes, come by Saturday.
favorites:
  - user_email: ben@example.com
    property: cottage
`

func setupStore(t *testing.T) *sqlite.Backend {
	t.Helper()
	b := sqlite.NewBackend(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: types.MemoryDataDir}))
	t.Cleanup(func() { b.Detach() })
	return b
}

func TestLoad(t *testing.T) {
	f, err := Load(strings.NewReader(demo))
	require.NoError(t, err)
	require.Len(t, f.Users, 2)
	assert.Equal(t, "555-0102", f.Users[1].Phone)
	require.Len(t, f.Properties, 1)
	assert.Equal(t, []string{"http://img/cottage-1.jpg", "http://img/cottage-2.jpg"}, f.Properties[0].Photos)
	assert.True(t, f.Messages[0].Read)

	empty, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty.Users)

	_, err = Load(strings.NewReader("userz: []"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	b := setupStore(t)
	f, err := Load(strings.NewReader(demo))
	require.NoError(t, err)

	report, err := Apply(b, f)
	require.NoError(t, err)
	assert.Equal(t, Report{UsersCreated: 2, Properties: 1, Photos: 2, Messages: 2, Favorites: 1}, report)

	users, err := b.Users().Search(types.Filter{"email": "ben@example.com"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	ben := users[0]

	favs, err := b.Favorites().ListByUser(ben.UserID)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	photos, err := b.Photos().ListByProperty(favs[0])
	require.NoError(t, err)
	assert.Len(t, photos, 2)

	unread, err := b.Messages().UnreadCount(ben.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	// A second run reuses the users and adds new listings and messages.
	report, err = Apply(b, f)
	require.NoError(t, err)
	assert.Equal(t, 2, report.UsersSkipped)
	assert.Zero(t, report.UsersCreated)
	props, err := b.Properties().Search(types.PropertyQuery{})
	require.NoError(t, err)
	assert.Len(t, props, 2)
}

func TestApply_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fixture *Fixture
		wantErr error
	}{
		{
			name: "unknown owner",
			fixture: &Fixture{Properties: []PropertyFixture{{
				OwnerEmail: "nobody@example.com", PropertyType: "flat", Title: "T",
				Address: "A", Status: "s", Contact: "c",
			}}},
			wantErr: ErrUnknownUser,
		},
		{
			name: "unknown favorite property",
			fixture: &Fixture{
				Users:     []types.Registration{{DisplayName: "Ana", Email: "a@x.com", Password: "p"}},
				Favorites: []FavoriteFixture{{UserEmail: "a@x.com", Property: "missing"}},
			},
			wantErr: ErrUnknownProperty,
		},
		{
			name:    "invalid user",
			fixture: &Fixture{Users: []types.Registration{{Email: "a@x.com", Password: "p"}}},
			wantErr: types.ErrInvalidData,
		},
		{
			name: "invalid property",
			fixture: &Fixture{
				Users:      []types.Registration{{DisplayName: "Ana", Email: "a@x.com", Password: "p"}},
				Properties: []PropertyFixture{{OwnerEmail: "a@x.com", Title: "no type"}},
			},
			wantErr: types.ErrInvalidData,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(setupStore(t), tt.fixture)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
