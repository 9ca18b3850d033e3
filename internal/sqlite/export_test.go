package sqlite

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/listings/pkg/types"
)

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		out = append(out, rec)
	}
	require.NoError(t, scanner.Err())
	return out
}

func TestBackend_Export(t *testing.T) {
	b := setupBackend(t)
	ana := mustRegister(t, b, "Ana", "a@x.com")
	ben := mustRegister(t, b, "Ben", "b@x.com")
	p := mustProperty(t, b, ana.UserID, "Cottage", 1)
	_, err := b.Photos().Insert(p.PropertyID, "http://img/1.jpg")
	require.NoError(t, err)
	_, err = b.Messages().Send(ben.UserID, ana.UserID, "is it available?")
	require.NoError(t, err)
	require.NoError(t, b.Favorites().Add(ben.UserID, p.PropertyID))

	dir := filepath.Join(t.TempDir(), "snapshot")
	counts, err := b.Export(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		types.UsersTable:      2,
		types.PropertiesTable: 1,
		types.PhotosTable:     1,
		types.MessagesTable:   1,
		types.FavoritesTable:  1,
	}, counts)

	users := readLines(t, filepath.Join(dir, "users.jsonl"))
	require.Len(t, users, 2)
	assert.Equal(t, "a@x.com", users[0]["email"])
	for _, u := range users {
		assert.NotContains(t, u, "password_secret")
	}

	messages := readLines(t, filepath.Join(dir, "messages.jsonl"))
	require.Len(t, messages, 1)
	assert.Equal(t, "is it available?", messages[0]["content"])

	leftovers, err := filepath.Glob(filepath.Join(dir, ".jsonl-*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestWriteJSONL_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.jsonl")
	require.NoError(t, writeJSONL(path, []json.RawMessage{json.RawMessage(`{"a":1}`), json.RawMessage(`{"a":2}`)}))
	require.NoError(t, writeJSONL(path, []json.RawMessage{json.RawMessage(`{"a":3}`)}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":3}\n", string(data))
}
