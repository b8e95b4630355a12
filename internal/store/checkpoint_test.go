// internal/store/checkpoint_test.go
package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpoint_LoadMissingFileIsEmpty(t *testing.T) {
	c := NewCheckpoint(filepath.Join(t.TempDir(), "processed_users.txt"))

	logins, err := c.Load()
	require.NoError(t, err)
	assert.Empty(t, logins)

	set, err := c.LoadSet()
	require.NoError(t, err)
	assert.Empty(t, set)
}

func TestCheckpoint_AppendPreservesOrderAndDedups(t *testing.T) {
	c := NewCheckpoint(filepath.Join(t.TempDir(), "processed_users.txt"))

	require.NoError(t, c.Append([]string{"a", "b"}))
	require.NoError(t, c.Append([]string{"b", "c"}))

	logins, err := c.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, logins)
}

func TestCheckpoint_AppendNothingIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_users.txt")
	c := NewCheckpoint(path)

	require.NoError(t, c.Append(nil))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty append must not create the file")
}

func TestCheckpoint_FileIsOneLoginPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_users.txt")
	c := NewCheckpoint(path)

	require.NoError(t, c.Append([]string{"alice", "bob"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice\nbob\n", string(raw))
}

func TestCheckpoint_SurvivesBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed_users.txt")
	require.NoError(t, os.WriteFile(path, []byte("alice\n\n  \nbob\n"), 0o644))

	c := NewCheckpoint(path)
	logins, err := c.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, logins)
}

func TestCheckpoint_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	c := NewCheckpoint(filepath.Join(dir, "processed_users.txt"))
	require.NoError(t, c.Append([]string{"alice"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "processed_users.txt", entries[0].Name())
}

func TestLoadUserList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "user_list.txt")
	require.NoError(t, os.WriteFile(path, []byte("alice\nbob\n\ncarol\n"), 0o644))

	users, err := LoadUserList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, users)

	_, err = LoadUserList(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err, "a missing candidate list is fatal, unlike a missing checkpoint")
}

func TestCheckpoint_LargeAppend(t *testing.T) {
	c := NewCheckpoint(filepath.Join(t.TempDir(), "processed_users.txt"))

	var logins []string
	for i := 0; i < 2500; i++ {
		logins = append(logins, "user"+strings.Repeat("x", i%5)+string(rune('a'+i%26)))
	}
	require.NoError(t, c.Append(logins))

	loaded, err := c.Load()
	require.NoError(t, err)
	// Input contains duplicates; the checkpoint stores each once.
	set := map[string]struct{}{}
	for _, l := range logins {
		set[l] = struct{}{}
	}
	assert.Len(t, loaded, len(set))
}
