package tokenstore

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store := NewFile(path)

	// Absent file reads as empty, not an error.
	got, err := store.Get(KeyAccessToken)
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, store.Set(KeyAccessToken, "acc-1"))
	require.NoError(t, store.Set(KeyRefreshToken, "ref-1"))

	got, err = store.Get(KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got)

	// A second Set must not drop the other key.
	require.NoError(t, store.Set(KeyAccessToken, "acc-2"))

	got, err = store.Get(KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "ref-1", got)
}

func TestFile_FreshReadsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")

	writer := NewFile(path)
	require.NoError(t, writer.Set(KeyAccessToken, "acc-1"))

	// A different instance (another process in real life) sees the write.
	reader := NewFile(path)

	got, err := reader.Get(KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", got)
}

func TestFile_ClearRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store := NewFile(path)

	require.NoError(t, store.Set(KeyAccessToken, "acc-1"))
	require.NoError(t, store.Clear())

	_, err := os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)

	// Clearing twice is fine.
	require.NoError(t, store.Clear())
}

func TestFile_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}

	path := filepath.Join(t.TempDir(), "tokens.json")
	store := NewFile(path)

	require.NoError(t, store.Set(KeyAccessToken, "secret"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FilePerms), info.Mode().Perm())
}

func TestFile_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), FilePerms))

	store := NewFile(path)

	_, err := store.Get(KeyAccessToken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding")
}
