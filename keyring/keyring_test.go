package keyring

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/cliplink/crypto"
)

func TestFileSourceCreatesAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "id_rsa")
	source := NewFileSource(path)

	created, err := source.KeyPair()
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}

	reloaded, err := source.KeyPair()
	require.NoError(t, err)
	assert.Equal(t, created.Public().N, reloaded.Public().N)
	assert.Equal(t, created.Public().E, reloaded.Public().E)
}

func TestFileSourceRejectsCorruptKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id_rsa")
	require.NoError(t, os.WriteFile(path, []byte("not a key"), 0o600))

	_, err := NewFileSource(path).KeyPair()
	assert.Error(t, err)
}

func TestEphemeralGeneratesDistinctKeys(t *testing.T) {
	var source Ephemeral

	a, err := source.KeyPair()
	require.NoError(t, err)
	b, err := source.KeyPair()
	require.NoError(t, err)

	assert.NotEqual(t, a.Public().N, b.Public().N)
}

func TestStatic(t *testing.T) {
	key, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	got, err := Static{Key: key}.KeyPair()
	require.NoError(t, err)
	assert.Same(t, key, got)
}
