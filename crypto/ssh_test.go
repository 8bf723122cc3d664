package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestMarshalParsePublicKeyRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	require.NoError(t, err)

	line, err := MarshalPublicKey(kp.Public())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(line), "ssh-rsa "))
	assert.False(t, strings.HasSuffix(string(line), "\n"))

	pub, err := ParsePublicKey(line)
	require.NoError(t, err)
	assert.Equal(t, kp.Public().N, pub.N)
	assert.Equal(t, kp.Public().E, pub.E)
}

func TestParsePublicKeyRejectsNonRSA(t *testing.T) {
	edPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	sshPub, err := ssh.NewPublicKey(edPub)
	require.NoError(t, err)

	_, err = ParsePublicKey(ssh.MarshalAuthorizedKey(sshPub))
	assert.ErrorIs(t, err, ErrUnsupportedKeyType)
}

func TestParsePublicKeyRejectsUndersized(t *testing.T) {
	small, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	sshPub, err := ssh.NewPublicKey(&small.PublicKey)
	require.NoError(t, err)

	_, err = ParsePublicKey(ssh.MarshalAuthorizedKey(sshPub))
	assert.ErrorIs(t, err, ErrKeyTooSmall)
}

func TestParsePublicKeyMalformed(t *testing.T) {
	tests := []struct {
		name string
		line []byte
	}{
		{"empty", nil},
		{"plain text", []byte("not a key at all")},
		{"truncated base64", []byte("ssh-rsa AAAAB3Nza")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePublicKey(tt.line)
			assert.Error(t, err)
		})
	}
}
