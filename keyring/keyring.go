// Package keyring supplies RSA identity keys to the protocol layer. The key
// source is always injected explicitly; core packages never read key material
// from a hidden filesystem path or environment variable on their own.
package keyring

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/cliplink/crypto"
)

// Source yields the RSA key pair used as the local identity.
type Source interface {
	KeyPair() (*crypto.KeyPair, error)
}

// FileSource loads a PEM private key from Path. If the file does not exist a
// fresh key pair is generated and persisted there with mode 0600, so the same
// identity survives across invocations.
type FileSource struct {
	Path string
}

// NewFileSource creates a FileSource for the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// KeyPair loads or creates the identity key.
func (s *FileSource) KeyPair() (*crypto.KeyPair, error) {
	data, err := os.ReadFile(s.Path)
	if err == nil {
		return crypto.LoadPrivateKey(data)
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	key, err := crypto.GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}
	if err := os.WriteFile(s.Path, key.MarshalPEM(), 0o600); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"package": "keyring",
		"path":    s.Path,
	}).Info("generated new identity key")

	return key, nil
}

// Ephemeral generates a fresh key pair on every call. Useful for tests and
// for one-shot clients that do not need a stable identity.
type Ephemeral struct{}

// KeyPair generates a new key pair.
func (Ephemeral) KeyPair() (*crypto.KeyPair, error) {
	return crypto.GenerateKeyPair()
}

// Static serves a key pair held in memory.
type Static struct {
	Key *crypto.KeyPair
}

// KeyPair returns the held key pair.
func (s Static) KeyPair() (*crypto.KeyPair, error) {
	return s.Key, nil
}
