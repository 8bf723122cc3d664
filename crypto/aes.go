package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
)

const (
	// KeySize is the AES-256 session key size in bytes.
	KeySize = 32

	// NonceSize is the AES-GCM nonce size in bytes.
	NonceSize = 12

	// TagSize is the AES-GCM authentication tag size in bytes.
	TagSize = 16
)

var (
	// ErrDecryptionFailed indicates an AEAD authentication failure: the
	// ciphertext was tampered with or encrypted under a different key.
	ErrDecryptionFailed = errors.New("decryption failed: message authentication failed")

	// ErrInvalidKeySize indicates key material that is not KeySize bytes.
	ErrInvalidKeySize = errors.New("session key must be 32 bytes")
)

// SessionKey is an ephemeral AES-256 key. It lives for exactly one TCP
// connection: generated fresh by the server, transported to the client under
// RSA, and discarded when the connection ends.
type SessionKey [KeySize]byte

// Nonce is a single-use 12-byte AES-GCM nonce.
type Nonce [NonceSize]byte

// NewSessionKey generates a cryptographically random session key.
func NewSessionKey() (SessionKey, error) {
	var key SessionKey
	if _, err := rand.Read(key[:]); err != nil {
		return SessionKey{}, err
	}
	return key, nil
}

// SessionKeyFromBytes builds a SessionKey from raw key material, typically
// the RSA-decrypted handshake payload.
func SessionKeyFromBytes(b []byte) (SessionKey, error) {
	if len(b) != KeySize {
		return SessionKey{}, ErrInvalidKeySize
	}
	var key SessionKey
	copy(key[:], b)
	return key, nil
}

// Encrypt seals plaintext with AES-256-GCM under a fresh random nonce and
// returns the nonce alongside ciphertext‖tag. Generating the nonce here, per
// call, is what guarantees a nonce is never reused under the same key.
func Encrypt(key SessionKey, plaintext []byte) (Nonce, []byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return Nonce{}, nil, err
	}

	var nonce Nonce
	if _, err := rand.Read(nonce[:]); err != nil {
		return Nonce{}, nil, err
	}

	return nonce, aead.Seal(nil, nonce[:], plaintext, nil), nil
}

// Decrypt opens ciphertext‖tag produced by Encrypt. A tag that does not
// verify yields ErrDecryptionFailed; callers must treat that as fatal for the
// connection, not as a condition to ignore.
func Decrypt(key SessionKey, nonce Nonce, ciphertext []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, nonce[:], ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

func newAEAD(key SessionKey) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
