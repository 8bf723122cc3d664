package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"

	"github.com/sirupsen/logrus"
)

// MinKeyBits is the smallest RSA modulus accepted, for our own identity key
// as well as for peer public keys received over the wire.
const MinKeyBits = 2048

var (
	// ErrKeyTooSmall indicates an RSA key below MinKeyBits.
	ErrKeyTooSmall = errors.New("minimum RSA key size is 2048 bits")

	// ErrUnsupportedKeyType indicates a key that is not RSA.
	ErrUnsupportedKeyType = errors.New("unsupported key type")

	// ErrInvalidPEM indicates input that does not contain a parseable
	// PEM-encoded RSA private key.
	ErrInvalidPEM = errors.New("invalid PEM private key")
)

const privateKeyPEMType = "RSA PRIVATE KEY"

// KeyPair is a client identity: an RSA private key whose public half is
// exchanged in cleartext during the handshake. The private key never leaves
// its owner.
type KeyPair struct {
	priv *rsa.PrivateKey
}

// GenerateKeyPair creates a new MinKeyBits RSA key pair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, MinKeyBits)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function": "GenerateKeyPair",
		"package":  "crypto",
		"bits":     MinKeyBits,
	}).Debug("generated RSA key pair")

	return &KeyPair{priv: priv}, nil
}

// LoadPrivateKey parses a PEM-encoded PKCS#1 or PKCS#8 RSA private key.
// Keys below MinKeyBits are rejected.
func LoadPrivateKey(pemBytes []byte) (*KeyPair, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidPEM
	}

	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		parsed, pkcs8Err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if pkcs8Err != nil {
			return nil, ErrInvalidPEM
		}
		rsaKey, ok := parsed.(*rsa.PrivateKey)
		if !ok {
			return nil, ErrUnsupportedKeyType
		}
		priv = rsaKey
	}

	if priv.N.BitLen() < MinKeyBits {
		return nil, ErrKeyTooSmall
	}

	return &KeyPair{priv: priv}, nil
}

// MarshalPEM serializes the private key as PKCS#1 PEM for on-disk storage.
func (kp *KeyPair) MarshalPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  privateKeyPEMType,
		Bytes: x509.MarshalPKCS1PrivateKey(kp.priv),
	})
}

// Public returns the public half of the key pair.
func (kp *KeyPair) Public() *rsa.PublicKey {
	return &kp.priv.PublicKey
}

// DecryptPKCS1v15 decrypts a ciphertext produced by EncryptPKCS1v15 under
// the matching public key.
func (kp *KeyPair) DecryptPKCS1v15(ciphertext []byte) ([]byte, error) {
	return rsa.DecryptPKCS1v15(nil, kp.priv, ciphertext)
}

// EncryptPKCS1v15 encrypts a short message (the session key) to the given
// public key using PKCS#1 v1.5 padding.
func EncryptPKCS1v15(pub *rsa.PublicKey, msg []byte) ([]byte, error) {
	return rsa.EncryptPKCS1v15(rand.Reader, pub, msg)
}
