package crypto

import (
	"bytes"
	"crypto/rsa"

	"golang.org/x/crypto/ssh"
)

// MarshalPublicKey serializes an RSA public key as a single OpenSSH
// authorized-key line ("ssh-rsa AAAA...") without a trailing newline. This is
// the form carried in the handshake payload and used as the peer identity.
func MarshalPublicKey(pub *rsa.PublicKey) ([]byte, error) {
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(ssh.MarshalAuthorizedKey(sshPub), "\n"), nil
}

// ParsePublicKey parses an OpenSSH authorized-key line into an RSA public
// key. Non-RSA key types yield ErrUnsupportedKeyType and undersized moduli
// yield ErrKeyTooSmall; the line itself comes from an untrusted peer, so any
// parse failure is an ordinary error, never a panic.
func ParsePublicKey(line []byte) (*rsa.PublicKey, error) {
	sshPub, _, _, _, err := ssh.ParseAuthorizedKey(line)
	if err != nil {
		return nil, err
	}
	if sshPub.Type() != ssh.KeyAlgoRSA {
		return nil, ErrUnsupportedKeyType
	}

	cryptoPub, ok := sshPub.(ssh.CryptoPublicKey)
	if !ok {
		return nil, ErrUnsupportedKeyType
	}
	pub, ok := cryptoPub.CryptoPublicKey().(*rsa.PublicKey)
	if !ok {
		return nil, ErrUnsupportedKeyType
	}

	if pub.N.BitLen() < MinKeyBits {
		return nil, ErrKeyTooSmall
	}

	return pub, nil
}
