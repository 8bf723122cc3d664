package conn

import (
	"io"

	"github.com/opd-ai/cliplink/crypto"
	"github.com/opd-ai/cliplink/packet"
)

// FrameSize is the length of one secure-phase wire unit:
// nonce ‖ ciphertext ‖ tag.
const FrameSize = crypto.NonceSize + packet.PacketSize + crypto.TagSize

// SecureConn is the terminal protocol state. It is the only type exposing
// packet I/O, so session traffic cannot be expressed on a connection whose
// handshake has not completed.
type SecureConn struct {
	core     core
	key      crypto.SessionKey
	identity string
}

func newSecureConn(c core, key crypto.SessionKey, identity string) *SecureConn {
	return &SecureConn{core: c, key: key, identity: identity}
}

// Identity returns the OpenSSH-encoded form of the peer's public key (on the
// server) or of our own key (on the client). The session layer uses it as the
// repository lookup key.
func (c *SecureConn) Identity() string {
	return c.identity
}

// ReadPacket reads exactly one secure frame, authenticates and decrypts it,
// and decodes the plaintext packet. Any short read, authentication failure,
// or decode failure is a protocol error: the caller must tear the connection
// down, not retry.
func (c *SecureConn) ReadPacket() (*packet.Packet, error) {
	const op = "read secure packet"

	buf := make([]byte, FrameSize)
	if _, err := io.ReadFull(c.core.stream, buf); err != nil {
		return nil, c.core.fail(op, err)
	}

	var nonce crypto.Nonce
	copy(nonce[:], buf[:crypto.NonceSize])

	plaintext, err := crypto.Decrypt(c.key, nonce, buf[crypto.NonceSize:])
	if err != nil {
		return nil, c.core.fail(op, err)
	}

	pkt, err := packet.ParsePacket(plaintext)
	if err != nil {
		return nil, c.core.fail(op, err)
	}

	c.core.log.WithField("type", pkt.TypeString()).Debug("read secure packet")
	return pkt, nil
}

// WritePacket encodes the packet, encrypts it under a fresh nonce, and writes
// nonce ‖ ciphertext ‖ tag as one unit.
func (c *SecureConn) WritePacket(pkt *packet.Packet) error {
	const op = "write secure packet"

	plaintext, err := pkt.Serialize()
	if err != nil {
		return c.core.fail(op, err)
	}

	nonce, ciphertext, err := crypto.Encrypt(c.key, plaintext)
	if err != nil {
		return c.core.fail(op, err)
	}

	frame := make([]byte, 0, FrameSize)
	frame = append(frame, nonce[:]...)
	frame = append(frame, ciphertext...)

	if _, err := c.core.stream.Write(frame); err != nil {
		return c.core.fail(op, err)
	}

	c.core.log.WithField("type", pkt.TypeString()).Debug("wrote secure packet")
	return nil
}

// Close releases the underlying stream. The session key is ephemeral and
// becomes unreachable with the connection.
func (c *SecureConn) Close() error {
	return c.core.stream.Close()
}
