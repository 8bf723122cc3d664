package conn

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"net"

	"github.com/opd-ai/cliplink/crypto"
	"github.com/opd-ai/cliplink/packet"
)

// ServerHandshakeConn is the initial server-side protocol state. Its only
// transition is ReceiveIdentity.
type ServerHandshakeConn struct {
	core core
}

// NewServerConn wraps an accepted stream for the server side of the
// handshake.
func NewServerConn(stream net.Conn) *ServerHandshakeConn {
	return &ServerHandshakeConn{core: newCore(stream, "server")}
}

// ReceiveIdentity reads the client's sshsyn packet and parses its payload as
// an OpenSSH RSA public key. When the payload is not a parseable, supported
// key, the server replies sshsyndeny with a reason and the handshake fails;
// the connection is never promoted past this state.
func (c *ServerHandshakeConn) ReceiveIdentity() (*ServerAckConn, error) {
	const op = "receive identity"

	if err := c.core.consume(op); err != nil {
		return nil, err
	}

	pkt, err := c.core.readPacket(op)
	if err != nil {
		return nil, err
	}

	if !pkt.IsType(packet.TypeHandshake) {
		c.deny(op, "unexpected handshake type")
		return nil, c.core.fail(op, fmt.Errorf("%w: %q", ErrUnexpectedType, pkt.TypeString()))
	}

	peerKey, err := crypto.ParsePublicKey(pkt.Payload)
	if err != nil {
		c.deny(op, denyReason(err))
		return nil, c.core.fail(op, err)
	}

	// Re-marshal the parsed key so the identity is in canonical form,
	// independent of comments or whitespace in the client's encoding.
	identity, err := crypto.MarshalPublicKey(peerKey)
	if err != nil {
		return nil, c.core.fail(op, err)
	}

	c.core.log.Debug("received client public key")

	return &ServerAckConn{
		core:     c.core.next(),
		peerKey:  peerKey,
		identity: string(identity),
	}, nil
}

// deny sends an sshsyndeny reply. The handshake already failed at this point,
// so a failure to deliver the denial is only logged.
func (c *ServerHandshakeConn) deny(op, reason string) {
	pkt := packet.New(packet.TypeHandshakeDeny, []byte(reason))
	if err := c.core.writePacket(op, pkt); err != nil {
		c.core.log.WithField("error", err).Debug("failed to send handshake denial")
	}
}

// denyReason maps a key parse failure to the reason string sent to the peer.
func denyReason(err error) string {
	switch {
	case errors.Is(err, crypto.ErrUnsupportedKeyType):
		return "unsupported key type"
	case errors.Is(err, crypto.ErrKeyTooSmall):
		return "key below minimum size"
	default:
		return "invalid public key"
	}
}

// ServerAckConn is the server-side state holding a validated peer key. Its
// only transition is SendSessionKey. The peer key is retained as the
// connection identity for the session layer.
type ServerAckConn struct {
	core     core
	peerKey  *rsa.PublicKey
	identity string
}

// SendSessionKey generates a fresh AES-256 session key, wraps it under the
// peer's RSA key with PKCS#1 v1.5, replies sshsynack, and completes the
// handshake. The key lives only as long as this connection.
func (c *ServerAckConn) SendSessionKey() (*SecureConn, error) {
	const op = "send session key"

	if err := c.core.consume(op); err != nil {
		return nil, err
	}

	key, err := crypto.NewSessionKey()
	if err != nil {
		return nil, c.core.fail(op, err)
	}

	wrapped, err := crypto.EncryptPKCS1v15(c.peerKey, key[:])
	if err != nil {
		return nil, c.core.fail(op, err)
	}

	if err := c.core.writePacket(op, packet.New(packet.TypeHandshakeAck, wrapped)); err != nil {
		return nil, err
	}

	c.core.log.Debug("handshake complete, channel is secure")

	return newSecureConn(c.core.next(), key, c.identity), nil
}
