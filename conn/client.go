package conn

import (
	"fmt"
	"net"

	"github.com/opd-ai/cliplink/crypto"
	"github.com/opd-ai/cliplink/packet"
)

// ClientHandshakeConn is the initial client-side protocol state. Its only
// transition is SendIdentity.
type ClientHandshakeConn struct {
	core core
	key  *crypto.KeyPair
}

// NewClientConn wraps a freshly dialed stream for the client side of the
// handshake. The RSA key pair is injected by the caller; the protocol layer
// never reads key material from the environment or filesystem itself.
func NewClientConn(stream net.Conn, key *crypto.KeyPair) *ClientHandshakeConn {
	return &ClientHandshakeConn{
		core: newCore(stream, "client"),
		key:  key,
	}
}

// SendIdentity sends the sshsyn packet carrying our OpenSSH-encoded public
// key and consumes this state.
func (c *ClientHandshakeConn) SendIdentity() (*ClientAckConn, error) {
	const op = "send identity"

	if err := c.core.consume(op); err != nil {
		return nil, err
	}

	line, err := crypto.MarshalPublicKey(c.key.Public())
	if err != nil {
		return nil, c.core.fail(op, err)
	}

	if err := c.core.writePacket(op, packet.New(packet.TypeHandshake, line)); err != nil {
		return nil, err
	}

	c.core.log.Debug("sent public key, awaiting session key")

	return &ClientAckConn{
		core:     c.core.next(),
		key:      c.key,
		identity: string(line),
	}, nil
}

// ClientAckConn is the client-side state awaiting the server's reply to
// sshsyn. Its only transition is ReceiveSessionKey.
type ClientAckConn struct {
	core     core
	key      *crypto.KeyPair
	identity string
}

// ReceiveSessionKey reads the server reply. An sshsynack payload is the
// AES-256 session key encrypted under our public key; unwrapping it completes
// the handshake. An sshsyndeny reply yields ErrHandshakeDenied, which is
// terminal for this connection.
func (c *ClientAckConn) ReceiveSessionKey() (*SecureConn, error) {
	const op = "receive session key"

	if err := c.core.consume(op); err != nil {
		return nil, err
	}

	pkt, err := c.core.readPacket(op)
	if err != nil {
		return nil, err
	}

	switch {
	case pkt.IsType(packet.TypeHandshakeAck):
		raw, err := c.key.DecryptPKCS1v15(pkt.Payload)
		if err != nil {
			return nil, c.core.fail(op, err)
		}
		key, err := crypto.SessionKeyFromBytes(raw)
		if err != nil {
			return nil, c.core.fail(op, err)
		}

		c.core.log.Debug("handshake complete, channel is secure")
		return newSecureConn(c.core.next(), key, c.identity), nil

	case pkt.IsType(packet.TypeHandshakeDeny):
		return nil, c.core.fail(op, fmt.Errorf("%w: %s", ErrHandshakeDenied, pkt.Payload))

	default:
		return nil, c.core.fail(op, fmt.Errorf("%w: %q", ErrUnexpectedType, pkt.TypeString()))
	}
}
