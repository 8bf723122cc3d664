package conn

import (
	"io"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/cliplink/packet"
)

// core holds what every protocol state shares: the TCP stream, the logger,
// and the consumed flag backing the typestate guard.
type core struct {
	stream   net.Conn
	log      *logrus.Entry
	consumed bool
}

func newCore(stream net.Conn, role string) core {
	return core{
		stream: stream,
		log: logrus.WithFields(logrus.Fields{
			"package":     "conn",
			"role":        role,
			"remote_addr": remoteAddr(stream),
		}),
	}
}

func remoteAddr(stream net.Conn) string {
	if addr := stream.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// consume marks this state value as spent. A second transition attempt on the
// same value reports ErrConnectionConsumed instead of touching the wire.
func (c *core) consume(op string) error {
	if c.consumed {
		return &ConnError{Op: op, Addr: remoteAddr(c.stream), Err: ErrConnectionConsumed}
	}
	c.consumed = true
	return nil
}

// next returns the core for the successor state.
func (c *core) next() core {
	return core{stream: c.stream, log: c.log}
}

// fail wraps err with operation context and logs it once at the point of
// failure.
func (c *core) fail(op string, err error) error {
	c.log.WithFields(logrus.Fields{
		"op":    op,
		"error": err,
	}).Debug("connection operation failed")

	return &ConnError{Op: op, Addr: remoteAddr(c.stream), Err: err}
}

// readPacket reads exactly one plaintext packet. Used only during the
// handshake phase; a short read is fatal.
func (c *core) readPacket(op string) (*packet.Packet, error) {
	buf := make([]byte, packet.PacketSize)
	if _, err := io.ReadFull(c.stream, buf); err != nil {
		return nil, c.fail(op, err)
	}

	pkt, err := packet.ParsePacket(buf)
	if err != nil {
		return nil, c.fail(op, err)
	}
	return pkt, nil
}

// writePacket writes one plaintext packet as a single unit. Used only during
// the handshake phase.
func (c *core) writePacket(op string, pkt *packet.Packet) error {
	buf, err := pkt.Serialize()
	if err != nil {
		return c.fail(op, err)
	}
	if _, err := c.stream.Write(buf); err != nil {
		return c.fail(op, err)
	}
	return nil
}
