// Package session implements the command layer that runs over a secure
// cliplink connection: the server-side dispatch loop and the client-side
// request helpers. Both operate strictly request/reply ordered; there is no
// pipelining within a connection.
package session

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/cliplink/conn"
	"github.com/opd-ai/cliplink/packet"
	"github.com/opd-ai/cliplink/repository"
)

var (
	// ErrUnsupportedType indicates a command type tag outside the defined
	// set. The session ends; the peer gets no reply.
	ErrUnsupportedType = errors.New("unsupported command type")

	// ErrWrongResponse indicates a reply whose type tag does not match the
	// request that was sent.
	ErrWrongResponse = errors.New("wrong response type")
)

// Session serves commands from one secure connection against the repository.
// The peer's identity was fixed during the handshake and keys every lookup.
type Session struct {
	conn *conn.SecureConn
	repo repository.Repository
	log  *logrus.Entry
}

// New creates a session over an established secure connection.
func New(c *conn.SecureConn, repo repository.Repository) *Session {
	return &Session{
		conn: c,
		repo: repo,
		log: logrus.WithFields(logrus.Fields{
			"package": "session",
		}),
	}
}

// Run reads commands until the peer sends term, the peer disconnects, or an
// error occurs. A non-nil return means the connection must be closed by the
// caller; it never means the process should stop serving other connections.
func (s *Session) Run() error {
	for {
		pkt, err := s.conn.ReadPacket()
		if err != nil {
			return err
		}

		switch {
		case pkt.IsType(packet.TypeCopy):
			if err := s.handleCopy(); err != nil {
				return err
			}

		case pkt.IsType(packet.TypePaste):
			if err := s.handlePaste(pkt.Payload); err != nil {
				return err
			}

		case pkt.IsType(packet.TypeTerm):
			s.log.Debug("session terminated by peer")
			return nil

		default:
			return fmt.Errorf("%w: %q", ErrUnsupportedType, pkt.TypeString())
		}
	}
}

func (s *Session) handleCopy() error {
	s.log.Debug("copy")

	payload, err := s.repo.Get(s.conn.Identity(), repository.DefaultClip)
	if err != nil {
		return fmt.Errorf("copy: %w", err)
	}

	return s.conn.WritePacket(packet.New(packet.TypeCopyAck, payload))
}

func (s *Session) handlePaste(payload []byte) error {
	s.log.WithField("size", len(payload)).Debug("paste")

	if err := s.repo.Patch(s.conn.Identity(), repository.DefaultClip, payload); err != nil {
		return fmt.Errorf("paste: %w", err)
	}

	return s.conn.WritePacket(packet.New(packet.TypePasteAck, nil))
}
