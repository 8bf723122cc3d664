package session

import (
	"fmt"

	"github.com/opd-ai/cliplink/conn"
	"github.com/opd-ai/cliplink/packet"
)

// Client issues commands over a secure connection. One request is always
// answered before the next is sent.
type Client struct {
	conn *conn.SecureConn
}

// NewClient creates a command client over an established secure connection.
func NewClient(c *conn.SecureConn) *Client {
	return &Client{conn: c}
}

// Copy fetches the server-side clip for our identity.
func (c *Client) Copy() ([]byte, error) {
	if err := c.conn.WritePacket(packet.New(packet.TypeCopy, nil)); err != nil {
		return nil, err
	}

	reply, err := c.conn.ReadPacket()
	if err != nil {
		return nil, err
	}
	if !reply.IsType(packet.TypeCopyAck) {
		return nil, fmt.Errorf("%w: %q", ErrWrongResponse, reply.TypeString())
	}
	return reply.Payload, nil
}

// Paste stores payload as the server-side clip for our identity.
func (c *Client) Paste(payload []byte) error {
	if err := c.conn.WritePacket(packet.New(packet.TypePaste, payload)); err != nil {
		return err
	}

	reply, err := c.conn.ReadPacket()
	if err != nil {
		return err
	}
	if !reply.IsType(packet.TypePasteAck) {
		return fmt.Errorf("%w: %q", ErrWrongResponse, reply.TypeString())
	}
	return nil
}

// Terminate asks the server to end the session cleanly. No reply is expected.
func (c *Client) Terminate() error {
	return c.conn.WritePacket(packet.New(packet.TypeTerm, nil))
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
