package conn

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionConsumed indicates a transition method was called on a
	// state value that was already consumed by an earlier transition.
	ErrConnectionConsumed = errors.New("connection state already consumed")

	// ErrHandshakeDenied indicates the server refused the handshake with an
	// sshsyndeny reply. The connection must be closed; retrying on the same
	// socket is not possible.
	ErrHandshakeDenied = errors.New("handshake denied by peer")

	// ErrUnexpectedType indicates a packet whose type tag is not valid for
	// the current protocol state.
	ErrUnexpectedType = errors.New("unexpected packet type")
)

// ConnError wraps a connection failure with the operation and remote address
// it occurred on.
type ConnError struct {
	Op   string // operation that caused the error
	Addr string // remote address if known
	Err  error  // underlying error
}

func (e *ConnError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("cliplink %s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("cliplink %s: %v", e.Op, e.Err)
}

func (e *ConnError) Unwrap() error {
	return e.Err
}
