// Package repository provides identity-keyed clip storage for the cliplink
// server. The session layer depends only on the Repository interface; the
// backing store is chosen at server start.
package repository

import "errors"

// DefaultClip is the clip name used when a command does not select one.
const DefaultClip = "default"

var (
	// ErrNotFound indicates no clip is stored under the given identity and
	// name.
	ErrNotFound = errors.New("clip not found")
)

// Repository stores clip payloads keyed by peer identity and clip name.
// Implementations must be safe for concurrent use: every connection runs in
// its own goroutine and two connections may address the same identity at
// once.
type Repository interface {
	// Get returns the payload stored under (identity, clip), or ErrNotFound.
	Get(identity, clip string) ([]byte, error)

	// Patch creates or overwrites the payload under (identity, clip).
	Patch(identity, clip string, payload []byte) error
}
