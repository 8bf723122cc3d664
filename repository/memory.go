package repository

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Memory is an in-process Repository. Clips live for the lifetime of the
// server process.
type Memory struct {
	mu    sync.RWMutex
	clips map[string]map[string][]byte
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{clips: make(map[string]map[string][]byte)}
}

// Get returns the payload stored under (identity, clip), or ErrNotFound.
func (m *Memory) Get(identity, clip string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	payload, ok := m.clips[identity][clip]
	if !ok {
		return nil, ErrNotFound
	}

	// Copy so callers cannot mutate stored state.
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

// Patch creates or overwrites the payload under (identity, clip).
func (m *Memory) Patch(identity, clip string, payload []byte) error {
	stored := make([]byte, len(payload))
	copy(stored, payload)

	m.mu.Lock()
	defer m.mu.Unlock()

	byClip, ok := m.clips[identity]
	if !ok {
		byClip = make(map[string][]byte)
		m.clips[identity] = byClip
	}
	byClip[clip] = stored

	logrus.WithFields(logrus.Fields{
		"package": "repository",
		"clip":    clip,
		"size":    len(payload),
	}).Debug("stored clip")

	return nil
}
