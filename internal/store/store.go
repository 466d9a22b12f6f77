// Package store persists client state per session. A session plays the part
// of a browser tab: state survives restarts that resume the same session id
// and a new session starts empty.
package store

import "sync"

// Storage is a small key-value store scoped to one session.
type Storage interface {
	// Load returns the value stored under key and whether it exists.
	Load(key string) ([]byte, bool, error)
	// Save replaces the value stored under key.
	Save(key string, value []byte) error
}

// Memory is an in-process Storage.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Load(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Save(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}
