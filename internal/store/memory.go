package store

import (
	"context"
	"sync"
)

// Memory is an in-process repository, selected with backend "memory" and
// used by tests. Nothing survives a restart. It stores encoded documents so callers never share state with it.
type Memory struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{docs: map[string][]byte{}}
}

func (m *Memory) Save(ctx context.Context, sessionID string, snap Snapshot) error {
	b, err := Encode(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[sessionID] = b
	return nil
}

func (m *Memory) Load(ctx context.Context, sessionID string) (Snapshot, error) {
	m.mu.Lock()
	b, ok := m.docs[sessionID]
	m.mu.Unlock()
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return Decode(b)
}

func (m *Memory) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, sessionID)
	return nil
}

// Put stores a raw document, bypassing Encode. Used to seed tests.
func (m *Memory) Put(sessionID string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[sessionID] = append([]byte(nil), raw...)
}
