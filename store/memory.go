package store

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store. The zero value is ready to use.
type Memory struct {
	mu        sync.Mutex
	data      []byte
	expiresAt time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(_ context.Context, snap *Snapshot, ttl time.Duration) error {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	if ttl > 0 {
		m.expiresAt = time.Now().Add(ttl)
	} else {
		m.expiresAt = time.Time{}
	}
	return nil
}

func (m *Memory) Load(_ context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data == nil {
		return nil, ErrSnapshotNotFound
	}
	if !m.expiresAt.IsZero() && time.Now().After(m.expiresAt) {
		m.data = nil
		m.expiresAt = time.Time{}
		return nil, ErrSnapshotNotFound
	}
	return decodeSnapshot(m.data)
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	m.expiresAt = time.Time{}
	return nil
}
