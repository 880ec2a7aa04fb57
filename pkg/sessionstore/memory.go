package sessionstore

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

type memoryStore struct {
	mux      *sync.RWMutex
	sessions map[string]*memoryEntry
	now      func() time.Time
}

// NewMemoryStore returns a Store that lives as long as the process.
func NewMemoryStore() Store {
	return &memoryStore{
		mux:      &sync.RWMutex{},
		sessions: make(map[string]*memoryEntry),
		now:      time.Now,
	}
}

func (m *memoryStore) Get(_ context.Context, id string) ([]byte, error) {
	m.mux.RLock()
	entry, ok := m.sessions[id]
	m.mux.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if entry.expired(m.now()) {
		m.mux.Lock()
		if m.sessions[id] == entry {
			delete(m.sessions, id)
		}
		m.mux.Unlock()
		slog.Debug("session expired", "id", id)
		return nil, ErrNotFound
	}
	return entry.data, nil
}

func (m *memoryStore) Set(_ context.Context, id string, data []byte, ttl time.Duration) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	entry := &memoryEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.sessions[id] = entry
	m.evictExpiredLocked()
	return nil
}

func (m *memoryStore) Destroy(_ context.Context, id string) error {
	m.mux.Lock()
	defer m.mux.Unlock()
	delete(m.sessions, id)
	slog.Debug("session destroyed", "id", id)
	return nil
}

// caller holds the write lock
func (m *memoryStore) evictExpiredLocked() {
	now := m.now()
	for id, entry := range m.sessions {
		if entry.expired(now) {
			delete(m.sessions, id)
		}
	}
}
