package store

import (
	"sync"
	"time"
)

// Memory is an in-process Store. It is the default backend and the one the
// tests use.
type Memory struct {
	mu    sync.Mutex
	users map[string]*User
	cap   int
	now   func() time.Time
}

// NewMemory returns an empty in-memory store with the given history cap
// (<= 0 means DefaultHistoryLimit).
func NewMemory(historyCap int) *Memory {
	return &Memory{
		users: make(map[string]*User),
		cap:   historyCap,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) EnsureUser(name string) (string, error) {
	key := canonicalKey(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[key]; !ok {
		m.users[key] = newUser(key)
	}
	return key, nil
}

func (m *Memory) AppendTurn(key, sender, text string) error {
	key = canonicalKey(key)
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[key]
	if !ok {
		u = newUser(key)
		m.users[key] = u
	}
	appendTurn(u, sender, text, m.now(), m.cap)
	return nil
}

func (m *Memory) History(key string, limit int) ([]Turn, error) {
	key = canonicalKey(key)
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[key]
	if !ok {
		return nil, nil
	}
	return lastTurns(u.Turns, limit), nil
}

func (m *Memory) PruneInactive(olderThan time.Duration) (int, error) {
	cutoff := m.now().Add(-olderThan)
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, u := range m.users {
		if !u.LastSeen.IsZero() && u.LastSeen.Before(cutoff) {
			delete(m.users, key)
			removed++
		}
	}
	return removed, nil
}

func (m *Memory) Close() error { return nil }
