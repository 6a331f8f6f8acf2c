package sessionstore

import (
	"context"
	"sync"
	"time"

	"estimate_portal_backend/internal/estimate/conversation"
)

type memoryEntry struct {
	session   conversation.Session
	expiresAt time.Time
}

// Memory is an in-process Store for single-instance deployments and tests.
type Memory struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]memoryEntry
	locks    map[string]chan struct{}
	now      func() time.Time
}

// NewMemory creates an in-process store whose entries expire after ttl.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:      ttl,
		sessions: make(map[string]memoryEntry),
		locks:    make(map[string]chan struct{}),
		now:      time.Now,
	}
}

func (m *Memory) Get(_ context.Context, id string) (conversation.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[id]
	if !ok {
		return conversation.Session{}, errNotFound()
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.sessions, id)
		return conversation.Session{}, errNotFound()
	}
	return entry.session, nil
}

func (m *Memory) Put(_ context.Context, s conversation.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = memoryEntry{session: s, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *Memory) Lock(ctx context.Context, id string) (func(), error) {
	m.mu.Lock()
	sem, ok := m.locks[id]
	if !ok {
		sem = make(chan struct{}, 1)
		m.locks[id] = sem
	}
	m.mu.Unlock()

	timer := time.NewTimer(lockWait)
	defer timer.Stop()

	select {
	case sem <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-sem }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, errBusy()
	}
}

// Sweep drops expired sessions and idle locks and reports how many
// sessions were removed.
func (m *Memory) Sweep(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pruneLocked(), nil
}

// pruneLocked drops expired sessions and idle locks. Callers hold m.mu.
func (m *Memory) pruneLocked() int {
	now := m.now()
	removed := 0
	for id, entry := range m.sessions {
		if !now.Before(entry.expiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	for id, sem := range m.locks {
		if _, live := m.sessions[id]; !live && len(sem) == 0 {
			delete(m.locks, id)
		}
	}
	return removed
}
