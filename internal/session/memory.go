// Package session stores per-user working sets for core.Service.
//
// Two stores are provided: MemoryStore for a single process and RedisStore
// when several server instances share sessions. Both expire sessions that
// have not been saved for the configured TTL.
package session

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/JonMunkholm/maillist/internal/core"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 24 * time.Hour

type memoryEntry struct {
	session   core.Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in a map. Loaded sessions are copies, so
// callers may modify them freely before saving.
type MemoryStore struct {
	ttl time.Duration
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]memoryEntry
}

// NewMemoryStore returns an empty store. A non-positive ttl uses DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]memoryEntry),
	}
}

func (m *MemoryStore) Load(_ context.Context, id string) (*core.Session, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok || !m.now().Before(e.expiresAt) {
		return nil, fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}

	s := e.session
	s.Records = slices.Clone(s.Records)
	if s.LastRun != nil {
		run := *s.LastRun
		s.LastRun = &run
	}
	return &s, nil
}

func (m *MemoryStore) Save(_ context.Context, s *core.Session) error {
	cp := *s
	cp.Records = slices.Clone(s.Records)
	if s.LastRun != nil {
		run := *s.LastRun
		cp.LastRun = &run
	}

	m.mu.Lock()
	m.sessions[s.ID] = memoryEntry{session: cp, expiresAt: m.now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", core.ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.sessions {
		if !now.Before(e.expiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
