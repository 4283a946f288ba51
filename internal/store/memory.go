// internal/store/memory.go
//
// In-memory implementation of the Store interface.
// Default backend for live sessions.
//
// Characteristics:
//   - Stores game.SessionState snapshots keyed by session ID.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - Get returns ErrNotFound for missing IDs.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/guess/internal/game"
)

// ErrNotFound is returned by Get when no session has the requested ID.
var ErrNotFound = errors.New("session not found")

// Store defines the persistence interface for live sessions.
// Implementations may be backed by memory (this file) or SQLite (sqlite.go).
type Store interface {
	// Save persists or replaces a session snapshot.
	Save(ctx context.Context, st game.SessionState) error

	// Get retrieves a session snapshot by ID.
	Get(ctx context.Context, id string) (game.SessionState, error)

	// Delete removes a session; missing IDs are not an error.
	Delete(ctx context.Context, id string) error

	// Sweep removes sessions last updated before cutoff and reports how many.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)

	Close() error
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex                 // guards sessions map
	sessions map[string]game.SessionState // keyed by SessionState.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]game.SessionState)}
}

func (m *memory) Save(ctx context.Context, st game.SessionState) error {
	if st.ID == "" {
		return errors.New("save: empty session id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[st.ID] = st
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (game.SessionState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.sessions[id]; ok {
		return st, nil
	}
	return game.SessionState{}, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, st := range m.sessions {
		if st.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *memory) Close() error { return nil }
