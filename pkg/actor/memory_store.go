package actor

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory StateStore for testing and local development.
// It stores the pointers handed to Save; the runtime only commits states it
// owns, so no copying is needed.
type MemoryStore[S any] struct {
	mu     sync.RWMutex
	states map[string]*S

	// FailSaves makes every Save return the given error while set, which
	// lets tests exercise aborted turns and retry policies.
	failMu   sync.RWMutex
	failSave error
}

// NewMemoryStore creates an empty in-memory state store.
func NewMemoryStore[S any]() *MemoryStore[S] {
	return &MemoryStore[S]{states: make(map[string]*S)}
}

func (m *MemoryStore[S]) Load(ctx context.Context, id string) (*S, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.states[id]
	if !ok {
		return nil, ErrStateNotFound
	}
	return s, nil
}

func (m *MemoryStore[S]) Save(ctx context.Context, id string, state *S) error {
	m.failMu.RLock()
	failErr := m.failSave
	m.failMu.RUnlock()
	if failErr != nil {
		return failErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[id] = state
	return nil
}

// FailSaves makes subsequent Save calls fail with err; pass nil to restore
// normal behavior.
func (m *MemoryStore[S]) FailSaves(err error) {
	m.failMu.Lock()
	m.failSave = err
	m.failMu.Unlock()
}

// Len returns the number of persisted entities.
func (m *MemoryStore[S]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}
