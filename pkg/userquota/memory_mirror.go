package userquota

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type memoryMirror struct {
	mu      sync.RWMutex
	records map[string]map[uuid.UUID]Record // userID -> transactionID -> record
}

// NewInMemMirror returns an in-memory Mirror for tests and local runs.
func NewInMemMirror() Mirror {
	return &memoryMirror{records: make(map[string]map[uuid.UUID]Record)}
}

func (m *memoryMirror) Upsert(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byTx, ok := m.records[rec.UserID]
	if !ok {
		byTx = make(map[uuid.UUID]Record)
		m.records[rec.UserID] = byTx
	}
	byTx[rec.TransactionID] = rec
	return nil
}

func (m *memoryMirror) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byTx := m.records[userID]
	records := make([]Record, 0, len(byTx))
	for _, rec := range byTx {
		records = append(records, rec)
	}
	return records, nil
}

func (m *memoryMirror) Remove(ctx context.Context, userID string, transactionID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	byTx, ok := m.records[userID]
	if !ok {
		return ErrRecordNotFound
	}
	if _, ok := byTx[transactionID]; !ok {
		return ErrRecordNotFound
	}
	delete(byTx, transactionID)
	return nil
}
