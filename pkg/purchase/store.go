package purchase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qatarliving/subscriptions/pkg/entitlement"
	"github.com/qatarliving/subscriptions/pkg/lifecycle"
)

// Record is the durable index row for one purchased instance. It mirrors
// the fields queries need (owner, product, liveness window); the entity
// state remains the source of truth.
type Record struct {
	ID          uuid.UUID        `json:"id"`
	UserID      string           `json:"user_id"`
	ProductCode string           `json:"product_code"`
	Kind        entitlement.Kind `json:"kind"`
	Status      lifecycle.Status `json:"status"`
	EndDate     time.Time        `json:"end_date"`
}

// IndexStore is the durable, queryable index over all instances. It is the
// one piece of cross-entity shared state, so Claim must be safe under
// concurrent writers: the uniqueness of (product code, user id) among
// active rows is enforced at write time, not by the caller.
type IndexStore interface {
	// Claim inserts a new record, failing with ErrDuplicateActive when an
	// active record for the same (product code, user id) already exists.
	Claim(ctx context.Context, rec Record) error

	// Update replaces the mirrored fields of an existing record.
	Update(ctx context.Context, rec Record) error

	// Get returns a record by instance id.
	Get(ctx context.Context, id uuid.UUID) (Record, error)

	// ActiveExists reports whether the user already holds an active,
	// unexpired record for the product. Used as the guard pre-check.
	ActiveExists(ctx context.Context, productCode, userID string, now time.Time) (bool, error)

	// ListByUser returns all records owned by the user, newest first.
	ListByUser(ctx context.Context, userID string) ([]Record, error)

	// ListExpired returns records still marked active whose end date has
	// passed. The scanner feeds these to MarkExpired.
	ListExpired(ctx context.Context, now time.Time) ([]Record, error)
}

type memoryIndex struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
	order   []uuid.UUID // insertion order, newest appended last
}

// NewMemoryIndex returns an in-memory IndexStore for tests and local runs.
// Claim performs the same conditional-insert the postgres partial unique
// index provides.
func NewMemoryIndex() IndexStore {
	return &memoryIndex{records: make(map[uuid.UUID]Record)}
}

func (s *memoryIndex) Claim(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records {
		if existing.ID == rec.ID {
			return ErrDuplicateActive
		}
		if existing.ProductCode == rec.ProductCode &&
			existing.UserID == rec.UserID &&
			existing.Status == lifecycle.StatusActive {
			return ErrDuplicateActive
		}
	}
	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return nil
}

func (s *memoryIndex) Update(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; !ok {
		return ErrRecordNotFound
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *memoryIndex) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

func (s *memoryIndex) ActiveExists(ctx context.Context, productCode, userID string, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.ProductCode == productCode &&
			rec.UserID == userID &&
			rec.Status == lifecycle.StatusActive &&
			rec.EndDate.After(now) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryIndex) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for i := len(s.order) - 1; i >= 0; i-- {
		if rec, ok := s.records[s.order[i]]; ok && rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *memoryIndex) ListExpired(ctx context.Context, now time.Time) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, id := range s.order {
		rec, ok := s.records[id]
		if ok && rec.Status == lifecycle.StatusActive && rec.EndDate.Before(now) {
			out = append(out, rec)
		}
	}
	return out, nil
}
