package catalog

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Store defines product catalog persistence. Implementations must reject
// invalid products and must never hard-delete a row.
type Store interface {
	// Get returns a product by code, including soft-deleted rows.
	// Returns ErrProductNotFound if the code is unknown.
	Get(ctx context.Context, code string) (*Product, error)

	// Create persists a new product. Returns ErrProductExists when the
	// code is already taken.
	Create(ctx context.Context, p Product) error

	// Update replaces an existing product definition.
	Update(ctx context.Context, p Product) error

	// SoftDelete marks a product deleted without removing the row.
	SoftDelete(ctx context.Context, code string, at time.Time) error

	// List returns all non-deleted products.
	List(ctx context.Context) ([]Product, error)
}

// Source loads an initial set of product definitions, e.g. from a YAML
// file shipped with the deployment.
type Source interface {
	Load(ctx context.Context) (map[string]Product, error)
}

type inMemStore struct {
	mu       sync.RWMutex
	products map[string]Product
}

// NewInMemStore returns an in-memory Store seeded with the given products.
// Products are validated and deep-copied on the way in and out so callers
// can never mutate the store's view.
func NewInMemStore(seed ...Product) (Store, error) {
	products := make(map[string]Product, len(seed))
	for _, p := range seed {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		products[p.Code] = cloneProduct(p)
	}
	return &inMemStore{products: products}, nil
}

// NewInMemStoreFromSource loads the source and seeds an in-memory store.
func NewInMemStoreFromSource(ctx context.Context, src Source) (Store, error) {
	defs, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	seed := make([]Product, 0, len(defs))
	for _, p := range defs {
		seed = append(seed, p)
	}
	return NewInMemStore(seed...)
}

func (s *inMemStore) Get(ctx context.Context, code string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[code]
	if !ok {
		return nil, ErrProductNotFound
	}
	clone := cloneProduct(p)
	return &clone, nil
}

func (s *inMemStore) Create(ctx context.Context, p Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.Code]; exists {
		return ErrProductExists
	}
	s.products[p.Code] = cloneProduct(p)
	return nil
}

func (s *inMemStore) Update(ctx context.Context, p Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.Code]; !exists {
		return ErrProductNotFound
	}
	s.products[p.Code] = cloneProduct(p)
	return nil
}

func (s *inMemStore) SoftDelete(ctx context.Context, code string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.products[code]
	if !exists {
		return ErrProductNotFound
	}
	if p.DeletedAt == nil {
		deleted := at.UTC()
		p.DeletedAt = &deleted
		s.products[code] = p
	}
	return nil
}

func (s *inMemStore) List(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.products))
	codes := make([]string, 0, len(s.products))
	for code := range s.products {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		p := s.products[code]
		if p.IsDeleted() {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	return out, nil
}

func cloneProduct(p Product) Product {
	clone := p
	clone.Constraints.CategoryQuotas = slices.Clone(p.Constraints.CategoryQuotas)
	if p.DeletedAt != nil {
		at := *p.DeletedAt
		clone.DeletedAt = &at
	}
	return clone
}
