// Package actor hosts single-writer, turn-based entities on top of a
// durable state store. Each entity id gets at most one goroutine executing
// turns in FIFO order, so a check-and-increment against one entity can
// never race with another writer; operations against different ids run
// fully in parallel.
//
// Entities are activated on demand: the first turn loads state from the
// store (nil state for ids that were never initialized) and an idle entity
// is evicted after a TTL without losing committed state.
//
// # Turn atomicity
//
// A mutating turn runs against a clone of the current state, then persists
// the result with a single Save. If the turn function or the Save fails,
// neither the in-memory nor the durable state changes; the next turn sees
// the last committed state. A turn whose context is cancelled before it
// starts is skipped entirely. Turns never call into other entities, which
// keeps the runtime deadlock-free by construction.
//
// # Example
//
//	rt := actor.New(store, func(s *Account) *Account {
//		clone := *s
//		return &clone
//	}, actor.WithIdleTTL(time.Minute))
//
//	err := rt.Do(ctx, id, func(ctx context.Context, s *Account) (*Account, error) {
//		if s == nil {
//			return nil, actor.ErrStateNotFound
//		}
//		s.Balance += 10
//		return s, nil
//	})
package actor
