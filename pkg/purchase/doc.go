// Package purchase is the stateless façade over the subscription and
// add-on entities: it resolves products from the catalog, runs the
// duplicate-purchase guard, creates instance state, and delegates usage,
// cancellation, expiry, and admin overrides to the owning entity.
//
// # Duplicate-purchase guard
//
// A user may hold at most one active instance per product. The guard is a
// cheap index pre-check followed by the authoritative uniqueness
// constraint on (product code, user id) for active rows, enforced when the
// new record is written to the durable index. Two racing purchases can
// both pass the pre-check; the index write serializes them, the loser's
// entity is rolled back to Cancelled, and the caller gets
// ErrAlreadySubscribed.
//
// # Error propagation
//
// Entity-level outcomes come back as typed errors (ErrQuotaExceeded,
// ErrInstanceNotFound, ErrUnauthorized) so the calling transport layer can
// route them; nothing panics across this boundary. Transient storage
// failures are retried with bounded exponential backoff before
// ErrStorageUnavailable surfaces.
package purchase
