// Package userquota maintains the per-user view of quota records
// contributed by that user's subscriptions and add-ons. It is a secondary
// index for fast per-user lookups, not the source of truth: the owning
// entity's state always wins, and the mirror is updated best-effort after
// each successful purchase or usage recording, so it is eventually
// consistent by design.
//
// Records are keyed by (user id, transaction id), where the transaction id
// is the purchased instance's entity id. The production implementation
// stores one Redis hash per user with one JSON field per transaction; an
// in-memory implementation backs tests.
package userquota
