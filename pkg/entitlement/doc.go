// Package entitlement implements the quota-bearing entity behind every
// purchased subscription or add-on. One entity owns one instance's state
// (lifecycle status, validity window, quota counters) and every operation
// executes as a single serialized turn on the actor runtime, so the
// check-and-increment in RecordUsage can never lose an update or
// over-consume a budget.
//
// Subscriptions and add-ons share the same state machine and quota logic;
// the Kind discriminator only matters at purchase time, where free
// products skip payment.
//
// Expiry is detected two ways: lazily, because IsActive and ValidateUsage
// compare the clock against EndDate on every call, and authoritatively via
// MarkExpired, which an external scanner fires for instances past their
// end date. MarkExpired is idempotent; a second call is a no-op.
package entitlement
