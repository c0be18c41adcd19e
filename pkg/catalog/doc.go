// Package catalog holds the read-side definitions of purchasable products:
// subscriptions, add-ons, and free tiers, each carrying a price, a duration,
// and a Constraints budget template that seeds the quota state of a new
// purchase.
//
// Products are soft-deleted only, so historic purchases keep a resolvable
// product code. Admin input is validated before anything is persisted:
// malformed durations fail with ErrInvalidDuration and malformed category
// hierarchies with ErrInvalidCategoryHierarchy, leaving no partial catalog
// entry behind.
//
// The category hierarchy builder flattens the admin JSON tree
// (category -> L1 -> L2) into CategoryQuota entries. An L1 node with L2
// children contributes quotas only at the L2 level; a childless L1 node
// contributes a single quota using its own cap.
package catalog
