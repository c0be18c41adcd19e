// Package quota tracks consumption budgets for a purchased subscription or
// add-on: flat per-dimension counters (ads, featured, promoted, daily
// refreshes) plus category-scoped free-ad allotments resolved against the
// category hierarchy.
//
// State is a plain JSON-serializable value object owned by a single entity.
// All checks and increments are performed by the owning entity inside one
// actor turn, so State itself carries no locking; callers that need an
// isolated copy use Clone.
//
// # Committed-state invariant
//
// For every committed State, 0 <= Consumed[d] <= Allotted[d] holds for each
// flat dimension and 0 <= Used <= Allowed for each category entry. Consume
// and ConsumeCategory validate before mutating and return an error without
// touching the state when the budget would be exceeded.
//
// # Category resolution
//
// Free-ad budgets are bound to (category, l1, l2) paths. A usage request is
// matched against the configured entries most-specific-first: an exact
// (category, l1, l2) entry wins over (category, l1), which wins over a bare
// (category) entry. A request with no matching entry fails; there is no
// implicit budget.
//
// # Example
//
//	st := quota.NewState(map[quota.Dimension]int64{quota.DimensionAds: 3}, nil)
//	_ = st.Consume(quota.DimensionAds, 2, time.Now()) // ok, consumed=2
//	_ = st.Consume(quota.DimensionAds, 2, time.Now()) // ErrBudgetExceeded, consumed stays 2
package quota
