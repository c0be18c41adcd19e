package entitlement

import "errors"

var (
	ErrNotInitialized  = errors.New("entitlement: entity was never initialized")
	ErrInactive        = errors.New("entitlement: entity is not active")
	ErrInvalidState    = errors.New("entitlement: invalid entity state")
	ErrCategoryMissing = errors.New("entitlement: free-ads usage requires a category path")
)
