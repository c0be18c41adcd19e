package catalog

import "errors"

var (
	ErrProductNotFound          = errors.New("catalog: product not found")
	ErrProductExists            = errors.New("catalog: product already exists")
	ErrProductDeleted           = errors.New("catalog: product is deleted")
	ErrInvalidDuration          = errors.New("catalog: invalid duration")
	ErrInvalidCategoryHierarchy = errors.New("catalog: invalid category hierarchy")
	ErrInvalidConstraints       = errors.New("catalog: invalid product constraints")
	ErrFailedToLoadCatalog      = errors.New("catalog: failed to load product definitions")
)
