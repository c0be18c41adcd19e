package quota

import "errors"

var (
	ErrInvalidAmount    = errors.New("quota: amount must be positive")
	ErrUnknownDimension = errors.New("quota: unknown dimension")
	ErrBudgetExceeded   = errors.New("quota: budget exceeded")
	ErrNoCategoryBudget = errors.New("quota: no budget configured for category path")
)
