package expiry

import "errors"

var (
	ErrServiceNil        = errors.New("expiry: service cannot be nil")
	ErrScannerStarted    = errors.New("expiry: scanner already started")
	ErrScannerNotStarted = errors.New("expiry: scanner not started")
)
