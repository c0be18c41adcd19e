package purchase

import "errors"

var (
	ErrAlreadySubscribed  = errors.New("purchase: user already holds an active instance of this product")
	ErrDuplicateActive    = errors.New("purchase: active record already exists for product and user")
	ErrInstanceNotFound   = errors.New("purchase: instance not found")
	ErrRecordNotFound     = errors.New("purchase: index record not found")
	ErrUnauthorized       = errors.New("purchase: caller does not own this instance")
	ErrQuotaExceeded      = errors.New("purchase: insufficient quota")
	ErrStorageUnavailable = errors.New("purchase: durable storage unavailable")
)
