package purchase

import (
	"log/slog"
	"time"

	"github.com/qatarliving/subscriptions/pkg/userquota"
)

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// WithMirror enables the best-effort per-user quota view.
func WithMirror(mirror userquota.Mirror) ServiceOption {
	return func(s *Service) {
		if mirror != nil {
			s.mirror = mirror
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock injects the time source, mainly for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRetryPolicy tunes the bounded backoff applied to transient storage
// failures.
func WithRetryPolicy(attempts uint64, base time.Duration) ServiceOption {
	return func(s *Service) {
		if attempts > 0 {
			s.retryAttempts = attempts
		}
		if base > 0 {
			s.retryBase = base
		}
	}
}
