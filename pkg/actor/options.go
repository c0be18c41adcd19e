package actor

import (
	"log/slog"
	"time"
)

type options struct {
	idleTTL     time.Duration
	mailboxSize int
	logger      *slog.Logger
}

// Option configures a Runtime.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		idleTTL:     5 * time.Minute,
		mailboxSize: 64,
		logger:      slog.Default(),
	}
}

// WithIdleTTL sets how long an entity may sit without turns before its
// mailbox is deactivated. State is persisted per turn, so eviction never
// loses committed state.
func WithIdleTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.idleTTL = ttl
		}
	}
}

// WithMailboxSize sets the per-entity turn buffer. Senders block when the
// buffer is full, which backpressures hot entities.
func WithMailboxSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.mailboxSize = n
		}
	}
}

// WithLogger sets the runtime logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
