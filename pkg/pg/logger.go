package pg

import "context"

// logger is the interface required for migration logging. Compatible with
// slog; lets goose output flow through the application logger instead of
// stdout.
type logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}
