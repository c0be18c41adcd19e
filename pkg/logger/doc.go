// Package logger provides a context-aware wrapper around Go's slog package
// adding functional options for configuration, helper attribute constructors,
// and transparent injection of values stored in context.Context.
//
// The package standardises structured logging across the service by exposing
// a single factory, New, that creates a *slog.Logger configured by a set of
// Option functions. These options allow you to:
//
//   - Select an output format (text or json)
//   - Set the minimum log level
//   - Supply default slog.Attr values applied to every record
//   - Register ContextExtractor callbacks that inject attributes pulled from
//     a context value (for example a request id) every time Handle is invoked
//
// # Usage
//
//	log := logger.New(
//		logger.WithProduction("subscriptions"),
//		logger.WithContextValue("request_id", ctxKeyRequestID),
//	)
//	logger.SetAsDefault(log)
//
//	log.InfoContext(ctx, "purchase completed",
//		logger.UserID(userID),
//		logger.ProductCode(code),
//	)
//
// Helper constructors such as Error, EntityID, and ProductCode live in
// attr.go and keep attribute naming consistent across the codebase. Error
// and Errors produce attributes only when the supplied error is non-nil, so
// they can be passed unconditionally.
package logger
