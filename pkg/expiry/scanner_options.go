package expiry

import (
	"log/slog"
	"time"
)

// ScannerOption is a functional option for configuring a scanner.
type ScannerOption func(*scannerOptions)

type scannerOptions struct {
	interval time.Duration
	logger   *slog.Logger
}

// WithInterval sets how often the scanner sweeps for expired instances.
func WithInterval(d time.Duration) ScannerOption {
	return func(o *scannerOptions) {
		if d > 0 {
			o.interval = d
		}
	}
}

// WithLogger sets the scanner logger.
func WithLogger(logger *slog.Logger) ScannerOption {
	return func(o *scannerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
