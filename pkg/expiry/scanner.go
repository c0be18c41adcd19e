package expiry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qatarliving/subscriptions/pkg/logger"
)

// Service is the slice of the purchase orchestrator the scanner needs.
type Service interface {
	// ListExpired returns ids of instances still indexed as active whose
	// end date has passed.
	ListExpired(ctx context.Context) ([]uuid.UUID, error)

	// MarkExpired fires the expiry transition on the owning entity.
	MarkExpired(ctx context.Context, id uuid.UUID) error
}

// Scanner drives expiry sweeps on a fixed interval.
type Scanner struct {
	svc      Service
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScanner creates an expiry scanner over the purchase service.
func NewScanner(svc Service, opts ...ScannerOption) (*Scanner, error) {
	if svc == nil {
		return nil, ErrServiceNil
	}

	options := &scannerOptions{
		interval: time.Minute,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	return &Scanner{
		svc:      svc,
		interval: options.interval,
		logger:   options.logger,
	}, nil
}

// Start begins sweeping in the background until the context is cancelled or
// Stop is called.
func (s *Scanner) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrScannerStarted
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx)

	s.logger.InfoContext(ctx, "expiry scanner started",
		slog.Duration("interval", s.interval))
	return nil
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *Scanner) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return ErrScannerNotStarted
	}
	cancel()
	s.wg.Wait()

	s.logger.Info("expiry scanner stopped")
	return nil
}

// Run starts the scanner and returns a function suitable for errgroup.
func (s *Scanner) Run(ctx context.Context) func() error {
	return func() error {
		if err := s.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return s.Stop()
	}
}

func (s *Scanner) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass over the expired instances. Exposed so deployments
// can trigger an immediate pass, e.g. on startup after downtime.
func (s *Scanner) Sweep(ctx context.Context) {
	ids, err := s.svc.ListExpired(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list expired instances", logger.Error(err))
		return
	}
	if len(ids) == 0 {
		return
	}

	var expired int
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if err := s.svc.MarkExpired(ctx, id); err != nil {
			// Skipped instances are picked up again on the next tick.
			s.logger.WarnContext(ctx, "failed to expire instance",
				logger.EntityID(id), logger.Error(err))
			continue
		}
		expired++
	}

	s.logger.InfoContext(ctx, "expiry sweep completed",
		slog.Int("candidates", len(ids)),
		slog.Int("expired", expired))
}
