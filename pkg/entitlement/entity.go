package entitlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/qatarliving/subscriptions/pkg/actor"
	"github.com/qatarliving/subscriptions/pkg/catalog"
	"github.com/qatarliving/subscriptions/pkg/lifecycle"
	"github.com/qatarliving/subscriptions/pkg/quota"
)

// Entity exposes the serialized operation surface of subscription and
// add-on instances. All methods address an instance by id; the underlying
// runtime guarantees at most one operation executes per id at a time.
type Entity struct {
	rt     *actor.Runtime[State]
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Entity.
type Option func(*entityOptions)

type entityOptions struct {
	now         func() time.Time
	logger      *slog.Logger
	runtimeOpts []actor.Option
}

// WithClock injects the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *entityOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the entity logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *entityOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRuntimeOptions passes options (idle TTL, mailbox size) through to
// the underlying actor runtime.
func WithRuntimeOptions(opts ...actor.Option) Option {
	return func(o *entityOptions) {
		o.runtimeOpts = append(o.runtimeOpts, opts...)
	}
}

func cloneState(s *State) *State {
	clone := s.Clone()
	return &clone
}

// New creates the entity surface on top of a state store.
func New(store actor.StateStore[State], opts ...Option) *Entity {
	o := &entityOptions{
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return &Entity{
		rt:     actor.New(store, cloneState, o.runtimeOpts...),
		now:    o.now,
		logger: o.logger,
	}
}

// Close shuts down the underlying runtime.
func (e *Entity) Close() {
	e.rt.Close()
}

// SetData replaces the instance state wholesale. Used for creation and
// administrative edits; the state must satisfy every invariant.
func (e *Entity) SetData(ctx context.Context, id uuid.UUID, state State) error {
	if err := state.Validate(); err != nil {
		return err
	}
	return e.rt.Do(ctx, id.String(), func(ctx context.Context, _ *State) (*State, error) {
		state.LastUpdated = e.now()
		return &state, nil
	})
}

// GetData returns a snapshot of the current state, or nil if the instance
// was never initialized.
func (e *Entity) GetData(ctx context.Context, id uuid.UUID) (*State, error) {
	var snapshot *State
	err := e.rt.Read(ctx, id.String(), func(ctx context.Context, s *State) error {
		if s != nil {
			snapshot = cloneState(s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// ValidateUsage reports whether the requested usage would fit the budget
// right now. Pure read; the answer may be stale by the time a
// RecordUsage follows, which re-validates inside its own turn.
func (e *Entity) ValidateUsage(ctx context.Context, id uuid.UUID, req UsageRequest) error {
	return e.rt.Read(ctx, id.String(), func(ctx context.Context, s *State) error {
		return e.checkUsage(s, req)
	})
}

// RecordUsage re-validates and increments the counter in one turn. On any
// failure the state is untouched; nothing is ever partially consumed.
func (e *Entity) RecordUsage(ctx context.Context, id uuid.UUID, req UsageRequest) error {
	return e.rt.Do(ctx, id.String(), func(ctx context.Context, s *State) (*State, error) {
		if err := e.checkUsage(s, req); err != nil {
			return nil, err
		}
		if req.Dimension == quota.DimensionFreeAds {
			if err := s.Quota.ConsumeCategory(*req.Category, req.Amount); err != nil {
				return nil, err
			}
		} else {
			if err := s.Quota.Consume(req.Dimension, req.Amount, e.now()); err != nil {
				return nil, err
			}
		}
		s.LastUpdated = e.now()
		return s, nil
	})
}

// checkUsage validates a usage request against the given state without
// mutating it.
func (e *Entity) checkUsage(s *State, req UsageRequest) error {
	if s == nil {
		return ErrNotInitialized
	}
	if !s.ActiveAt(e.now()) {
		return ErrInactive
	}
	if req.Dimension == quota.DimensionFreeAds {
		if req.Category == nil {
			return ErrCategoryMissing
		}
		return s.Quota.ValidateCategory(*req.Category, req.Amount)
	}
	return s.Quota.Validate(req.Dimension, req.Amount, e.now())
}

// IsActive reports whether the instance is Active and inside its validity
// window. Unknown instances are simply not active.
func (e *Entity) IsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	var active bool
	err := e.rt.Read(ctx, id.String(), func(ctx context.Context, s *State) error {
		active = s != nil && s.ActiveAt(e.now())
		return nil
	})
	return active, err
}

// MarkExpired transitions Active -> Expired. Calling it on an already
// expired instance is a no-op; the transition is idempotent.
func (e *Entity) MarkExpired(ctx context.Context, id uuid.UUID) error {
	return e.rt.Do(ctx, id.String(), func(ctx context.Context, s *State) (*State, error) {
		if s == nil {
			return nil, ErrNotInitialized
		}
		if s.Status == lifecycle.StatusExpired {
			return nil, nil
		}
		if err := lifecycle.Transition(s.Status, lifecycle.StatusExpired); err != nil {
			return nil, err
		}
		s.Status = lifecycle.StatusExpired
		s.LastUpdated = e.now()
		return s, nil
	})
}

// Cancel transitions Active -> Cancelled. Terminal states reject it.
func (e *Entity) Cancel(ctx context.Context, id uuid.UUID) error {
	return e.rt.Do(ctx, id.String(), func(ctx context.Context, s *State) (*State, error) {
		if s == nil {
			return nil, ErrNotInitialized
		}
		if s.Status == lifecycle.StatusCancelled {
			return nil, nil
		}
		if err := lifecycle.Transition(s.Status, lifecycle.StatusCancelled); err != nil {
			return nil, err
		}
		s.Status = lifecycle.StatusCancelled
		s.LastUpdated = e.now()
		return s, nil
	})
}

// Extend pushes the end date out by a parsed product duration.
func (e *Entity) Extend(ctx context.Context, id uuid.UUID, d catalog.Duration) error {
	return e.rt.Do(ctx, id.String(), func(ctx context.Context, s *State) (*State, error) {
		if s == nil {
			return nil, ErrNotInitialized
		}
		s.EndDate = d.AddTo(s.EndDate)
		s.LastUpdated = e.now()
		return s, nil
	})
}

// RefillQuota raises the allotment for a flat dimension.
func (e *Entity) RefillQuota(ctx context.Context, id uuid.UUID, dim quota.Dimension, amount int64) error {
	return e.rt.Do(ctx, id.String(), func(ctx context.Context, s *State) (*State, error) {
		if s == nil {
			return nil, ErrNotInitialized
		}
		if err := s.Quota.Refill(dim, amount); err != nil {
			return nil, err
		}
		s.LastUpdated = e.now()
		return s, nil
	})
}

// RefillCategoryQuota raises the allotment of the matching category entry.
func (e *Entity) RefillCategoryQuota(ctx context.Context, id uuid.UUID, path quota.CategoryPath, amount int64) error {
	return e.rt.Do(ctx, id.String(), func(ctx context.Context, s *State) (*State, error) {
		if s == nil {
			return nil, ErrNotInitialized
		}
		if err := s.Quota.RefillCategory(path, amount); err != nil {
			return nil, err
		}
		s.LastUpdated = e.now()
		return s, nil
	})
}

// UpdateStatus is the administrative override. Unlike the regular machine
// it may move an instance out of a terminal state, which is logged as an
// exceptional path.
func (e *Entity) UpdateStatus(ctx context.Context, id uuid.UUID, to lifecycle.Status) error {
	return e.rt.Do(ctx, id.String(), func(ctx context.Context, s *State) (*State, error) {
		if s == nil {
			return nil, ErrNotInitialized
		}
		if err := lifecycle.TransitionAdmin(s.Status, to); err != nil {
			return nil, err
		}
		if s.Status.Terminal() && to == lifecycle.StatusActive {
			e.logger.WarnContext(ctx, "admin override reactivated a terminal instance",
				"entity_id", id.String(), "from", string(s.Status), "to", string(to))
		}
		s.Status = to
		s.LastUpdated = e.now()
		return s, nil
	})
}

// UpdateEndDate is the administrative end-date override.
func (e *Entity) UpdateEndDate(ctx context.Context, id uuid.UUID, endDate time.Time) error {
	return e.rt.Do(ctx, id.String(), func(ctx context.Context, s *State) (*State, error) {
		if s == nil {
			return nil, ErrNotInitialized
		}
		if endDate.Before(s.StartDate) {
			return nil, ErrInvalidState
		}
		s.EndDate = endDate.UTC()
		s.LastUpdated = e.now()
		return s, nil
	})
}
