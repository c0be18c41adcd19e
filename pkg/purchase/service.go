package purchase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/qatarliving/subscriptions/pkg/catalog"
	"github.com/qatarliving/subscriptions/pkg/entitlement"
	"github.com/qatarliving/subscriptions/pkg/lifecycle"
	"github.com/qatarliving/subscriptions/pkg/logger"
	"github.com/qatarliving/subscriptions/pkg/quota"
	"github.com/qatarliving/subscriptions/pkg/userquota"
)

// Service orchestrates purchases and delegates per-instance operations to
// the owning entity. The service itself is stateless; all state lives in
// the entities and the durable index.
type Service struct {
	products catalog.Store
	entities *entitlement.Entity
	index    IndexStore
	mirror   userquota.Mirror
	logger   *slog.Logger
	now      func() time.Time

	retryAttempts uint64
	retryBase     time.Duration
}

// NewService creates the orchestrator. Panics on nil required dependencies
// to fail fast during initialization.
func NewService(products catalog.Store, entities *entitlement.Entity, index IndexStore, opts ...ServiceOption) *Service {
	if products == nil {
		panic("purchase: catalog store is required")
	}
	if entities == nil {
		panic("purchase: entitlement entity is required")
	}
	if index == nil {
		panic("purchase: index store is required")
	}

	s := &Service{
		products:      products,
		entities:      entities,
		index:         index,
		logger:        slog.Default(),
		now:           func() time.Time { return time.Now().UTC() },
		retryAttempts: 3,
		retryBase:     100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Purchase creates a new instance of the product for the user and returns
// its id. Free products skip payment entirely but still pass the
// duplicate-purchase guard; a user may hold at most one active instance
// per product.
func (s *Service) Purchase(ctx context.Context, productCode, userID string) (uuid.UUID, error) {
	if userID == "" {
		return uuid.Nil, ErrUnauthorized
	}

	product, err := s.products.Get(ctx, productCode)
	if err != nil {
		return uuid.Nil, err
	}
	if product.IsDeleted() {
		return uuid.Nil, catalog.ErrProductDeleted
	}

	duration, err := catalog.ParseDuration(product.Duration)
	if err != nil {
		return uuid.Nil, err
	}

	now := s.now()

	// Guard pre-check. Not authoritative: two racing purchases can both
	// pass it; the index Claim below serializes them.
	exists, err := s.index.ActiveExists(ctx, productCode, userID, now)
	if err != nil {
		return uuid.Nil, err
	}
	if exists {
		return uuid.Nil, ErrAlreadySubscribed
	}

	kind := entitlement.KindSubscription
	if product.Type == catalog.TypeAddon {
		kind = entitlement.KindAddon
	}

	id := uuid.New()
	state := entitlement.State{
		ID:          id,
		UserID:      userID,
		ProductCode: product.Code,
		Kind:        kind,
		Vertical:    product.Vertical,
		SubVertical: product.SubVertical,
		StartDate:   now,
		EndDate:     duration.AddTo(now),
		Status:      lifecycle.StatusActive,
		Quota:       product.Constraints.ToQuotaState(),
	}

	if err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.entities.SetData(ctx, id, state)
	}); err != nil {
		return uuid.Nil, err
	}

	claimErr := s.withRetry(ctx, func(ctx context.Context) error {
		return s.index.Claim(ctx, recordFromState(state))
	})
	if claimErr != nil {
		// Lost the race or the index is down: the entity must not stay
		// active without an index row, so roll it back.
		if err := s.entities.Cancel(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "failed to roll back unclaimed purchase",
				logger.EntityID(id), logger.Error(err))
		}
		if errors.Is(claimErr, ErrDuplicateActive) {
			return uuid.Nil, ErrAlreadySubscribed
		}
		return uuid.Nil, claimErr
	}

	s.mirrorUpsert(ctx, state)
	return id, nil
}

// ValidateUsage reports whether the instance could absorb the usage right
// now. Pure read; RecordUsage re-validates inside the entity's turn.
func (s *Service) ValidateUsage(ctx context.Context, id uuid.UUID, req entitlement.UsageRequest) error {
	return s.mapEntityErr(s.entities.ValidateUsage(ctx, id, req))
}

// RecordUsage performs the check-and-increment on the owning entity and
// refreshes the per-user mirror on success.
func (s *Service) RecordUsage(ctx context.Context, id uuid.UUID, req entitlement.UsageRequest) error {
	if err := s.mapEntityErr(s.entities.RecordUsage(ctx, id, req)); err != nil {
		return err
	}
	s.refreshMirror(ctx, id)
	return nil
}

// Cancel terminates the instance at the owner's request.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, userID string) error {
	state, err := s.entities.GetData(ctx, id)
	if err != nil {
		return err
	}
	if state == nil {
		return ErrInstanceNotFound
	}
	if state.UserID != userID {
		return ErrUnauthorized
	}

	if err := s.entities.Cancel(ctx, id); err != nil {
		return err
	}
	s.syncIndex(ctx, id)

	if s.mirror != nil {
		if err := s.mirror.Remove(ctx, userID, id); err != nil && !errors.Is(err, userquota.ErrRecordNotFound) {
			s.logger.WarnContext(ctx, "failed to remove cancelled instance from user quota mirror",
				logger.EntityID(id), logger.Error(err))
		}
	}
	return nil
}

// MarkExpired fires the authoritative expiry transition on the entity and
// mirrors the terminal status into the index.
func (s *Service) MarkExpired(ctx context.Context, id uuid.UUID) error {
	if err := s.mapEntityErr(s.entities.MarkExpired(ctx, id)); err != nil {
		return err
	}
	s.syncIndex(ctx, id)
	return nil
}

// Get returns a snapshot of the instance state.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*entitlement.State, error) {
	state, err := s.entities.GetData(ctx, id)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrInstanceNotFound
	}
	return state, nil
}

// IsActive reports whether the instance is active and inside its window.
func (s *Service) IsActive(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.entities.IsActive(ctx, id)
}

// ListByUser returns the user's index records, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	return s.index.ListByUser(ctx, userID)
}

// ListExpired returns ids of instances still marked active in the index
// whose end date has passed. The expiry scanner feeds these back into
// MarkExpired; the index never transitions an entity by itself.
func (s *Service) ListExpired(ctx context.Context) ([]uuid.UUID, error) {
	records, err := s.index.ListExpired(ctx, s.now())
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

// Extend pushes the instance's end date out by a product duration.
func (s *Service) Extend(ctx context.Context, id uuid.UUID, d catalog.Duration) error {
	if err := s.mapEntityErr(s.entities.Extend(ctx, id, d)); err != nil {
		return err
	}
	s.syncIndex(ctx, id)
	return nil
}

// RefillQuota raises a flat budget on the instance.
func (s *Service) RefillQuota(ctx context.Context, id uuid.UUID, dim quota.Dimension, amount int64) error {
	if err := s.mapEntityErr(s.entities.RefillQuota(ctx, id, dim, amount)); err != nil {
		return err
	}
	s.refreshMirror(ctx, id)
	return nil
}

// RefillCategoryQuota raises a category-scoped free-ads budget.
func (s *Service) RefillCategoryQuota(ctx context.Context, id uuid.UUID, path quota.CategoryPath, amount int64) error {
	if err := s.mapEntityErr(s.entities.RefillCategoryQuota(ctx, id, path, amount)); err != nil {
		return err
	}
	s.refreshMirror(ctx, id)
	return nil
}

// AdminUpdateStatus is the administrative status override, including the
// exceptional reactivation of terminal instances.
func (s *Service) AdminUpdateStatus(ctx context.Context, id uuid.UUID, status lifecycle.Status) error {
	if err := s.mapEntityErr(s.entities.UpdateStatus(ctx, id, status)); err != nil {
		return err
	}
	s.syncIndex(ctx, id)
	return nil
}

// AdminUpdateEndDate is the administrative end-date override.
func (s *Service) AdminUpdateEndDate(ctx context.Context, id uuid.UUID, endDate time.Time) error {
	if err := s.mapEntityErr(s.entities.UpdateEndDate(ctx, id, endDate)); err != nil {
		return err
	}
	s.syncIndex(ctx, id)
	return nil
}

// withRetry retries transient storage failures with bounded exponential
// backoff. Everything else surfaces immediately.
func (s *Service) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(s.retryAttempts, retry.NewExponential(s.retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := op(ctx); err != nil {
			if errors.Is(err, ErrStorageUnavailable) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
}

// mapEntityErr converts entity-level outcomes into the service's typed
// errors so the transport layer can route them.
func (s *Service) mapEntityErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, entitlement.ErrNotInitialized):
		return ErrInstanceNotFound
	case errors.Is(err, entitlement.ErrInactive),
		errors.Is(err, quota.ErrBudgetExceeded),
		errors.Is(err, quota.ErrNoCategoryBudget):
		return errors.Join(ErrQuotaExceeded, err)
	default:
		return err
	}
}

// syncIndex mirrors the entity's status and end date into the durable
// index and refreshes the per-user view.
func (s *Service) syncIndex(ctx context.Context, id uuid.UUID) {
	state, err := s.entities.GetData(ctx, id)
	if err != nil || state == nil {
		s.logger.WarnContext(ctx, "failed to read entity state for index sync",
			logger.EntityID(id), logger.Error(err))
		return
	}
	if err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.index.Update(ctx, recordFromState(*state))
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to sync index record",
			logger.EntityID(id), logger.Error(err))
	}
	s.mirrorUpsert(ctx, *state)
}

// refreshMirror pushes the latest entity state into the per-user view.
// Best effort; the mirror is eventually consistent by design.
func (s *Service) refreshMirror(ctx context.Context, id uuid.UUID) {
	if s.mirror == nil {
		return
	}
	state, err := s.entities.GetData(ctx, id)
	if err != nil || state == nil {
		return
	}
	s.mirrorUpsert(ctx, *state)
}

func (s *Service) mirrorUpsert(ctx context.Context, state entitlement.State) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Upsert(ctx, userquota.FromState(state)); err != nil {
		s.logger.WarnContext(ctx, "failed to update user quota mirror",
			logger.EntityID(state.ID), logger.UserID(state.UserID), logger.Error(err))
	}
}

func recordFromState(s entitlement.State) Record {
	return Record{
		ID:          s.ID,
		UserID:      s.UserID,
		ProductCode: s.ProductCode,
		Kind:        s.Kind,
		Status:      s.Status,
		EndDate:     s.EndDate,
	}
}
