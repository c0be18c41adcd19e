package entitlement_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qatarliving/subscriptions/pkg/actor"
	"github.com/qatarliving/subscriptions/pkg/catalog"
	"github.com/qatarliving/subscriptions/pkg/entitlement"
	"github.com/qatarliving/subscriptions/pkg/lifecycle"
	"github.com/qatarliving/subscriptions/pkg/quota"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newEntity(t *testing.T) *entitlement.Entity {
	t.Helper()
	e := entitlement.New(
		actor.NewMemoryStore[entitlement.State](),
		entitlement.WithClock(func() time.Time { return testNow }),
	)
	t.Cleanup(e.Close)
	return e
}

func activeState(id uuid.UUID, allotted map[quota.Dimension]int64, categories []quota.CategoryUsage) entitlement.State {
	return entitlement.State{
		ID:          id,
		UserID:      "u1",
		ProductCode: "p1",
		Kind:        entitlement.KindSubscription,
		Vertical:    "classifieds",
		StartDate:   testNow.AddDate(0, -1, 0),
		EndDate:     testNow.AddDate(0, 1, 0),
		Status:      lifecycle.StatusActive,
		Quota:       quota.NewState(allotted, categories),
	}
}

func TestEntity_SetGetData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()
		e := newEntity(t)
		id := uuid.New()

		require.NoError(t, e.SetData(ctx, id, activeState(id, map[quota.Dimension]int64{quota.DimensionAds: 3}, nil)))

		got, err := e.GetData(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, testNow, got.LastUpdated)
	})

	t.Run("never initialized returns nil", func(t *testing.T) {
		t.Parallel()
		e := newEntity(t)

		got, err := e.GetData(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("invalid state rejected before any turn", func(t *testing.T) {
		t.Parallel()
		e := newEntity(t)
		id := uuid.New()

		bad := activeState(id, nil, nil)
		bad.UserID = ""
		assert.ErrorIs(t, e.SetData(ctx, id, bad), entitlement.ErrInvalidState)

		got, err := e.GetData(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestEntity_Usage(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("budget scenario", func(t *testing.T) {
		t.Parallel()
		e := newEntity(t)
		id := uuid.New()
		require.NoError(t, e.SetData(ctx, id, activeState(id, map[quota.Dimension]int64{quota.DimensionAds: 3}, nil)))

		ads := func(n int64) entitlement.UsageRequest {
			return entitlement.UsageRequest{Dimension: quota.DimensionAds, Amount: n}
		}

		require.NoError(t, e.RecordUsage(ctx, id, ads(2)))
		require.ErrorIs(t, e.RecordUsage(ctx, id, ads(2)), quota.ErrBudgetExceeded)

		got, err := e.GetData(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Quota.Consumed[quota.DimensionAds])

		require.NoError(t, e.RecordUsage(ctx, id, ads(1)))
		assert.ErrorIs(t, e.ValidateUsage(ctx, id, ads(1)), quota.ErrBudgetExceeded)
	})

	t.Run("category precedence", func(t *testing.T) {
		t.Parallel()
		e := newEntity(t)
		id := uuid.New()
		require.NoError(t, e.SetData(ctx, id, activeState(id, nil, []quota.CategoryUsage{
			{Category: "Electronics", L1: "Phones", Allowed: 5},
			{Category: "Electronics", L1: "Phones", L2: "Smartphones", Allowed: 2},
		})))

		req := entitlement.UsageRequest{
			Dimension: quota.DimensionFreeAds,
			Amount:    1,
			Category:  &quota.CategoryPath{Category: "Electronics", L1: "Phones", L2: "Smartphones"},
		}
		require.NoError(t, e.RecordUsage(ctx, id, req))
		require.NoError(t, e.RecordUsage(ctx, id, req))
		// Checked against the 2-budget, not the broader 5-budget.
		assert.ErrorIs(t, e.ValidateUsage(ctx, id, req), quota.ErrBudgetExceeded)
	})

	t.Run("free ads require a category path", func(t *testing.T) {
		t.Parallel()
		e := newEntity(t)
		id := uuid.New()
		require.NoError(t, e.SetData(ctx, id, activeState(id, nil, []quota.CategoryUsage{
			{Category: "Electronics", Allowed: 1},
		})))

		err := e.RecordUsage(ctx, id, entitlement.UsageRequest{Dimension: quota.DimensionFreeAds, Amount: 1})
		assert.ErrorIs(t, err, entitlement.ErrCategoryMissing)
	})

	t.Run("expired window rejects usage lazily", func(t *testing.T) {
		t.Parallel()
		e := newEntity(t)
		id := uuid.New()
		st := activeState(id, map[quota.Dimension]int64{quota.DimensionAds: 3}, nil)
		st.EndDate = testNow.Add(-time.Hour)
		require.NoError(t, e.SetData(ctx, id, st))

		err := e.ValidateUsage(ctx, id, entitlement.UsageRequest{Dimension: quota.DimensionAds, Amount: 1})
		assert.ErrorIs(t, err, entitlement.ErrInactive)

		active, err := e.IsActive(ctx, id)
		require.NoError(t, err)
		assert.False(t, active)
	})

	t.Run("unknown instance", func(t *testing.T) {
		t.Parallel()
		e := newEntity(t)

		err := e.RecordUsage(ctx, uuid.New(), entitlement.UsageRequest{Dimension: quota.DimensionAds, Amount: 1})
		assert.ErrorIs(t, err, entitlement.ErrNotInitialized)

		active, err := e.IsActive(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, active)
	})

	t.Run("concurrent recording never over-consumes", func(t *testing.T) {
		t.Parallel()
		e := newEntity(t)
		id := uuid.New()
		const budget = 10
		const callers = 35
		require.NoError(t, e.SetData(ctx, id, activeState(id, map[quota.Dimension]int64{quota.DimensionAds: budget}, nil)))

		var mu sync.Mutex
		succeeded := 0
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := e.RecordUsage(ctx, id, entitlement.UsageRequest{Dimension: quota.DimensionAds, Amount: 1})
				if err == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, budget, succeeded)
		got, err := e.GetData(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(budget), got.Quota.Consumed[quota.DimensionAds])
		assert.True(t, got.Quota.Check())
	})
}

func TestEntity_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("mark expired is idempotent", func(t *testing.T) {
		t.Parallel()
		e := newEntity(t)
		id := uuid.New()
		require.NoError(t, e.SetData(ctx, id, activeState(id, nil, nil)))

		require.NoError(t, e.MarkExpired(ctx, id))
		require.NoError(t, e.MarkExpired(ctx, id))

		got, err := e.GetData(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, lifecycle.StatusExpired, got.Status)
	})

	t.Run("cancelled instance cannot expire", func(t *testing.T) {
		t.Parallel()
		e := newEntity(t)
		id := uuid.New()
		require.NoError(t, e.SetData(ctx, id, activeState(id, nil, nil)))

		require.NoError(t, e.Cancel(ctx, id))
		assert.True(t, lifecycle.IsTransitionNotAllowed(e.MarkExpired(ctx, id)))
	})

	t.Run("cancel is terminal and idempotent", func(t *testing.T) {
		t.Parallel()
		e := newEntity(t)
		id := uuid.New()
		require.NoError(t, e.SetData(ctx, id, activeState(id, nil, nil)))

		require.NoError(t, e.Cancel(ctx, id))
		require.NoError(t, e.Cancel(ctx, id))

		got, err := e.GetData(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, lifecycle.StatusCancelled, got.Status)
	})

	t.Run("admin override escapes terminal state", func(t *testing.T) {
		t.Parallel()
		e := newEntity(t)
		id := uuid.New()
		require.NoError(t, e.SetData(ctx, id, activeState(id, nil, nil)))
		require.NoError(t, e.MarkExpired(ctx, id))

		require.NoError(t, e.UpdateStatus(ctx, id, lifecycle.StatusActive))
		got, err := e.GetData(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, lifecycle.StatusActive, got.Status)
	})
}

func TestEntity_Admin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("extend pushes the end date", func(t *testing.T) {
		t.Parallel()
		e := newEntity(t)
		id := uuid.New()
		st := activeState(id, nil, nil)
		require.NoError(t, e.SetData(ctx, id, st))

		require.NoError(t, e.Extend(ctx, id, catalog.Duration{Months: 2}))
		got, err := e.GetData(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, st.EndDate.AddDate(0, 2, 0), got.EndDate)
	})

	t.Run("refill reopens an exhausted budget", func(t *testing.T) {
		t.Parallel()
		e := newEntity(t)
		id := uuid.New()
		require.NoError(t, e.SetData(ctx, id, activeState(id, map[quota.Dimension]int64{quota.DimensionFeatured: 1}, nil)))

		req := entitlement.UsageRequest{Dimension: quota.DimensionFeatured, Amount: 1}
		require.NoError(t, e.RecordUsage(ctx, id, req))
		require.ErrorIs(t, e.RecordUsage(ctx, id, req), quota.ErrBudgetExceeded)

		require.NoError(t, e.RefillQuota(ctx, id, quota.DimensionFeatured, 1))
		assert.NoError(t, e.RecordUsage(ctx, id, req))
	})

	t.Run("refill works when the stored quota has zero value maps", func(t *testing.T) {
		t.Parallel()
		e := newEntity(t)
		id := uuid.New()
		st := activeState(id, nil, nil)
		st.Quota = quota.State{}
		require.NoError(t, e.SetData(ctx, id, st))

		require.NoError(t, e.RefillQuota(ctx, id, quota.DimensionAds, 2))
		got, err := e.GetData(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.Quota.Remaining(quota.DimensionAds, testNow))
	})

	t.Run("end date override cannot precede start", func(t *testing.T) {
		t.Parallel()
		e := newEntity(t)
		id := uuid.New()
		st := activeState(id, nil, nil)
		require.NoError(t, e.SetData(ctx, id, st))

		err := e.UpdateEndDate(ctx, id, st.StartDate.Add(-time.Hour))
		assert.ErrorIs(t, err, entitlement.ErrInvalidState)

		require.NoError(t, e.UpdateEndDate(ctx, id, st.EndDate.AddDate(0, 0, 10)))
	})
}
