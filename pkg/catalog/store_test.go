package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qatarliving/subscriptions/pkg/catalog"
)

func proProduct() catalog.Product {
	return catalog.Product{
		Code:     "vehicles-pro",
		Type:     catalog.TypeSubscription,
		Vertical: "vehicles",
		Price:    catalog.Money{Amount: 9900, Currency: "QAR"},
		Duration: "1 month",
		Constraints: catalog.Constraints{
			AdsBudget:      10,
			FeaturedBudget: 2,
		},
	}
}

func TestInMemStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("seed validation", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.NewInMemStore(catalog.Product{Code: "bad", Type: "mystery", Duration: "1 month"})
		assert.ErrorIs(t, err, catalog.ErrInvalidConstraints)

		p := proProduct()
		p.Duration = "bogus"
		_, err = catalog.NewInMemStore(p)
		assert.ErrorIs(t, err, catalog.ErrInvalidDuration)
	})

	t.Run("create get update", func(t *testing.T) {
		t.Parallel()

		store, err := catalog.NewInMemStore()
		require.NoError(t, err)

		p := proProduct()
		require.NoError(t, store.Create(ctx, p))
		assert.ErrorIs(t, store.Create(ctx, p), catalog.ErrProductExists)

		got, err := store.Get(ctx, p.Code)
		require.NoError(t, err)
		assert.Equal(t, p, *got)

		_, err = store.Get(ctx, "unknown")
		assert.ErrorIs(t, err, catalog.ErrProductNotFound)

		p.Constraints.AdsBudget = 20
		require.NoError(t, store.Update(ctx, p))
		got, err = store.Get(ctx, p.Code)
		require.NoError(t, err)
		assert.Equal(t, int64(20), got.Constraints.AdsBudget)

		assert.ErrorIs(t, store.Update(ctx, catalog.Product{
			Code: "unknown", Type: catalog.TypeSubscription, Duration: "1 month",
		}), catalog.ErrProductNotFound)
	})

	t.Run("returned products are copies", func(t *testing.T) {
		t.Parallel()

		p := proProduct()
		p.Constraints.CategoryQuotas = []catalog.CategoryQuota{{Category: "sedans", AdsBudget: 5}}
		store, err := catalog.NewInMemStore(p)
		require.NoError(t, err)

		got, err := store.Get(ctx, p.Code)
		require.NoError(t, err)
		got.Constraints.CategoryQuotas[0].AdsBudget = 99

		fresh, err := store.Get(ctx, p.Code)
		require.NoError(t, err)
		assert.Equal(t, int64(5), fresh.Constraints.CategoryQuotas[0].AdsBudget)
	})

	t.Run("soft delete hides from list but not get", func(t *testing.T) {
		t.Parallel()

		store, err := catalog.NewInMemStore(proProduct())
		require.NoError(t, err)

		deletedAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
		require.NoError(t, store.SoftDelete(ctx, "vehicles-pro", deletedAt))
		assert.ErrorIs(t, store.SoftDelete(ctx, "unknown", deletedAt), catalog.ErrProductNotFound)

		// Past purchases still resolve the product.
		got, err := store.Get(ctx, "vehicles-pro")
		require.NoError(t, err)
		assert.True(t, got.IsDeleted())
		assert.Equal(t, deletedAt, *got.DeletedAt)

		list, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestYAMLSource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("loads and seeds a store", func(t *testing.T) {
		t.Parallel()

		store, err := catalog.NewInMemStoreFromSource(ctx, catalog.NewYAMLSource("testdata/catalog.yml"))
		require.NoError(t, err)

		got, err := store.Get(ctx, "properties-featured-pack")
		require.NoError(t, err)
		assert.Equal(t, catalog.TypeAddon, got.Type)
		assert.Equal(t, int64(4500), got.Price.Amount)
		assert.Equal(t, "3 months", got.Duration)

		free, err := store.Get(ctx, "classifieds-free")
		require.NoError(t, err)
		assert.Equal(t, catalog.TypeFree, free.Type)
		require.Len(t, free.Constraints.CategoryQuotas, 2)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.NewYAMLSource("testdata/nope.yml").Load(ctx)
		assert.ErrorIs(t, err, catalog.ErrFailedToLoadCatalog)
	})

	t.Run("invalid product definitions are rejected", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.NewYAMLSource("testdata/catalog_invalid.yml").Load(ctx)
		assert.ErrorIs(t, err, catalog.ErrFailedToLoadCatalog)
	})

	t.Run("duplicate codes are rejected", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.NewYAMLSource("testdata/catalog_dup.yml").Load(ctx)
		assert.ErrorIs(t, err, catalog.ErrFailedToLoadCatalog)
	})
}
