package catalog_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qatarliving/subscriptions/pkg/catalog"
)

func TestParseDuration(t *testing.T) {
	t.Parallel()

	t.Run("months", func(t *testing.T) {
		t.Parallel()
		d, err := catalog.ParseDuration("3 months")
		require.NoError(t, err)
		assert.Equal(t, catalog.Duration{Months: 3}, d)
	})

	t.Run("single month", func(t *testing.T) {
		t.Parallel()
		d, err := catalog.ParseDuration("1 month")
		require.NoError(t, err)
		assert.Equal(t, catalog.Duration{Months: 1}, d)
	})

	t.Run("years case-insensitive", func(t *testing.T) {
		t.Parallel()
		d, err := catalog.ParseDuration("2 Years")
		require.NoError(t, err)
		assert.Equal(t, catalog.Duration{Years: 2}, d)
	})

	t.Run("rejects unsupported units", func(t *testing.T) {
		t.Parallel()
		for _, s := range []string{"7 days", "2 weeks", "1 fortnight"} {
			_, err := catalog.ParseDuration(s)
			assert.ErrorIs(t, err, catalog.ErrInvalidDuration, s)
		}
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		t.Parallel()
		for _, s := range []string{"", "month", "three months", "0 months", "-1 year", "1 month extra"} {
			_, err := catalog.ParseDuration(s)
			assert.ErrorIs(t, err, catalog.ErrInvalidDuration, s)
		}
	})

	t.Run("add to start date", func(t *testing.T) {
		t.Parallel()
		start := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)

		d, err := catalog.ParseDuration("1 year")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC), d.AddTo(start))
	})
}
