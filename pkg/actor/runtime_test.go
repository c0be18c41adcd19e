package actor_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qatarliving/subscriptions/pkg/actor"
)

type counter struct {
	Value int
	Cap   int
}

func cloneCounter(c *counter) *counter {
	clone := *c
	return &clone
}

func newRuntime(t *testing.T, store actor.StateStore[counter], opts ...actor.Option) *actor.Runtime[counter] {
	t.Helper()
	rt := actor.New(store, cloneCounter, opts...)
	t.Cleanup(rt.Close)
	return rt
}

func initCounter(t *testing.T, rt *actor.Runtime[counter], id string, cap int) {
	t.Helper()
	require.NoError(t, rt.Do(context.Background(), id, func(ctx context.Context, s *counter) (*counter, error) {
		return &counter{Cap: cap}, nil
	}))
}

func TestRuntime_Do(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("initializes and mutates state", func(t *testing.T) {
		t.Parallel()
		store := actor.NewMemoryStore[counter]()
		rt := newRuntime(t, store)

		initCounter(t, rt, "a", 10)
		require.NoError(t, rt.Do(ctx, "a", func(ctx context.Context, s *counter) (*counter, error) {
			s.Value++
			return s, nil
		}))

		var got int
		require.NoError(t, rt.Read(ctx, "a", func(ctx context.Context, s *counter) error {
			got = s.Value
			return nil
		}))
		assert.Equal(t, 1, got)
	})

	t.Run("uninitialized state is nil", func(t *testing.T) {
		t.Parallel()
		rt := newRuntime(t, actor.NewMemoryStore[counter]())

		var sawNil bool
		require.NoError(t, rt.Read(ctx, "missing", func(ctx context.Context, s *counter) error {
			sawNil = s == nil
			return nil
		}))
		assert.True(t, sawNil)
	})

	t.Run("failed turn commits nothing", func(t *testing.T) {
		t.Parallel()
		store := actor.NewMemoryStore[counter]()
		rt := newRuntime(t, store)
		initCounter(t, rt, "a", 10)

		boom := errors.New("boom")
		err := rt.Do(ctx, "a", func(ctx context.Context, s *counter) (*counter, error) {
			s.Value = 99
			return s, boom
		})
		require.ErrorIs(t, err, boom)

		require.NoError(t, rt.Read(ctx, "a", func(ctx context.Context, s *counter) error {
			assert.Equal(t, 0, s.Value)
			return nil
		}))
	})

	t.Run("failed save commits nothing", func(t *testing.T) {
		t.Parallel()
		store := actor.NewMemoryStore[counter]()
		rt := newRuntime(t, store)
		initCounter(t, rt, "a", 10)

		diskFull := errors.New("disk full")
		store.FailSaves(diskFull)
		err := rt.Do(ctx, "a", func(ctx context.Context, s *counter) (*counter, error) {
			s.Value = 42
			return s, nil
		})
		require.ErrorIs(t, err, diskFull)
		store.FailSaves(nil)

		// The aborted turn is invisible to the next one.
		require.NoError(t, rt.Read(ctx, "a", func(ctx context.Context, s *counter) error {
			assert.Equal(t, 0, s.Value)
			return nil
		}))
	})

	t.Run("panicking turn fails without killing the writer", func(t *testing.T) {
		t.Parallel()
		store := actor.NewMemoryStore[counter]()
		rt := newRuntime(t, store)
		initCounter(t, rt, "a", 10)

		err := rt.Do(ctx, "a", func(ctx context.Context, s *counter) (*counter, error) {
			panic("boom")
		})
		require.ErrorIs(t, err, actor.ErrTurnPanic)

		// The mailbox keeps serving turns and the committed state is intact.
		require.NoError(t, rt.Do(ctx, "a", func(ctx context.Context, s *counter) (*counter, error) {
			s.Value++
			return s, nil
		}))
		require.NoError(t, rt.Read(ctx, "a", func(ctx context.Context, s *counter) error {
			assert.Equal(t, 1, s.Value)
			return nil
		}))
	})

	t.Run("cancelled turn never runs", func(t *testing.T) {
		t.Parallel()
		rt := newRuntime(t, actor.NewMemoryStore[counter]())
		initCounter(t, rt, "a", 10)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		err := rt.Do(cancelled, "a", func(ctx context.Context, s *counter) (*counter, error) {
			t.Error("turn must not execute with a cancelled context")
			return s, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("nil turn rejected", func(t *testing.T) {
		t.Parallel()
		rt := newRuntime(t, actor.NewMemoryStore[counter]())
		assert.ErrorIs(t, rt.Do(ctx, "a", nil), actor.ErrNilTurn)
		assert.ErrorIs(t, rt.Read(ctx, "a", nil), actor.ErrNilTurn)
	})
}

func TestRuntime_SingleWriter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("no lost updates under concurrency", func(t *testing.T) {
		t.Parallel()
		store := actor.NewMemoryStore[counter]()
		rt := newRuntime(t, store)
		initCounter(t, rt, "a", 100)

		const callers = 50
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = rt.Do(ctx, "a", func(ctx context.Context, s *counter) (*counter, error) {
					s.Value++
					return s, nil
				})
			}()
		}
		wg.Wait()

		require.NoError(t, rt.Read(ctx, "a", func(ctx context.Context, s *counter) error {
			assert.Equal(t, callers, s.Value)
			return nil
		}))
	})

	t.Run("bounded consumption with more callers than budget", func(t *testing.T) {
		t.Parallel()
		store := actor.NewMemoryStore[counter]()
		rt := newRuntime(t, store)

		const budget = 10
		const callers = 40
		initCounter(t, rt, "a", budget)

		var succeeded, rejected int
		var mu sync.Mutex
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := rt.Do(ctx, "a", func(ctx context.Context, s *counter) (*counter, error) {
					if s.Value+1 > s.Cap {
						return nil, errors.New("budget exhausted")
					}
					s.Value++
					return s, nil
				})
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					rejected++
				} else {
					succeeded++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, budget, succeeded)
		assert.Equal(t, callers-budget, rejected)
		require.NoError(t, rt.Read(ctx, "a", func(ctx context.Context, s *counter) error {
			assert.Equal(t, budget, s.Value)
			return nil
		}))
	})

	t.Run("entities run independently", func(t *testing.T) {
		t.Parallel()
		rt := newRuntime(t, actor.NewMemoryStore[counter]())
		initCounter(t, rt, "a", 1)
		initCounter(t, rt, "b", 1)

		release := make(chan struct{})
		done := make(chan struct{})
		go func() {
			_ = rt.Do(ctx, "a", func(ctx context.Context, s *counter) (*counter, error) {
				<-release
				return s, nil
			})
			close(done)
		}()

		// Entity b completes while a's turn is still blocked.
		require.NoError(t, rt.Do(ctx, "b", func(ctx context.Context, s *counter) (*counter, error) {
			s.Value++
			return s, nil
		}))

		close(release)
		<-done
	})
}

func TestRuntime_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("idle entities are evicted and state survives", func(t *testing.T) {
		t.Parallel()
		store := actor.NewMemoryStore[counter]()
		rt := newRuntime(t, store, actor.WithIdleTTL(30*time.Millisecond))
		initCounter(t, rt, "a", 10)

		require.NoError(t, rt.Do(ctx, "a", func(ctx context.Context, s *counter) (*counter, error) {
			s.Value = 7
			return s, nil
		}))
		require.Eventually(t, func() bool { return rt.ActiveCount() == 0 },
			time.Second, 5*time.Millisecond)

		// Reactivation loads the committed state.
		require.NoError(t, rt.Read(ctx, "a", func(ctx context.Context, s *counter) error {
			assert.Equal(t, 7, s.Value)
			return nil
		}))
		assert.Equal(t, 1, rt.ActiveCount())
	})

	t.Run("close rejects new turns", func(t *testing.T) {
		t.Parallel()
		rt := actor.New(actor.NewMemoryStore[counter](), cloneCounter)
		require.NoError(t, rt.Do(ctx, "a", func(ctx context.Context, s *counter) (*counter, error) {
			return &counter{}, nil
		}))

		rt.Close()
		assert.ErrorIs(t, rt.Do(ctx, "a", func(ctx context.Context, s *counter) (*counter, error) {
			return s, nil
		}), actor.ErrRuntimeClosed)
	})
}
