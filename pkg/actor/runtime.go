package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// StateStore persists entity state keyed by id. Implementations must
// return ErrStateNotFound (possibly wrapped) for ids that were never
// initialized.
type StateStore[S any] interface {
	Load(ctx context.Context, id string) (*S, error)
	Save(ctx context.Context, id string, state *S) error
}

// MutateFunc is one mutating turn. It receives a clone of the current
// state (nil when the entity was never initialized) and returns the state
// to commit. Returning an error aborts the turn without committing.
type MutateFunc[S any] func(ctx context.Context, state *S) (*S, error)

// ReadFunc is one read-only turn executed against the live state. It must
// not retain or mutate the state.
type ReadFunc[S any] func(ctx context.Context, state *S) error

// Runtime hosts one single-writer mailbox per entity id.
type Runtime[S any] struct {
	store   StateStore[S]
	clone   func(*S) *S
	idleTTL time.Duration
	mailbox int
	logger  *slog.Logger

	mu     sync.Mutex
	actors map[string]*mailbox[S]
	closed bool
	wg     sync.WaitGroup
}

type turn[S any] struct {
	ctx    context.Context
	mutate MutateFunc[S]
	read   ReadFunc[S]
	reply  chan error
}

type mailbox[S any] struct {
	id      string
	turns   chan turn[S]
	stop    chan struct{}
	pending atomic.Int64 // turns enqueued or being enqueued
}

// New creates a runtime backed by the given store. The clone function must
// return an independent deep copy; it is how a turn mutates scratch state
// without exposing uncommitted changes.
func New[S any](store StateStore[S], clone func(*S) *S, opts ...Option) *Runtime[S] {
	if store == nil {
		panic("actor: state store is required")
	}
	if clone == nil {
		panic("actor: clone function is required")
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	return &Runtime[S]{
		store:   store,
		clone:   clone,
		idleTTL: options.idleTTL,
		mailbox: options.mailboxSize,
		logger:  options.logger,
		actors:  make(map[string]*mailbox[S]),
	}
}

// Do executes one mutating turn against the entity. It blocks until the
// turn commits, fails, or ctx is done; a turn whose context is cancelled
// before execution never runs, so no partial state can persist.
func (r *Runtime[S]) Do(ctx context.Context, id string, fn MutateFunc[S]) error {
	if fn == nil {
		return ErrNilTurn
	}
	return r.submit(ctx, id, turn[S]{ctx: ctx, mutate: fn, reply: make(chan error, 1)})
}

// Read executes one read-only turn against the entity's committed state.
func (r *Runtime[S]) Read(ctx context.Context, id string, fn ReadFunc[S]) error {
	if fn == nil {
		return ErrNilTurn
	}
	return r.submit(ctx, id, turn[S]{ctx: ctx, read: fn, reply: make(chan error, 1)})
}

func (r *Runtime[S]) submit(ctx context.Context, id string, t turn[S]) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrRuntimeClosed
	}
	mb, ok := r.actors[id]
	if !ok {
		mb = &mailbox[S]{
			id:    id,
			turns: make(chan turn[S], r.mailbox),
			stop:  make(chan struct{}),
		}
		r.actors[id] = mb
		r.wg.Add(1)
		go r.run(mb)
	}
	// Claimed under the runtime lock so idle eviction cannot remove the
	// mailbox between lookup and send.
	mb.pending.Add(1)
	r.mu.Unlock()

	select {
	case mb.turns <- t:
	case <-ctx.Done():
		mb.pending.Add(-1)
		return ctx.Err()
	}

	select {
	case err := <-t.reply:
		return err
	case <-ctx.Done():
		// The runner will observe the cancelled context and skip the turn.
		return ctx.Err()
	}
}

// run is the single writer for one entity id.
func (r *Runtime[S]) run(mb *mailbox[S]) {
	defer r.wg.Done()

	var state *S
	loaded := false

	idle := time.NewTimer(r.idleTTL)
	defer idle.Stop()

	for {
		select {
		case t := <-mb.turns:
			t.reply <- r.execute(mb, t, &state, &loaded)
			mb.pending.Add(-1)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(r.idleTTL)

		case <-idle.C:
			if r.tryEvict(mb) {
				return
			}
			idle.Reset(r.idleTTL)

		case <-mb.stop:
			// Drain turns already claimed by callers, then exit. A claimed
			// turn may still be between lookup and send, so spin on the
			// pending count rather than the channel alone.
			for {
				if mb.pending.Load() == 0 {
					return
				}
				select {
				case t := <-mb.turns:
					t.reply <- r.execute(mb, t, &state, &loaded)
					mb.pending.Add(-1)
				case <-time.After(10 * time.Millisecond):
				}
			}
		}
	}
}

func (r *Runtime[S]) execute(mb *mailbox[S], t turn[S], state **S, loaded *bool) (err error) {
	// A panicking turn must not take the writer goroutine down with it;
	// the turn fails and the committed state stays as it was.
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.ErrorContext(t.ctx, "actor turn panicked", "entity_id", mb.id, "panic", rec)
			err = fmt.Errorf("%w: %v", ErrTurnPanic, rec)
		}
	}()

	if err := t.ctx.Err(); err != nil {
		return err
	}

	if !*loaded {
		s, err := r.store.Load(t.ctx, mb.id)
		if err != nil && !isNotFound(err) {
			return err
		}
		*state = s
		*loaded = true
	}

	if t.read != nil {
		return t.read(t.ctx, *state)
	}

	working := r.cloneState(*state)
	next, err := t.mutate(t.ctx, working)
	if err != nil {
		return err
	}
	if next == nil {
		// Turn decided to commit nothing.
		return nil
	}
	if err := r.store.Save(t.ctx, mb.id, next); err != nil {
		r.logger.ErrorContext(t.ctx, "actor turn persist failed", "entity_id", mb.id, "error", err)
		return err
	}
	*state = next
	return nil
}

func (r *Runtime[S]) cloneState(s *S) *S {
	if s == nil {
		return nil
	}
	return r.clone(s)
}

// tryEvict removes an idle mailbox. It reports false when a caller claimed
// the mailbox concurrently.
func (r *Runtime[S]) tryEvict(mb *mailbox[S]) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if mb.pending.Load() != 0 {
		return false
	}
	delete(r.actors, mb.id)
	r.logger.Debug("actor deactivated", "entity_id", mb.id)
	return true
}

// ActiveCount returns the number of currently activated entities.
func (r *Runtime[S]) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.actors)
}

// Close stops accepting turns, drains accepted ones, and waits for every
// mailbox to exit.
func (r *Runtime[S]) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	for _, mb := range r.actors {
		close(mb.stop)
	}
	r.mu.Unlock()

	r.wg.Wait()
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrStateNotFound)
}
