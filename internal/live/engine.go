// Package live turns store reads into subscriptions that re-deliver whenever a
// commit writes a table the read depends on.
package live

import (
	"context"
	"log/slog"
	"sync"

	"github.com/SscSPs/mma_local/internal/store"
	"github.com/google/go-cmp/cmp"
)

// Result is one delivery of a live query.
type Result[T any] struct {
	Value T
	Err   error
}

// QueryFunc is a read-only computation over the store.
type QueryFunc[T any] func(ctx context.Context, r store.Reader) (T, error)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithCompareOptions adds go-cmp options used to decide whether a re-run changed anything.
func WithCompareOptions(opts ...cmp.Option) Option {
	return func(e *Engine) {
		e.cmpOpts = append(e.cmpOpts, opts...)
	}
}

// Engine owns every live subscription of one store.
type Engine struct {
	store   *store.Store
	logger  *slog.Logger
	cmpOpts []cmp.Option

	mu     sync.Mutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool

	unsubscribe func()
}

// NewEngine registers the engine as a commit listener of s.
func NewEngine(s *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		logger: slog.Default(),
		subs:   make(map[uint64]*Subscription),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.unsubscribe = s.OnCommit(e.onCommit)
	return e
}

// Close cancels every subscription and detaches from the store.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	subs := make([]*Subscription, 0, len(e.subs))
	for _, s := range e.subs {
		subs = append(subs, s)
	}
	e.mu.Unlock()

	e.unsubscribe()
	for _, s := range subs {
		s.Cancel()
	}
}

// Active returns the number of live subscriptions.
func (e *Engine) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

func (e *Engine) onCommit(ev store.CommitEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.subs {
		if s.running.Load() || s.dependsOn(ev.Tables) {
			s.markDirty()
		}
	}
}

func (e *Engine) register(s *Subscription) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	s.id = e.nextID
	e.nextID++
	e.subs[s.id] = s
	return true
}

func (e *Engine) remove(id uint64) {
	e.mu.Lock()
	delete(e.subs, id)
	e.mu.Unlock()
}

func (e *Engine) equal(a, b any) (eq bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Debug("Live query values not comparable, treating as changed", slog.Any("reason", r))
			eq = false
		}
	}()
	return cmp.Equal(a, b, e.cmpOpts...)
}

// Observe runs query now and again after every commit that writes a table the
// previous run read. deliver is called from the subscription's own goroutine, one
// call at a time; unchanged results are not delivered again.
func Observe[T any](ctx context.Context, e *Engine, query QueryFunc[T], deliver func(Result[T])) *Subscription {
	sub := newSubscription(e)

	var (
		last      T
		delivered bool
		lastErr   bool
	)
	sub.step = func() {
		sub.running.Store(true)
		defer sub.running.Store(false)

		var val T
		var tr *trackingReader
		err := e.store.View(ctx, func(r store.Reader) error {
			tr = newTrackingReader(r)
			v, err := query(ctx, tr)
			val = v
			return err
		})
		var touched map[string]bool
		if tr != nil {
			touched = tr.tables()
		}

		if err != nil {
			sub.mergeDeps(touched)
			lastErr = true
			e.logger.Debug("Live query failed", slog.Uint64("subscription", sub.id), slog.String("error", err.Error()))
			sub.deliver(func() { deliver(Result[T]{Err: err}) })
			return
		}

		sub.setDeps(touched)
		if delivered && !lastErr && e.equal(last, val) {
			return
		}
		last, delivered, lastErr = val, true, false
		sub.deliver(func() { deliver(Result[T]{Value: val}) })
	}

	if !e.register(sub) {
		sub.cancelOnce.Do(func() {
			sub.cancelled.Store(true)
			close(sub.done)
		})
		return sub
	}
	go sub.loop(ctx)
	return sub
}
