package live

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
)

// Subscription is a handle on one live query.
type Subscription struct {
	engine *Engine
	id     uint64
	step   func()

	dirty chan struct{}
	done  chan struct{}

	cancelOnce sync.Once
	cancelled  atomic.Bool
	running    atomic.Bool

	deliverMu  sync.Mutex
	delivering atomic.Bool

	depsMu sync.Mutex
	deps   map[string]bool
}

func newSubscription(e *Engine) *Subscription {
	return &Subscription{
		engine: e,
		dirty:  make(chan struct{}, 1),
		done:   make(chan struct{}),
		deps:   make(map[string]bool),
	}
}

// Cancel stops the subscription. Once Cancel returns no new delivery begins. It is
// idempotent and may be called from inside the delivery callback.
func (s *Subscription) Cancel() {
	s.cancelOnce.Do(func() {
		s.cancelled.Store(true)
		close(s.done)
		s.engine.remove(s.id)
	})
	// Wait out a worker that may be about to deliver, unless we are inside the callback.
	if !s.delivering.Load() {
		s.deliverMu.Lock()
		s.deliverMu.Unlock()
	}
}

// Done is closed when the subscription is cancelled.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Dependencies returns the tables the last run read, sorted.
func (s *Subscription) Dependencies() []string {
	s.depsMu.Lock()
	defer s.depsMu.Unlock()
	return sortedKeys(s.deps)
}

func (s *Subscription) loop(ctx context.Context) {
	s.runStep()
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			s.Cancel()
			return
		case <-s.dirty:
			if s.cancelled.Load() {
				return
			}
			s.runStep()
		}
	}
}

func (s *Subscription) runStep() {
	defer func() {
		if r := recover(); r != nil {
			s.engine.logger.Error("Live query panicked", slog.Uint64("subscription", s.id), slog.String("panic", fmt.Sprint(r)))
		}
	}()
	s.step()
}

func (s *Subscription) deliver(fn func()) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if s.cancelled.Load() {
		return
	}
	s.delivering.Store(true)
	defer s.delivering.Store(false)
	fn()
}

func (s *Subscription) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Subscription) dependsOn(tables []string) bool {
	s.depsMu.Lock()
	defer s.depsMu.Unlock()
	for _, t := range tables {
		if s.deps[t] {
			return true
		}
	}
	return false
}

func (s *Subscription) setDeps(tables map[string]bool) {
	s.depsMu.Lock()
	s.deps = tables
	if s.deps == nil {
		s.deps = make(map[string]bool)
	}
	s.depsMu.Unlock()
}

func (s *Subscription) mergeDeps(tables map[string]bool) {
	s.depsMu.Lock()
	for t := range tables {
		s.deps[t] = true
	}
	s.depsMu.Unlock()
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
