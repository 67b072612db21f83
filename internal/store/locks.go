package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/mma_local/internal/apperrors"
)

// tableLocks hands out one semaphore per table. Transactions acquire them in sorted
// order, so two transactions can never wait on each other in a cycle.
type tableLocks struct {
	mu   sync.Mutex
	sems map[string]chan struct{}
}

func newTableLocks() *tableLocks {
	return &tableLocks{sems: make(map[string]chan struct{})}
}

func (l *tableLocks) sem(table string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sems[table]
	if !ok {
		s = make(chan struct{}, 1)
		l.sems[table] = s
	}
	return s
}

// acquire locks every table or none. A timeout is reported as ErrTransactionConflict.
func (l *tableLocks) acquire(ctx context.Context, tables []string, timeout time.Duration) (func(), error) {
	names := uniqueSorted(tables)
	held := make([]chan struct{}, 0, len(names))
	releaseHeld := func() {
		for i := len(held) - 1; i >= 0; i-- {
			<-held[i]
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for _, name := range names {
		s := l.sem(name)
		select {
		case s <- struct{}{}:
			held = append(held, s)
		case <-timer.C:
			releaseHeld()
			return nil, fmt.Errorf("%w: timed out waiting for table %q", apperrors.ErrTransactionConflict, name)
		case <-ctx.Done():
			releaseHeld()
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() { once.Do(releaseHeld) }, nil
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
