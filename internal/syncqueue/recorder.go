// Package syncqueue records every local mutation as a change record and pushes the
// pending records to a remote endpoint.
package syncqueue

import (
	"fmt"
	"time"

	"github.com/SscSPs/mma_local/internal/core/domain"
	portsrepo "github.com/SscSPs/mma_local/internal/core/ports/repositories"
	"github.com/SscSPs/mma_local/internal/store"
)

// Recorder turns the write log of a transaction into one change record.
type Recorder struct {
	now func() time.Time
}

// NewRecorder creates a recorder. A nil clock means time.Now.
func NewRecorder(now func() time.Time) *Recorder {
	if now == nil {
		now = time.Now
	}
	return &Recorder{now: now}
}

var _ portsrepo.ChangeRecorder = (*Recorder)(nil)

// Append stores the final state of every entity written so far by tx. A transaction
// that only touched internal tables records nothing.
func (r *Recorder) Append(tx *store.Tx, kind string) error {
	writes := tx.Writes()
	entities := make([]domain.EntityChange, 0, len(writes))
	for _, w := range writes {
		if domain.IsInternalTable(w.Table) {
			continue
		}
		change := domain.EntityChange{Table: w.Table, ID: w.Key, Op: domain.ChangeDelete}
		if w.Op == store.OpPut {
			raw, err := tx.Get(w.Table, w.Key)
			if err != nil {
				return fmt.Errorf("failed to read %s/%s for change record: %w", w.Table, w.Key, err)
			}
			if raw != nil {
				change.Op = domain.ChangePut
				change.Data = raw
			}
		}
		entities = append(entities, change)
	}
	if len(entities) == 0 {
		return nil
	}

	seq, err := tx.NextSequence(domain.TableChanges)
	if err != nil {
		return fmt.Errorf("failed to allocate change sequence: %w", err)
	}
	rec := domain.ChangeRecord{
		ID:        fmt.Sprintf("%016x", seq),
		Seq:       seq,
		Kind:      kind,
		Entities:  entities,
		Timestamp: r.now().UTC(),
	}
	if _, err := tx.Put(domain.TableChanges, rec); err != nil {
		return fmt.Errorf("failed to store change record: %w", err)
	}
	return nil
}
