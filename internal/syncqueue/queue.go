package syncqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SscSPs/mma_local/internal/apperrors"
	"github.com/SscSPs/mma_local/internal/core/domain"
	portsrepo "github.com/SscSPs/mma_local/internal/core/ports/repositories"
	"github.com/SscSPs/mma_local/internal/store"
)

const defaultInterval = 30 * time.Second

// Status is what the UI shows about synchronisation.
type Status struct {
	PendingCount int        `json:"pendingCount"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
	IsOnline     bool       `json:"isOnline"`
	InFlight     bool       `json:"inFlight"`
	LastError    string     `json:"lastError,omitempty"`
}

// Report describes one drain.
type Report struct {
	Records   int `json:"records"`
	Entities  int `json:"entities"`
	Accepted  int `json:"accepted"`
	Conflicts int `json:"conflicts"`
}

// Option configures a Queue.
type Option func(*Queue)

// WithInterval sets the periodic drain interval.
func WithInterval(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.interval = d
		}
	}
}

// WithDeviceID names this device in pushed batches.
func WithDeviceID(id string) Option {
	return func(q *Queue) {
		q.deviceID = id
	}
}

// WithLogger sets the queue logger.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		if l != nil {
			q.logger = l
		}
	}
}

// WithOnline sets the initial connectivity state. The default is online.
func WithOnline(online bool) Option {
	return func(q *Queue) {
		q.online.Store(online)
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) {
		if now != nil {
			q.now = now
		}
	}
}

// Queue drains pending change records into a remote endpoint. At most one drain runs
// at a time, whether it was started by the ticker, an online transition or a manual sync.
type Queue struct {
	store    *store.Store
	remote   portsrepo.RemoteEndpoint
	deviceID string
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	online   atomic.Bool
	inFlight atomic.Bool
	kick     chan struct{}

	mu      sync.Mutex
	lastErr error
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a stopped queue.
func New(st *store.Store, remote portsrepo.RemoteEndpoint, opts ...Option) *Queue {
	q := &Queue{
		store:    st,
		remote:   remote,
		interval: defaultInterval,
		logger:   slog.Default(),
		now:      time.Now,
		kick:     make(chan struct{}, 1),
	}
	q.online.Store(true)
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Start runs the periodic drain until ctx is done or Stop is called.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.cancel != nil {
		q.mu.Unlock()
		return
	}
	ctx, q.cancel = context.WithCancel(ctx)
	q.mu.Unlock()

	q.wg.Add(1)
	go q.run(ctx)
	q.logger.Info("Sync queue started", slog.Duration("interval", q.interval))
}

// Stop ends the periodic drain and waits for a running drain to return.
func (q *Queue) Stop() {
	q.mu.Lock()
	cancel := q.cancel
	q.cancel = nil
	q.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	q.wg.Wait()
	q.logger.Info("Sync queue stopped")
}

func (q *Queue) run(ctx context.Context) {
	defer q.wg.Done()
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if q.online.Load() {
				q.tick(ctx)
			}
		case <-q.kick:
			q.tick(ctx)
		}
	}
}

func (q *Queue) tick(ctx context.Context) {
	if _, err := q.drain(ctx); err != nil && !errors.Is(err, apperrors.ErrSyncInFlight) {
		q.logger.Debug("Background sync failed, will retry", slog.String("error", err.Error()))
	}
}

// SetOnline records connectivity. Going from offline to online drains immediately.
func (q *Queue) SetOnline(online bool) {
	prev := q.online.Swap(online)
	if online && !prev {
		q.logger.Info("Device back online, syncing")
		select {
		case q.kick <- struct{}{}:
		default:
		}
	}
}

// ManualSyncNow drains right away. It fails with ErrSyncInFlight when a drain is running.
func (q *Queue) ManualSyncNow(ctx context.Context) (Report, error) {
	return q.drain(ctx)
}

// Status reads the pending count and watermark.
func (q *Queue) Status(ctx context.Context) (Status, error) {
	st := Status{IsOnline: q.online.Load(), InFlight: q.inFlight.Load()}
	q.mu.Lock()
	if q.lastErr != nil {
		st.LastError = q.lastErr.Error()
	}
	q.mu.Unlock()

	err := q.store.View(ctx, func(r store.Reader) error {
		n, err := r.Count(domain.TableChanges)
		if err != nil {
			return err
		}
		st.PendingCount = n
		state, _, err := store.GetAs[domain.SyncState](r, domain.TableSyncState, domain.SyncStateKey)
		st.LastSyncedAt = state.LastSyncedAt
		return err
	})
	return st, err
}

func (q *Queue) setLastErr(err error) {
	q.mu.Lock()
	q.lastErr = err
	q.mu.Unlock()
}

func (q *Queue) drain(ctx context.Context) (Report, error) {
	if !q.inFlight.CompareAndSwap(false, true) {
		return Report{}, apperrors.ErrSyncInFlight
	}
	defer q.inFlight.Store(false)

	var (
		records []domain.ChangeRecord
		state   domain.SyncState
	)
	err := q.store.View(ctx, func(r store.Reader) error {
		var err error
		state, _, err = store.GetAs[domain.SyncState](r, domain.TableSyncState, domain.SyncStateKey)
		if err != nil {
			return err
		}
		all, err := store.GetAllAs[domain.ChangeRecord](r, domain.TableChanges)
		if err != nil {
			return err
		}
		for _, rec := range all {
			if rec.Seq > state.LastSeq {
				records = append(records, rec)
			}
		}
		return nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("failed to read pending changes: %w", err)
	}
	if len(records) == 0 {
		q.setLastErr(nil)
		return Report{}, nil
	}

	batch := coalesce(records, q.deviceID, q.now())
	report := Report{Records: len(records), Entities: len(batch.Changes)}

	result, err := q.remote.Push(ctx, batch)
	if err != nil {
		q.setLastErr(err)
		q.logger.Warn("Sync push failed",
			slog.String("error", err.Error()),
			slog.Int("pending", len(records)))
		return report, err
	}
	if result == nil {
		result = &portsrepo.SyncResult{Accepted: len(batch.Changes)}
	}
	report.Accepted = result.Accepted
	report.Conflicts = len(result.Conflicts)

	if err := q.commit(ctx, records, state, result.Conflicts); err != nil {
		q.setLastErr(err)
		q.logger.Error("Failed to advance sync watermark", slog.String("error", err.Error()))
		return report, err
	}
	q.setLastErr(nil)

	q.logger.Info("Sync completed",
		slog.Int("records", report.Records),
		slog.Int("entities", report.Entities),
		slog.Int("conflicts", report.Conflicts))
	return report, nil
}

// commit removes the sent records, advances the watermark and applies the server's
// winners. Winners are written without a change record.
func (q *Queue) commit(ctx context.Context, sent []domain.ChangeRecord, state domain.SyncState, conflicts []domain.EntityChange) error {
	reg := q.store.Registry()
	tables := []string{domain.TableChanges, domain.TableSyncState}
	applicable := make([]domain.EntityChange, 0, len(conflicts))
	seen := map[string]bool{}
	for _, c := range conflicts {
		if domain.IsInternalTable(c.Table) || !reg.HasTable(c.Table) || c.ID == "" {
			q.logger.Warn("Ignoring conflict for unknown entity", slog.String("table", c.Table), slog.String("id", c.ID))
			continue
		}
		applicable = append(applicable, c)
		if !seen[c.Table] {
			seen[c.Table] = true
			tables = append(tables, c.Table)
		}
	}

	return q.store.Transact(ctx, tables, func(_ context.Context, tx *store.Tx) error {
		latest := state.LastSyncedAt
		for _, rec := range sent {
			if err := tx.Delete(domain.TableChanges, rec.ID); err != nil {
				return err
			}
			if rec.Seq > state.LastSeq {
				state.LastSeq = rec.Seq
			}
			if latest == nil || rec.Timestamp.After(*latest) {
				ts := rec.Timestamp
				latest = &ts
			}
		}
		state.ID = domain.SyncStateKey
		state.LastSyncedAt = latest
		state.LastBatchSize = len(sent)
		if _, err := tx.Put(domain.TableSyncState, state); err != nil {
			return err
		}

		for _, c := range applicable {
			if c.Op == domain.ChangeDelete || len(c.Data) == 0 {
				if err := tx.Delete(c.Table, c.ID); err != nil {
					return err
				}
				continue
			}
			if err := tx.PutRaw(c.Table, c.ID, c.Data); err != nil {
				return fmt.Errorf("failed to apply server state for %s/%s: %w", c.Table, c.ID, err)
			}
		}
		return nil
	})
}

// coalesce keeps the latest state of every (table, id) across the records, in order
// of first appearance.
func coalesce(records []domain.ChangeRecord, deviceID string, now time.Time) portsrepo.SyncBatch {
	batch := portsrepo.SyncBatch{
		DeviceID:   deviceID,
		SentAt:     now.UTC(),
		FromSeq:    records[0].Seq,
		ToSeq:      records[len(records)-1].Seq,
		Timestamps: map[string]time.Time{},
	}
	pos := map[string]int{}
	for _, rec := range records {
		for _, e := range rec.Entities {
			key := portsrepo.EntityKey(e.Table, e.ID)
			if i, ok := pos[key]; ok {
				batch.Changes[i] = e
			} else {
				pos[key] = len(batch.Changes)
				batch.Changes = append(batch.Changes, e)
			}
			batch.Timestamps[key] = rec.Timestamp
		}
	}
	return batch
}
