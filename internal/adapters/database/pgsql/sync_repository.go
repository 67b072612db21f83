package pgsql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/SscSPs/mma_local/internal/apperrors"
	"github.com/SscSPs/mma_local/internal/core/domain"
	portsrepo "github.com/SscSPs/mma_local/internal/core/ports/repositories"
	"github.com/SscSPs/mma_local/internal/models"
	"github.com/SscSPs/mma_local/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	selectEntityForUpdate = `SELECT table_name, entity_id, data, deleted, changed_at, device_id
		FROM sync_entities WHERE table_name = $1 AND entity_id = $2 FOR UPDATE`
	upsertEntity = `INSERT INTO sync_entities (table_name, entity_id, data, deleted, changed_at, device_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (table_name, entity_id) DO UPDATE SET
			data = EXCLUDED.data, deleted = EXCLUDED.deleted,
			changed_at = EXCLUDED.changed_at, device_id = EXCLUDED.device_id`
	insertBatchLog = `INSERT INTO sync_batches (device_id, from_seq, to_seq, entity_count, conflicts)
		VALUES ($1, $2, $3, $4, $5)`
)

// PgxSyncRepository reconciles pushed batches straight into Postgres.
type PgxSyncRepository struct {
	BaseRepository
	logger *slog.Logger
}

// NewSyncRepository creates a database-backed remote endpoint.
func NewSyncRepository(pool *pgxpool.Pool, logger *slog.Logger) portsrepo.SyncRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PgxSyncRepository{BaseRepository: BaseRepository{Pool: pool}, logger: logger}
}

var _ portsrepo.SyncRepository = (*PgxSyncRepository)(nil)

// Push locks every entity of the batch, keeps the newer side of each and returns the
// server rows that won as conflicts.
func (r *PgxSyncRepository) Push(ctx context.Context, batch portsrepo.SyncBatch) (result *portsrepo.SyncResult, err error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			if rbErr := r.Rollback(ctx, tx); rbErr != nil {
				r.logger.Error("Failed to rollback sync batch", slog.String("error", rbErr.Error()))
			}
		}
	}()

	current, err := r.lockEntities(ctx, tx, batch.Changes)
	if err != nil {
		return nil, err
	}

	result = &portsrepo.SyncResult{}
	writes := &pgx.Batch{}
	for _, change := range batch.Changes {
		changedAt := changeTime(batch, change)
		server, exists := current[portsrepo.EntityKey(change.Table, change.ID)]
		if serverWins(server, exists, changedAt) {
			result.Conflicts = append(result.Conflicts, mapping.ToDomainEntityChange(server))
			continue
		}
		m := mapping.ToModelSyncEntity(change, changedAt, batch.DeviceID)
		var data any
		if m.Data != nil {
			data = []byte(m.Data)
		}
		writes.Queue(upsertEntity, m.TableName, m.EntityID, data, m.Deleted, m.ChangedAt, m.DeviceID)
		result.Accepted++
	}
	writes.Queue(insertBatchLog, batch.DeviceID, int64(batch.FromSeq), int64(batch.ToSeq), len(batch.Changes), len(result.Conflicts))

	if err = tx.SendBatch(ctx, writes).Close(); err != nil {
		return nil, apperrors.NewAppError(http.StatusInternalServerError, "failed to write sync batch", err)
	}
	if err = r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	r.logger.Info("Sync batch reconciled",
		slog.String("device_id", batch.DeviceID),
		slog.Int("accepted", result.Accepted),
		slog.Int("conflicts", len(result.Conflicts)))
	return result, nil
}

// lockEntities selects the current server rows of the batch FOR UPDATE in one round trip.
func (r *PgxSyncRepository) lockEntities(ctx context.Context, tx pgx.Tx, changes []domain.EntityChange) (map[string]models.SyncEntity, error) {
	current := make(map[string]models.SyncEntity, len(changes))
	if len(changes) == 0 {
		return current, nil
	}

	selects := &pgx.Batch{}
	for _, c := range changes {
		selects.Queue(selectEntityForUpdate, c.Table, c.ID)
	}
	results := tx.SendBatch(ctx, selects)
	defer results.Close()

	for range changes {
		var m models.SyncEntity
		var data []byte
		err := results.QueryRow().Scan(&m.TableName, &m.EntityID, &data, &m.Deleted, &m.ChangedAt, &m.DeviceID)
		if errors.Is(err, pgx.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to lock sync entity: %w", err)
		}
		m.Data = data
		current[portsrepo.EntityKey(m.TableName, m.EntityID)] = m
	}
	return current, nil
}

func changeTime(batch portsrepo.SyncBatch, c domain.EntityChange) time.Time {
	if ts, ok := batch.Timestamps[portsrepo.EntityKey(c.Table, c.ID)]; ok {
		return ts
	}
	return batch.SentAt
}

// serverWins is last-write-wins: a strictly newer server row beats the local change.
func serverWins(server models.SyncEntity, exists bool, changedAt time.Time) bool {
	return exists && server.ChangedAt.After(changedAt)
}
