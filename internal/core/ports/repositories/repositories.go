package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/store"
)

// ChangeRecorder appends the change record of an operation inside its transaction.
type ChangeRecorder interface {
	Append(tx *store.Tx, kind string) error
}

// SyncBatch is one push of pending local changes.
type SyncBatch struct {
	DeviceID string                `json:"deviceId"`
	SentAt   time.Time             `json:"sentAt"`
	FromSeq  uint64                `json:"fromSeq"`
	ToSeq    uint64                `json:"toSeq"`
	Changes  []domain.EntityChange `json:"changes"`
	// Timestamps holds, per "table/id", the time of the local change being pushed.
	Timestamps map[string]time.Time `json:"timestamps"`
}

// SyncResult is the remote's answer to a batch. Conflicts carry the authoritative
// server state of entities whose local change lost.
type SyncResult struct {
	Accepted  int                   `json:"accepted"`
	Conflicts []domain.EntityChange `json:"conflicts,omitempty"`
}

// RemoteEndpoint reconciles local changes with a remote copy.
type RemoteEndpoint interface {
	Push(ctx context.Context, batch SyncBatch) (*SyncResult, error)
}

// BackupSink stores snapshot blobs under a name.
type BackupSink interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
}

// EntityKey is the key used in SyncBatch.Timestamps.
func EntityKey(table, id string) string {
	return table + "/" + id
}
