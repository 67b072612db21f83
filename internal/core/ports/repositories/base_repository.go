package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TransactionManager defines methods for transaction management on the remote database.
type TransactionManager interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Commit(ctx context.Context, tx pgx.Tx) error
	Rollback(ctx context.Context, tx pgx.Tx) error
}

// SyncRepository is a RemoteEndpoint backed directly by a database.
type SyncRepository interface {
	TransactionManager
	RemoteEndpoint
}
