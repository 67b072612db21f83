// Package noop is the remote used when no sync endpoint is configured.
package noop

import (
	"context"

	portsrepo "github.com/SscSPs/mma_local/internal/core/ports/repositories"
)

// Remote accepts every batch and never reports conflicts.
type Remote struct{}

var _ portsrepo.RemoteEndpoint = Remote{}

func (Remote) Push(_ context.Context, batch portsrepo.SyncBatch) (*portsrepo.SyncResult, error) {
	return &portsrepo.SyncResult{Accepted: len(batch.Changes)}, nil
}
