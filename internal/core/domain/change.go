package domain

import (
	"encoding/json"
	"time"
)

// ChangeOp is what happened to an entity.
type ChangeOp string

const (
	ChangePut    ChangeOp = "put"
	ChangeDelete ChangeOp = "delete"
)

// EntityChange is the final state of one entity written by an operation.
// Data is empty for deletes.
type EntityChange struct {
	Table string          `json:"table"`
	ID    string          `json:"id"`
	Op    ChangeOp        `json:"op"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ChangeRecord describes one local operation waiting to be pushed to the remote.
type ChangeRecord struct {
	ID        string         `json:"id"`
	Seq       uint64         `json:"seq"`
	Kind      string         `json:"kind"`
	Entities  []EntityChange `json:"entities"`
	Timestamp time.Time      `json:"timestamp"`
}

func (c ChangeRecord) RecordKey() string { return c.ID }

// SyncStateKey is the key of the single watermark row.
const SyncStateKey = "watermark"

// SyncState is the persisted sync watermark.
type SyncState struct {
	ID            string     `json:"id"`
	LastSyncedAt  *time.Time `json:"lastSyncedAt,omitempty"`
	LastSeq       uint64     `json:"lastSeq"`
	LastBatchSize int        `json:"lastBatchSize"`
}

func (s SyncState) RecordKey() string { return SyncStateKey }
