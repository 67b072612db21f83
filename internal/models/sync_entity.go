package models

import (
	"encoding/json"
	"time"
)

// SyncEntity is the server copy of one synced entity.
type SyncEntity struct {
	TableName string          `db:"table_name"`
	EntityID  string          `db:"entity_id"`
	Data      json.RawMessage `db:"data"` // NULL once deleted
	Deleted   bool            `db:"deleted"`
	ChangedAt time.Time       `db:"changed_at"`
	DeviceID  string          `db:"device_id"`
}

// SyncBatchLog records one accepted push.
type SyncBatchLog struct {
	ID          int64     `db:"id"`
	DeviceID    string    `db:"device_id"`
	FromSeq     int64     `db:"from_seq"`
	ToSeq       int64     `db:"to_seq"`
	EntityCount int       `db:"entity_count"`
	Conflicts   int       `db:"conflicts"`
	ReceivedAt  time.Time `db:"received_at"`
}
