package mapping

import (
	"time"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/models"
)

// ToModelSyncEntity converts a pushed change to its server row.
func ToModelSyncEntity(c domain.EntityChange, changedAt time.Time, deviceID string) models.SyncEntity {
	m := models.SyncEntity{
		TableName: c.Table,
		EntityID:  c.ID,
		Deleted:   c.Op == domain.ChangeDelete,
		ChangedAt: changedAt,
		DeviceID:  deviceID,
	}
	if !m.Deleted {
		m.Data = c.Data
	}
	return m
}

// ToDomainEntityChange converts a server row back to a change.
func ToDomainEntityChange(m models.SyncEntity) domain.EntityChange {
	c := domain.EntityChange{
		Table: m.TableName,
		ID:    m.EntityID,
		Op:    domain.ChangePut,
		Data:  m.Data,
	}
	if m.Deleted {
		c.Op = domain.ChangeDelete
		c.Data = nil
	}
	return c
}

// ToDomainEntityChangeSlice converts a slice of server rows.
func ToDomainEntityChangeSlice(ms []models.SyncEntity) []domain.EntityChange {
	cs := make([]domain.EntityChange, len(ms))
	for i, m := range ms {
		cs[i] = ToDomainEntityChange(m)
	}
	return cs
}
