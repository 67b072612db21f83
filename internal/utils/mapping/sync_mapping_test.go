package mapping

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSyncEntityMapping(t *testing.T) {
	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	put := domain.EntityChange{Table: domain.TableAccounts, ID: "a1", Op: domain.ChangePut, Data: json.RawMessage(`{"id":"a1"}`)}
	m := ToModelSyncEntity(put, at, "dev")
	assert.False(t, m.Deleted)
	assert.Equal(t, "dev", m.DeviceID)
	assert.Equal(t, put, ToDomainEntityChange(m))

	del := domain.EntityChange{Table: domain.TableAccounts, ID: "a1", Op: domain.ChangeDelete, Data: json.RawMessage(`{"stale":true}`)}
	m = ToModelSyncEntity(del, at, "dev")
	assert.True(t, m.Deleted)
	assert.Nil(t, m.Data)

	back := ToDomainEntityChangeSlice([]models.SyncEntity{m})
	assert.Equal(t, domain.ChangeDelete, back[0].Op)
	assert.Empty(t, back[0].Data)
}
