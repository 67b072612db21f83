package pgsql

import (
	"testing"
	"time"

	"github.com/SscSPs/mma_local/internal/core/domain"
	portsrepo "github.com/SscSPs/mma_local/internal/core/ports/repositories"
	"github.com/SscSPs/mma_local/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestServerWins(t *testing.T) {
	at := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		server models.SyncEntity
		exists bool
		want   bool
	}{
		{"no server row", models.SyncEntity{}, false, false},
		{"server older", models.SyncEntity{ChangedAt: at.Add(-time.Minute)}, true, false},
		{"same instant goes to the client", models.SyncEntity{ChangedAt: at}, true, false},
		{"server newer", models.SyncEntity{ChangedAt: at.Add(time.Second)}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, serverWins(tt.server, tt.exists, at))
		})
	}
}

func TestChangeTime(t *testing.T) {
	sent := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	changed := sent.Add(-time.Hour)
	batch := portsrepo.SyncBatch{
		SentAt:     sent,
		Timestamps: map[string]time.Time{portsrepo.EntityKey(domain.TableLoans, "l1"): changed},
	}

	assert.Equal(t, changed, changeTime(batch, domain.EntityChange{Table: domain.TableLoans, ID: "l1"}))
	assert.Equal(t, sent, changeTime(batch, domain.EntityChange{Table: domain.TableLoans, ID: "l2"}))
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
}
