package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/SscSPs/mma_local/internal/adapters/remote/noop"
	"github.com/SscSPs/mma_local/internal/core/domain"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/platform/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		DataPath:             filepath.Join(dir, "data", "mma.db"),
		LockTimeout:          time.Second,
		RetryBound:           3,
		DeletePolicy:         "orphan",
		NotificationLeadDays: 3,
		DeadlineScanInterval: time.Hour,
		SyncInterval:         time.Hour,
		DeviceID:             "test-device",
		BackupDir:            filepath.Join(dir, "backups"),
	}
}

func TestNewWiresTheDataLayer(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, err := New(ctx, cfg, nil, Options{})
	require.NoError(t, err)
	defer a.Close()

	acc, err := a.Services.Account.AddAccount(ctx, dto.CreateAccountRequest{
		Name: "Wallet", Type: domain.Wallet, Currency: "INR", OpeningBalance: decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, acc.ID)

	status, err := a.Sync.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.PendingCount)

	report, err := a.Sync.ManualSyncNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Records)

	status, err = a.Sync.Status(ctx)
	require.NoError(t, err)
	assert.Zero(t, status.PendingCount)
	assert.NotNil(t, status.LastSyncedAt)

	require.Contains(t, a.Sinks, SinkFile)
	assert.NotContains(t, a.Sinks, SinkGCS)
	name, err := a.Snapshots.Backup(ctx, a.Sinks[SinkFile], "")
	require.NoError(t, err)
	assert.NotEmpty(t, name)
}

func TestEncryptedFieldsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.EncryptionPassphrase = "correct horse"
	cfg.EncryptedFields = map[string][]string{domain.TableFriends: {"phone"}}

	a, err := New(ctx, cfg, nil, Options{Remote: noop.Remote{}})
	require.NoError(t, err)
	f, err := a.Services.Friend.AddFriend(ctx, dto.CreateFriendRequest{Name: "Asha", Phone: "98450"})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	a, err = New(ctx, cfg, nil, Options{Remote: noop.Remote{}})
	require.NoError(t, err)
	defer a.Close()
	friends, err := a.Services.Friend.ListFriends(ctx)
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, f.ID, friends[0].ID)
	assert.Equal(t, "98450", friends[0].Phone)

	require.NoError(t, a.Close())

	cfg.EncryptionPassphrase = "wrong"
	a, err = New(ctx, cfg, nil, Options{Remote: noop.Remote{}})
	require.NoError(t, err)
	defer a.Close()
	_, err = a.Services.Friend.ListFriends(ctx)
	assert.Error(t, err)
}

func TestStartRunsDeadlineScan(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	a, err := New(ctx, cfg, nil, Options{Now: func() time.Time { return now }})
	require.NoError(t, err)
	defer a.Close()

	due := now.Add(24 * time.Hour)
	_, err = a.Services.Loan.AddLoan(ctx, dto.CreateLoanRequest{
		Type: domain.Borrowed, Name: "Bike", PrincipalAmount: decimal.NewFromInt(500), DueDate: &due,
	})
	require.NoError(t, err)

	a.Start(ctx)
	assert.Eventually(t, func() bool {
		list, err := a.Services.Notification.ListNotifications(ctx, true)
		return err == nil && len(list) == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.NoError(t, a.Close())
	assert.NoError(t, a.Close())
}
