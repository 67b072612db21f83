// Package app builds the long-lived components of the local data layer from config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/SscSPs/mma_local/internal/adapters/backup"
	"github.com/SscSPs/mma_local/internal/adapters/database/pgsql"
	"github.com/SscSPs/mma_local/internal/adapters/remote/httpremote"
	"github.com/SscSPs/mma_local/internal/adapters/remote/noop"
	portsrepo "github.com/SscSPs/mma_local/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/mma_local/internal/core/ports/services"
	"github.com/SscSPs/mma_local/internal/core/services"
	"github.com/SscSPs/mma_local/internal/live"
	"github.com/SscSPs/mma_local/internal/platform/config"
	"github.com/SscSPs/mma_local/internal/platform/fieldcrypt"
	"github.com/SscSPs/mma_local/internal/schema"
	"github.com/SscSPs/mma_local/internal/snapshot"
	"github.com/SscSPs/mma_local/internal/store"
	"github.com/SscSPs/mma_local/internal/syncqueue"
	"github.com/SscSPs/mma_local/pkg/database"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Sink names accepted by backup requests.
const (
	SinkFile = "file"
	SinkGCS  = "gcs"
)

// Options are the parts of the wiring that are not plain configuration.
type Options struct {
	// Migrations defaults to schema.Migrations().
	Migrations []store.Migration
	// Remote overrides the endpoint chosen from config.
	Remote portsrepo.RemoteEndpoint
	// Now defaults to time.Now.
	Now func() time.Time
}

// App owns every long-lived component. Close releases them in reverse order.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Store     *store.Store
	Live      *live.Engine
	Services  *portssvc.ServiceContainer
	Sync      *syncqueue.Queue
	Snapshots *snapshot.Service
	Sinks     map[string]portsrepo.BackupSink

	now     func() time.Time
	pool    *pgxpool.Pool
	gcs     *backup.GCSSink
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closeMu sync.Once
}

// New opens the store, applies migrations and builds the rest of the graph. Nothing
// runs in the background until Start.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (_ *App, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Migrations == nil {
		opts.Migrations = schema.Migrations()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	a := &App{Config: cfg, Logger: logger, now: opts.Now, Sinks: map[string]portsrepo.BackupSink{}}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if dir := filepath.Dir(cfg.DataPath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	storeOpts := []store.Option{store.WithLockTimeout(cfg.LockTimeout), store.WithLogger(logger)}
	if len(cfg.EncryptedFields) > 0 {
		storeOpts = append(storeOpts, store.WithFieldFilter(fieldcrypt.Factory(cfg.EncryptionPassphrase), cfg.EncryptedFields))
	}
	if a.Store, err = store.Open(cfg.DataPath, opts.Migrations, storeOpts...); err != nil {
		return nil, err
	}

	a.Live = live.NewEngine(a.Store, live.WithLogger(logger))

	recorder := syncqueue.NewRecorder(opts.Now)
	a.Services = services.NewServiceContainer(a.Store,
		services.WithChangeRecorder(recorder),
		services.WithRetryBound(cfg.RetryBound),
		services.WithDeletePolicy(services.DeletePolicy(cfg.DeletePolicy)),
		services.WithNotificationLeadDays(cfg.NotificationLeadDays),
		services.WithClock(opts.Now),
	)

	remote := opts.Remote
	if remote == nil {
		if remote, err = a.buildRemote(ctx); err != nil {
			return nil, err
		}
	}
	a.Sync = syncqueue.New(a.Store, remote,
		syncqueue.WithInterval(cfg.SyncInterval),
		syncqueue.WithDeviceID(cfg.DeviceID),
		syncqueue.WithLogger(logger),
		syncqueue.WithClock(opts.Now),
	)

	a.Snapshots = snapshot.NewService(a.Store, snapshot.WithClock(opts.Now), snapshot.WithLogger(logger))
	if err := a.buildSinks(ctx); err != nil {
		return nil, err
	}

	logger.Info("Local data layer ready",
		slog.String("data_path", cfg.DataPath),
		slog.Uint64("schema_version", uint64(a.Store.Registry().Version())),
		slog.String("remote", fmt.Sprintf("%T", remote)))
	return a, nil
}

// buildRemote prefers a directly reachable sync database, then an HTTP endpoint.
func (a *App) buildRemote(ctx context.Context) (portsrepo.RemoteEndpoint, error) {
	cfg := a.Config
	switch {
	case cfg.RemoteDatabaseURL != "":
		if err := pgsql.RunMigrations(cfg.RemoteDatabaseURL, a.Logger); err != nil {
			return nil, err
		}
		pool, err := database.NewPgxPool(ctx, cfg.RemoteDatabaseURL, cfg.RemoteDBMaxConns, a.Logger)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		return pgsql.NewSyncRepository(pool, a.Logger), nil

	case cfg.SyncEndpointURL != "":
		clientOpts := []httpremote.Option{httpremote.WithLogger(a.Logger)}
		var hc *http.Client
		switch {
		case cfg.GoogleAudience != "":
			c, err := httpremote.GoogleIDTokenHTTPClient(ctx, cfg.GoogleAudience, cfg.GoogleCredentialsFile)
			if err != nil {
				return nil, err
			}
			hc = c
		case cfg.OAuthClientID != "":
			hc = httpremote.ClientCredentialsHTTPClient(ctx, cfg.OAuthClientID, cfg.OAuthClientSecret, cfg.OAuthTokenURL, cfg.OAuthScopes)
		}
		clientOpts = append(clientOpts, httpremote.WithHTTPClient(hc))
		if cfg.DeviceSecret != "" {
			clientOpts = append(clientOpts, httpremote.WithDeviceToken(httpremote.DeviceToken{
				DeviceID: cfg.DeviceID,
				Secret:   cfg.DeviceSecret,
				Issuer:   cfg.JWTIssuer,
			}))
		}
		return httpremote.NewClient(cfg.SyncEndpointURL, clientOpts...)

	default:
		a.Logger.Warn("No sync endpoint configured, changes are acknowledged locally")
		return noop.Remote{}, nil
	}
}

func (a *App) buildSinks(ctx context.Context) error {
	fileSink, err := backup.NewFileSink(a.Config.BackupDir)
	if err != nil {
		return err
	}
	a.Sinks[SinkFile] = fileSink

	if a.Config.BackupGCSBucket != "" {
		gcs, err := backup.NewGCSSink(ctx, a.Config.BackupGCSBucket, a.Config.BackupGCSPrefix, a.Config.GoogleCredentialsFile)
		if err != nil {
			return err
		}
		a.gcs = gcs
		a.Sinks[SinkGCS] = gcs
	}
	return nil
}

// Start runs the sync queue and the periodic deadline scan until ctx ends or Close.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.Sync.Start(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.scanDeadlines(ctx)
		ticker := time.NewTicker(a.Config.DeadlineScanInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.scanDeadlines(ctx)
			}
		}
	}()
}

func (a *App) scanDeadlines(ctx context.Context) {
	n, err := a.Services.Notification.ScanDeadlines(ctx, a.now())
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			a.Logger.Error("Deadline scan failed", slog.String("error", err.Error()))
		}
		return
	}
	if n > 0 {
		a.Logger.Info("Deadline scan updated reminders", slog.Int("changed", n))
	}
}

// Close stops background work, cancels live queries and closes the store.
func (a *App) Close() error {
	var err error
	a.closeMu.Do(func() {
		if a.cancel != nil {
			a.cancel()
		}
		if a.Sync != nil {
			a.Sync.Stop()
		}
		a.wg.Wait()
		if a.Live != nil {
			a.Live.Close()
		}
		if a.gcs != nil {
			err = errors.Join(err, a.gcs.Close())
		}
		if a.pool != nil {
			database.ClosePgxPool(a.pool, a.Logger)
		}
		if a.Store != nil {
			err = errors.Join(err, a.Store.Close())
		}
	})
	return err
}
