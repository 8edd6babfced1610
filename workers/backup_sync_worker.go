// workers/backup_sync_worker.go
package workers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"lytic-game-system/gameclient"
	"lytic-game-system/utils"
)

// PendingSyncer is satisfied by *gameclient.Syncer.
type PendingSyncer interface {
	SyncPending(ctx context.Context) (gameclient.SyncResult, error)
}

type BackupSyncWorkerConfig struct {
	StartupDelay  time.Duration
	ProbeInterval time.Duration
	RetryDelay    time.Duration
}

func DefaultBackupSyncWorkerConfig() BackupSyncWorkerConfig {
	return BackupSyncWorkerConfig{
		StartupDelay:  2 * time.Second,
		ProbeInterval: 10 * time.Second,
		RetryDelay:    30 * time.Second,
	}
}

// BackupSyncWorker triggers reconciliation syncs: once shortly after startup, whenever
// the backend comes back online, and after a failed save.
type BackupSyncWorker struct {
	syncer    PendingSyncer
	healthURL string
	client    *http.Client
	cfg       BackupSyncWorkerConfig

	sched  gocron.Scheduler
	ctx    context.Context
	online atomic.Bool
	mu     sync.Mutex
	last   gameclient.SyncResult
}

func NewBackupSyncWorker(syncer PendingSyncer, apiBaseURL string, client *http.Client, cfg BackupSyncWorkerConfig) (*BackupSyncWorker, error) {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	healthURL, err := url.JoinPath(strings.TrimRight(apiBaseURL, "/"), "/api/health")
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL '%s': %w", apiBaseURL, err)
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	w := &BackupSyncWorker{
		syncer:    syncer,
		healthURL: healthURL,
		client:    client,
		cfg:       cfg,
		sched:     sched,
		ctx:       context.Background(),
	}
	w.online.Store(true)
	return w, nil
}

func (w *BackupSyncWorker) Start(ctx context.Context) error {
	w.ctx = ctx
	utils.Log.Info("🔁 Starting Backup Sync Worker (local queue → /api/sync-backup-games)…")

	if _, err := w.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(time.Now().Add(w.cfg.StartupDelay))),
		gocron.NewTask(w.runSync, "startup"),
		gocron.WithName("backup-sync-startup"),
	); err != nil {
		return fmt.Errorf("failed to schedule startup sync: %w", err)
	}

	if w.cfg.ProbeInterval > 0 {
		if _, err := w.sched.NewJob(
			gocron.DurationJob(w.cfg.ProbeInterval),
			gocron.NewTask(w.checkConnectivity),
			gocron.WithName("backup-sync-probe"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			return fmt.Errorf("failed to schedule connectivity probe: %w", err)
		}
	}

	w.sched.Start()
	return nil
}

// ScheduleRetry runs one sync after the retry delay.
func (w *BackupSyncWorker) ScheduleRetry() {
	_, err := w.sched.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(time.Now().Add(w.cfg.RetryDelay))),
		gocron.NewTask(w.runSync, "retry"),
		gocron.WithName("backup-sync-retry"),
	)
	if err != nil {
		utils.Log.Warnw("[SYNC] ⚠️ Failed to schedule retry", "error", err)
	}
}

// Online reports the last probe result.
func (w *BackupSyncWorker) Online() bool { return w.online.Load() }

// LastResult is the outcome of the most recent successful sync.
func (w *BackupSyncWorker) LastResult() gameclient.SyncResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

// Probe checks /api/health.
func (w *BackupSyncWorker) Probe(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.healthURL, nil)
	if err != nil {
		return false
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return false
	}
	defer utils.DrainClose(resp)
	return utils.IsSuccess(resp.StatusCode)
}

func (w *BackupSyncWorker) checkConnectivity() {
	now := w.Probe(w.ctx)
	was := w.online.Swap(now)
	switch {
	case !was && now:
		utils.Log.Info("[SYNC] 🌐 Connection restored, syncing backups")
		w.runSync("online")
	case was && !now:
		utils.Log.Warn("[SYNC] 📴 Backend unreachable, games will be queued locally")
	}
}

func (w *BackupSyncWorker) runSync(trigger string) {
	if w.ctx.Err() != nil {
		return
	}
	res, err := w.syncer.SyncPending(w.ctx)
	if err != nil {
		if errors.Is(err, gameclient.ErrSyncFailed) {
			utils.Log.Warnw("[SYNC] ❌ Sync failed, will retry on next trigger", "trigger", trigger, "error", err)
		}
		return
	}
	w.mu.Lock()
	w.last = res
	w.mu.Unlock()
	if res.RequestedCount > 0 {
		utils.Log.Infow("[SYNC] ✅ Synced queued games", "trigger", trigger,
			"synced", res.SyncedCount, "requested", res.RequestedCount)
	}
}

func (w *BackupSyncWorker) Stop() error {
	if err := w.sched.Shutdown(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}
	utils.Log.Info("⏹️ Backup Sync Worker stopped")
	return nil
}
