package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"fieldsync/internal/alerts"
	"fieldsync/internal/config"
	"fieldsync/internal/engine"
	"fieldsync/internal/logging"
	"fieldsync/internal/network"
	"fieldsync/internal/queue"
)

// Daemon coordinates the background sync services and enforces
// single-instance execution per data directory.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *queue.Store
	engine  *engine.Engine
	monitor *network.Monitor

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Sync         engine.Status
	QueueDBPath  string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, eng *engine.Engine, monitor *network.Monitor, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || eng == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, engine, and logger")
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		engine:   eng,
		monitor:  monitor,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the sync engine and network
// monitor.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another fieldsync daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.engine.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start sync engine: %w", err)
	}
	if d.monitor != nil {
		if err := d.monitor.Start(d.ctx); err != nil {
			d.engine.Stop()
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return fmt.Errorf("start network monitor: %w", err)
		}
	}

	d.running.Store(true)
	d.logger.Info("fieldsync daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.monitor != nil {
		d.monitor.Stop()
	}
	d.engine.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("fieldsync daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// ListQueue returns queue items filtered by optional statuses, in drain
// order.
func (d *Daemon) ListQueue(ctx context.Context, statuses []queue.Status) ([]*queue.Item, error) {
	items, err := d.engine.Items(ctx)
	if err != nil {
		return nil, err
	}
	if len(statuses) == 0 {
		return items, nil
	}

	wanted := make(map[queue.Status]struct{}, len(statuses))
	for _, status := range statuses {
		wanted[status] = struct{}{}
	}
	filtered := items[:0]
	for _, item := range items {
		if _, ok := wanted[item.Status]; ok {
			filtered = append(filtered, item)
		}
	}
	return filtered, nil
}

// Enqueue adds a new record to the durable queue.
func (d *Daemon) Enqueue(ctx context.Context, entityType queue.EntityType, entityID string, payload queue.Payload, priority queue.Priority) (*queue.Item, error) {
	item := queue.NewItem(entityType, entityID, payload, priority)
	if err := d.engine.Enqueue(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ClearQueue removes all queue items.
func (d *Daemon) ClearQueue(ctx context.Context) error {
	return d.engine.ClearQueue(ctx)
}

// ForceSync drains the queue immediately, including retry-exhausted items.
func (d *Daemon) ForceSync(ctx context.Context) (engine.DrainResult, error) {
	return d.engine.ForceSync(ctx)
}

// DatabaseHealth returns detailed queue database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (queue.DatabaseHealth, error) {
	if d.store == nil {
		return queue.DatabaseHealth{}, errors.New("queue store unavailable")
	}
	return d.store.CheckHealth(ctx)
}

// TestAlert triggers a test alert using the current configuration.
func (d *Daemon) TestAlert(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Alerts.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	alerter := alerts.NewService(d.cfg)
	if err := alerter.TestAlert(ctx); err != nil {
		return false, "failed to send alert", err
	}
	return true, "test alert sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	syncStatus, err := d.engine.Status(ctx)
	if err != nil {
		d.logger.Warn("status read failed", logging.Error(err))
	}
	return Status{
		Running:      d.running.Load(),
		Sync:         syncStatus,
		QueueDBPath:  d.cfg.QueueDBPath(),
		LockFilePath: d.lockPath,
	}
}
