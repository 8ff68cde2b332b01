package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"fieldsync/internal/adapters"
	"fieldsync/internal/alerts"
	"fieldsync/internal/config"
	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
)

// ErrOffline is returned when a forced sync is requested without
// connectivity.
var ErrOffline = errors.New("backend unreachable")

// Connectivity reports whether the backend is currently reachable. The
// network monitor satisfies it; tests substitute a scripted source.
type Connectivity interface {
	Online() bool
}

// Engine drains the durable queue against the backend. Drains are
// single-flight: the periodic timer, the connectivity-restored edge, and
// manual force requests all funnel into one drain pass at a time, and
// triggers arriving mid-pass are dropped rather than queued.
type Engine struct {
	cfg      *config.Config
	store    *queue.Store
	registry adapters.Registry
	alerter  alerts.Service
	network  Connectivity
	logger   *slog.Logger

	maxRetries    int
	commitTimeout time.Duration
	drainInterval time.Duration

	mu              sync.Mutex
	draining        bool
	lastSync        time.Time
	backlogAlerted  bool
	offlineObserved bool

	// queueMu serializes every load/modify/save cycle on the store. The
	// persisted queue is whole-list state; without this an enqueue racing a
	// drain's save would be overwritten by the drain's stale snapshot.
	queueMu sync.Mutex

	lifecycleMu sync.Mutex
	running     bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// New assembles a sync engine over the given store and adapter registry.
// The connectivity source may be nil, in which case the engine assumes the
// backend is reachable.
func New(cfg *config.Config, store *queue.Store, registry adapters.Registry, alerter alerts.Service, network Connectivity, logger *slog.Logger) *Engine {
	if alerter == nil {
		alerter = alerts.NewService(cfg)
	}

	maxRetries := cfg.Sync.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	commitTimeout := time.Duration(cfg.Sync.CommitTimeout) * time.Second
	if commitTimeout <= 0 {
		commitTimeout = 20 * time.Second
	}
	drainInterval := time.Duration(cfg.Sync.DrainInterval) * time.Second
	if drainInterval <= 0 {
		drainInterval = 30 * time.Second
	}

	return &Engine{
		cfg:           cfg,
		store:         store,
		registry:      registry,
		alerter:       alerter,
		network:       network,
		logger:        logging.NewComponentLogger(logger, "sync-engine"),
		maxRetries:    maxRetries,
		commitTimeout: commitTimeout,
		drainInterval: drainInterval,
	}
}

// Start launches the periodic drain loop.
func (e *Engine) Start(ctx context.Context) error {
	e.lifecycleMu.Lock()
	defer e.lifecycleMu.Unlock()

	if e.running {
		return errors.New("sync engine already running")
	}

	if err := e.recoverInterrupted(ctx); err != nil {
		e.logger.Warn("startup queue recovery failed",
			logging.String(logging.FieldEventType, "queue_recovery_failed"),
			logging.Error(err),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running = true

	e.wg.Add(1)
	go e.run(runCtx)

	e.logger.Info("sync engine started",
		logging.String(logging.FieldEventType, "engine_started"),
		logging.Duration("drain_interval", e.drainInterval),
		logging.Int("max_retries", e.maxRetries),
	)
	return nil
}

// Stop halts the drain loop and waits for an in-flight pass to finish.
func (e *Engine) Stop() {
	e.lifecycleMu.Lock()
	if !e.running {
		e.lifecycleMu.Unlock()
		return
	}
	e.cancel()
	e.cancel = nil
	e.running = false
	e.lifecycleMu.Unlock()

	e.wg.Wait()
	e.logger.Info("sync engine stopped",
		logging.String(logging.FieldEventType, "engine_stopped"),
	)
}

func (e *Engine) run(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.drainInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !e.online() {
				e.noteOffline(ctx)
				continue
			}
			if _, err := e.Drain(ctx, false); err != nil && !errors.Is(err, context.Canceled) {
				e.logger.Error("periodic drain failed",
					logging.String(logging.FieldEventType, "drain_error"),
					logging.Error(err),
				)
			}
			e.checkBacklog(ctx)
		}
	}
}

// Enqueue appends an item to the durable queue. When the backend is
// reachable an immediate drain is kicked off in the background so online
// operation stays near-realtime.
func (e *Engine) Enqueue(ctx context.Context, item *queue.Item) error {
	if item == nil {
		return errors.New("enqueue: nil item")
	}
	if _, ok := e.registry.For(item.EntityType); !ok {
		return errors.New("enqueue: no adapter for entity type " + string(item.EntityType))
	}

	e.queueMu.Lock()
	items, err := e.store.Load(ctx)
	if err != nil {
		e.queueMu.Unlock()
		return err
	}
	items = append(items, item)
	queue.Sort(items)
	err = e.store.Save(ctx, items)
	e.queueMu.Unlock()
	if err != nil {
		return err
	}

	e.logger.Info("item queued",
		logging.String(logging.FieldEventType, "item_queued"),
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldEntityType, string(item.EntityType)),
		logging.Int(logging.FieldPriority, int(item.Priority)),
	)

	if e.online() {
		go func() {
			if _, err := e.Drain(context.WithoutCancel(ctx), false); err != nil {
				e.logger.Warn("opportunistic drain failed",
					logging.String(logging.FieldEventType, "drain_error"),
					logging.Error(err),
				)
			}
		}()
	}
	return nil
}

// ForceSync runs a drain immediately and synchronously. Unlike automatic
// drains it also retries items whose automatic retry budget is exhausted,
// and it fails outright when the backend is unreachable so the operator
// gets a direct answer.
func (e *Engine) ForceSync(ctx context.Context) (DrainResult, error) {
	if !e.online() {
		return DrainResult{}, ErrOffline
	}
	return e.Drain(ctx, true)
}

// HandleOnline is invoked by the network monitor on the offline-to-online
// edge. It drains the backlog and, when configured, tells the operator the
// site is caught up again.
func (e *Engine) HandleOnline(ctx context.Context) {
	result, err := e.Drain(ctx, false)
	if err != nil {
		e.logger.Error("reconnect drain failed",
			logging.String(logging.FieldEventType, "drain_error"),
			logging.Error(err),
		)
		return
	}

	e.mu.Lock()
	wasOffline := e.offlineObserved
	e.offlineObserved = false
	e.mu.Unlock()

	if wasOffline && e.cfg.Alerts.Connectivity && result.Completed > 0 {
		if err := e.alerter.NotifySyncRestored(ctx, result.Completed); err != nil {
			e.logger.Warn("restore alert failed", logging.Error(err))
		}
	}
}

// ClearQueue removes every queued item, including failed ones. Destructive;
// exposed for operator tooling only.
func (e *Engine) ClearQueue(ctx context.Context) error {
	e.queueMu.Lock()
	err := e.store.Clear(ctx)
	e.queueMu.Unlock()
	if err != nil {
		return err
	}
	e.logger.Warn("queue cleared",
		logging.String(logging.FieldEventType, "queue_cleared"),
		logging.String(logging.FieldImpact, "all pending work discarded"),
	)
	return nil
}

// Items returns a point-in-time snapshot of the queue in drain order.
func (e *Engine) Items(ctx context.Context) ([]*queue.Item, error) {
	items, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	queue.Sort(items)
	return items, nil
}

func (e *Engine) loadQueue(ctx context.Context) ([]*queue.Item, error) {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()
	return e.store.Load(ctx)
}

// recoverInterrupted returns items a previous process left in the syncing
// state to pending so they become eligible again. A crash between marking an
// item syncing and recording the commit verdict must not strand the item.
func (e *Engine) recoverInterrupted(ctx context.Context) error {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()

	items, err := e.store.Load(ctx)
	if err != nil {
		return err
	}
	recovered := 0
	for _, item := range items {
		if item.Status == queue.StatusSyncing {
			item.MarkPending()
			recovered++
		}
	}
	if recovered == 0 {
		return nil
	}
	if err := e.store.Save(ctx, items); err != nil {
		return err
	}
	e.logger.Warn("recovered interrupted commits",
		logging.String(logging.FieldEventType, "commits_recovered"),
		logging.Int("count", recovered),
	)
	return nil
}

func (e *Engine) online() bool {
	if e.network == nil {
		return true
	}
	return e.network.Online()
}

func (e *Engine) noteOffline(ctx context.Context) {
	e.mu.Lock()
	already := e.offlineObserved
	e.offlineObserved = true
	e.mu.Unlock()

	if !already && e.cfg.Alerts.Connectivity {
		if err := e.alerter.NotifyConnectivityLost(ctx); err != nil {
			e.logger.Warn("connectivity alert failed", logging.Error(err))
		}
	}
}

// checkBacklog raises a single alert when the number of waiting critical
// items crosses the configured threshold, re-arming once the backlog falls
// back below it.
func (e *Engine) checkBacklog(ctx context.Context) {
	threshold := e.cfg.Alerts.CriticalBacklogThreshold
	if threshold <= 0 {
		return
	}

	items, err := e.store.Load(ctx)
	if err != nil {
		return
	}

	critical := 0
	for _, item := range items {
		if item.Priority == queue.PriorityCritical && item.Status != queue.StatusCompleted {
			critical++
		}
	}

	e.mu.Lock()
	alerted := e.backlogAlerted
	if critical >= threshold {
		e.backlogAlerted = true
	} else {
		e.backlogAlerted = false
	}
	e.mu.Unlock()

	if critical >= threshold && !alerted {
		if err := e.alerter.NotifyCriticalBacklog(ctx, critical); err != nil {
			e.logger.Warn("backlog alert failed", logging.Error(err))
		}
	}
}
