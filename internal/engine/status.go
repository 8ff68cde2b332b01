package engine

import (
	"context"
	"time"

	"fieldsync/internal/queue"
)

// Status is a point-in-time summary of the sync pipeline for operator
// surfaces.
type Status struct {
	IsOnline      bool      `json:"is_online"`
	IsSyncing     bool      `json:"is_syncing"`
	TotalCount    int       `json:"total_count"`
	PendingCount  int       `json:"pending_count"`
	FailedCount   int       `json:"failed_count"`
	CriticalCount int       `json:"critical_count"`
	LastSyncTime  time.Time `json:"last_sync_time"`
}

// Status reports the current pipeline state. Counts come straight from the
// durable queue so a restart cannot desynchronize the display.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	items, err := e.store.Load(ctx)
	if err != nil {
		return Status{}, err
	}

	e.mu.Lock()
	status := Status{
		IsOnline:     e.networkOnlineLocked(),
		IsSyncing:    e.draining,
		LastSyncTime: e.lastSync,
	}
	e.mu.Unlock()

	for _, item := range items {
		status.TotalCount++
		switch item.Status {
		case queue.StatusPending, queue.StatusSyncing:
			status.PendingCount++
		case queue.StatusFailed:
			status.FailedCount++
		}
		if item.Priority == queue.PriorityCritical && item.Status != queue.StatusCompleted {
			status.CriticalCount++
		}
	}

	return status, nil
}

// networkOnlineLocked must be called with e.mu held; the connectivity
// source has its own lock so this never deadlocks.
func (e *Engine) networkOnlineLocked() bool {
	if e.network == nil {
		return true
	}
	return e.network.Online()
}

// Subscribe emits a status snapshot immediately and then on a fixed cadence
// until the context is cancelled. Slow consumers miss intermediate
// snapshots rather than stalling the engine.
func (e *Engine) Subscribe(ctx context.Context) <-chan Status {
	interval := time.Duration(e.cfg.Sync.StatusInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}

	updates := make(chan Status, 1)
	go func() {
		defer close(updates)

		send := func() {
			status, err := e.Status(ctx)
			if err != nil {
				return
			}
			select {
			case updates <- status:
			default:
				// Drop the stale snapshot so the next one can land.
				select {
				case <-updates:
				default:
				}
				select {
				case updates <- status:
				default:
				}
			}
		}

		send()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				send()
			}
		}
	}()
	return updates
}
