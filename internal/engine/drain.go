package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fieldsync/internal/logging"
	"fieldsync/internal/queue"
	"fieldsync/internal/remote"
)

// DrainResult summarizes one drain pass.
type DrainResult struct {
	DrainID   string
	Attempted int
	Completed int
	Failed    int
	Remaining int
	Skipped   bool
}

// Drain replays eligible queued items against the backend in priority
// order. One failing item never blocks the rest of the pass; completed
// items are pruned in a single save at the end. A pass already in flight
// makes this call a no-op.
func (e *Engine) Drain(ctx context.Context, force bool) (DrainResult, error) {
	e.mu.Lock()
	if e.draining {
		e.mu.Unlock()
		return DrainResult{Skipped: true}, nil
	}
	e.draining = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.draining = false
		e.mu.Unlock()
	}()

	return e.drain(ctx, force)
}

func (e *Engine) drain(ctx context.Context, force bool) (DrainResult, error) {
	result := DrainResult{DrainID: uuid.NewString()}

	items, err := e.loadQueue(ctx)
	if err != nil {
		return result, err
	}
	if len(items) == 0 {
		// Nothing loaded; do not rewrite the store on an idle tick.
		return result, nil
	}

	// Single-flight means nothing else is mid-commit, so a syncing status at
	// load time is a leftover from an interrupted process. Retry it now.
	recovered := 0
	for _, item := range items {
		if item.Status == queue.StatusSyncing {
			item.MarkPending()
			recovered++
		}
	}
	if recovered > 0 {
		e.logger.Warn("recovered interrupted commits",
			logging.String(logging.FieldEventType, "commits_recovered"),
			logging.Int("count", recovered),
		)
	}

	queue.Sort(items)

	// The pass works on this snapshot; every save merges it against a fresh
	// load so items enqueued mid-pass are never clobbered.
	working := make(map[string]*queue.Item, len(items))
	for _, item := range items {
		working[item.ID] = item
	}

	start := time.Now()
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		if !item.Eligible(e.maxRetries, force) {
			continue
		}
		result.Attempted++
		e.commitOne(ctx, item, working, &result)
	}

	if result.Attempted == 0 && recovered == 0 {
		result.Remaining = len(items)
		return result, nil
	}

	// Completed items leave the queue in one pruning save so a crash
	// mid-pass can at worst replay idempotent commits, never lose work.
	remaining, err := e.saveMerged(ctx, working, true)
	if err != nil {
		return result, err
	}
	result.Remaining = remaining

	if result.Attempted > 0 {
		e.logger.Info("drain pass finished",
			logging.String(logging.FieldEventType, "drain_finished"),
			logging.String("drain_id", result.DrainID),
			logging.Int("attempted", result.Attempted),
			logging.Int("completed", result.Completed),
			logging.Int("failed", result.Failed),
			logging.Int("remaining", result.Remaining),
			logging.Duration("elapsed", time.Since(start)),
		)
	}

	if result.Failed == 0 {
		e.mu.Lock()
		e.lastSync = time.Now().UTC()
		e.mu.Unlock()
	}

	return result, nil
}

func (e *Engine) commitOne(ctx context.Context, item *queue.Item, working map[string]*queue.Item, result *DrainResult) {
	item.MarkSyncing()
	e.persistProgress(ctx, working)

	adapter, ok := e.registry.For(item.EntityType)
	if !ok {
		e.recordFailure(ctx, item, "no adapter registered for entity type", false)
		result.Failed++
		e.persistProgress(ctx, working)
		return
	}

	commitCtx, cancel := context.WithTimeout(ctx, e.commitTimeout)
	remoteID, err := adapter.Commit(commitCtx, item)
	cancel()

	if err != nil {
		e.recordFailure(ctx, item, err.Error(), remote.Retryable(err))
		result.Failed++
		e.persistProgress(ctx, working)
		return
	}

	item.MarkCompleted(remoteID)
	result.Completed++
	e.logger.Info("item synced",
		logging.String(logging.FieldEventType, "item_synced"),
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldEntityType, string(item.EntityType)),
		logging.Int(logging.FieldRetryCount, item.RetryCount),
	)
	e.persistProgress(ctx, working)
}

func (e *Engine) recordFailure(ctx context.Context, item *queue.Item, reason string, retryable bool) {
	wasExhausted := item.RetriesExhausted(e.maxRetries)
	item.MarkFailed(reason, e.maxRetries)
	if !retryable {
		// Rejections and misconfiguration will not heal on retry; burn the
		// remaining budget so the item waits for operator intervention.
		item.RetryCount = e.maxRetries
	}

	e.logger.Warn("item commit failed",
		logging.String(logging.FieldEventType, "item_failed"),
		logging.String(logging.FieldItemID, item.ID),
		logging.String(logging.FieldEntityType, string(item.EntityType)),
		logging.Int(logging.FieldRetryCount, item.RetryCount),
		logging.String("reason", reason),
	)

	if !wasExhausted && item.RetriesExhausted(e.maxRetries) {
		e.logger.Error("item retries exhausted",
			logging.String(logging.FieldEventType, "retries_exhausted"),
			logging.String(logging.FieldItemID, item.ID),
			logging.String(logging.FieldEntityType, string(item.EntityType)),
			logging.String(logging.FieldErrorHint, "inspect with 'fieldsync queue list' and force a retry or clear"),
			logging.String(logging.FieldImpact, "record will not sync without operator action"),
		)
		if e.cfg.Alerts.RetriesExhausted {
			if err := e.alerter.NotifyRetriesExhausted(ctx, string(item.EntityType), item.ID, reason); err != nil {
				e.logger.Warn("exhaustion alert failed", logging.Error(err))
			}
		}
	}
}

// saveMerged writes the pass's item states back to the store without
// clobbering concurrent queue changes: the current list is reloaded under
// the queue lock, entries the pass knows are replaced with their updated
// state, and entries it never loaded (enqueued mid-pass) are kept as-is.
// Items missing from the fresh load (a concurrent ClearQueue) stay gone.
func (e *Engine) saveMerged(ctx context.Context, working map[string]*queue.Item, prune bool) (int, error) {
	e.queueMu.Lock()
	defer e.queueMu.Unlock()

	current, err := e.store.Load(ctx)
	if err != nil {
		return 0, err
	}
	merged := current[:0]
	for _, item := range current {
		if update, ok := working[item.ID]; ok {
			item = update
		}
		if prune && item.Status == queue.StatusCompleted {
			continue
		}
		merged = append(merged, item)
	}
	if err := e.store.Save(ctx, merged); err != nil {
		return 0, err
	}
	return len(merged), nil
}

// persistProgress saves the working states after a transition. Failures
// here are logged and swallowed: durability is best effort mid-pass, and
// the pruning save at the end of the drain is the one that must land.
func (e *Engine) persistProgress(ctx context.Context, working map[string]*queue.Item) {
	if _, err := e.saveMerged(ctx, working, false); err != nil {
		e.logger.Warn("progress save failed",
			logging.String(logging.FieldEventType, "queue_save_failed"),
			logging.Error(err),
		)
	}
}
