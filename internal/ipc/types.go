package ipc

import (
	"encoding/json"
	"time"
)

// QueueItem is the wire DTO for a queued sync record.
type QueueItem struct {
	ID         string    `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id,omitempty"`
	Priority   int       `json:"priority"`
	RetryCount int       `json:"retry_count"`
	LastError  string    `json:"last_error,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents combined daemon and sync pipeline status.
type StatusResponse struct {
	Running       bool      `json:"running"`
	IsOnline      bool      `json:"is_online"`
	IsSyncing     bool      `json:"is_syncing"`
	TotalCount    int       `json:"total_count"`
	PendingCount  int       `json:"pending_count"`
	FailedCount   int       `json:"failed_count"`
	CriticalCount int       `json:"critical_count"`
	LastSyncTime  time.Time `json:"last_sync_time"`
	QueueDBPath   string    `json:"queue_db_path"`
	LockPath      string    `json:"lock_path"`
	PID           int       `json:"pid"`
}

// StopRequest asks the daemon process to shut down.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// QueueListRequest filters queue listing by status.
type QueueListRequest struct {
	Statuses []string `json:"statuses"`
}

// QueueListResponse contains queue entries in drain order.
type QueueListResponse struct {
	Items []QueueItem `json:"items"`
}

// QueueClearRequest removes all items.
type QueueClearRequest struct{}

// QueueClearResponse confirms the queue was cleared.
type QueueClearResponse struct {
	Cleared bool `json:"cleared"`
}

// EnqueueRequest adds a record to the durable queue.
type EnqueueRequest struct {
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id,omitempty"`
	Priority   int             `json:"priority"`
	Payload    json.RawMessage `json:"payload"`
}

// EnqueueResponse returns the queued item.
type EnqueueResponse struct {
	Item QueueItem `json:"item"`
}

// ForceSyncRequest triggers an immediate drain, including retry-exhausted
// items.
type ForceSyncRequest struct{}

// ForceSyncResponse reports the drain outcome.
type ForceSyncResponse struct {
	Attempted int    `json:"attempted"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Remaining int    `json:"remaining"`
	Skipped   bool   `json:"skipped"`
	Message   string `json:"message,omitempty"`
}

// DatabaseHealthRequest fetches queue database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports queue database health information.
type DatabaseHealthResponse struct {
	DBPath           string `json:"db_path"`
	DatabaseExists   bool   `json:"database_exists"`
	DatabaseReadable bool   `json:"database_readable"`
	TableExists      bool   `json:"table_exists"`
	IntegrityCheck   bool   `json:"integrity_check"`
	QueuedItems      int    `json:"queued_items"`
	Error            string `json:"error"`
}

// TestAlertRequest triggers an alert delivery test.
type TestAlertRequest struct{}

// TestAlertResponse reports alert test outcome.
type TestAlertResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
