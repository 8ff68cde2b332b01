package queue

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status represents the lifecycle of a sync item.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSyncing   Status = "syncing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusSyncing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Priority orders items within the queue; lower values drain first.
type Priority int

const (
	PriorityCritical Priority = 1
	PriorityHigh     Priority = 2
	PriorityNormal   Priority = 3
)

// Item is the unit of durable sync work recorded on-device while the field
// app is offline and replayed to the backend in priority order.
//
// The sync engine exclusively owns Status, RetryCount, LastError, and
// UpdatedAt after enqueue; producers own the remaining fields and must not
// mutate them once the item is queued.
type Item struct {
	ID         string
	EntityType EntityType
	EntityID   string
	Payload    Payload
	Priority   Priority
	RetryCount int
	LastError  string
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewItem builds a pending item with a fresh identifier and timestamps.
func NewItem(entityType EntityType, entityID string, payload Payload, priority Priority) *Item {
	now := time.Now().UTC()
	return &Item{
		ID:         NewItemID(now),
		EntityType: entityType,
		EntityID:   strings.TrimSpace(entityID),
		Payload:    payload,
		Priority:   clampPriority(priority),
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// NewItemID generates a sortable identifier: a millisecond timestamp prefix
// plus a random suffix so two items created in the same tick never collide.
func NewItemID(now time.Time) string {
	var suffix [6]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		// Degrade to a clock-derived suffix; the timestamp prefix still
		// keeps ids unique across ticks.
		return fmt.Sprintf("%d-%06d", now.UnixMilli(), now.Nanosecond()%1000000)
	}
	return fmt.Sprintf("%d-%s", now.UnixMilli(), hex.EncodeToString(suffix[:]))
}

func clampPriority(p Priority) Priority {
	if p < PriorityCritical {
		return PriorityCritical
	}
	if p > PriorityNormal {
		return PriorityNormal
	}
	return p
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// MarkSyncing records the start of a commit attempt.
func (i *Item) MarkSyncing() {
	i.Status = StatusSyncing
	i.UpdatedAt = time.Now().UTC()
}

// MarkCompleted records a successful commit. The remote identifier is kept on
// the item so it survives until the pruning save at the end of the drain.
func (i *Item) MarkCompleted(remoteID string) {
	i.Status = StatusCompleted
	if remoteID = strings.TrimSpace(remoteID); remoteID != "" && i.EntityID == "" {
		i.EntityID = remoteID
	}
	i.LastError = ""
	i.UpdatedAt = time.Now().UTC()
}

// MarkPending returns an interrupted commit attempt to the pending state so
// a later drain retries it. Retry accounting is preserved; the interruption
// was local, not a backend verdict.
func (i *Item) MarkPending() {
	i.Status = StatusPending
	i.UpdatedAt = time.Now().UTC()
}

// MarkFailed records a failed commit attempt. The retry counter saturates at
// maxRetries; once saturated only the failure reason is refreshed.
func (i *Item) MarkFailed(reason string, maxRetries int) {
	i.Status = StatusFailed
	if i.RetryCount < maxRetries {
		i.RetryCount++
	}
	i.LastError = strings.TrimSpace(reason)
	i.UpdatedAt = time.Now().UTC()
}

// Eligible reports whether a drain pass should attempt this item. Forced
// drains also pick up items whose automatic retries are exhausted.
func (i *Item) Eligible(maxRetries int, force bool) bool {
	switch i.Status {
	case StatusPending:
		return true
	case StatusFailed:
		return force || i.RetryCount < maxRetries
	default:
		return false
	}
}

// RetriesExhausted reports whether the item has consumed its automatic retry
// budget.
func (i *Item) RetriesExhausted(maxRetries int) bool {
	return i.Status == StatusFailed && i.RetryCount >= maxRetries
}

// Sort orders items by (priority ascending, createdAt ascending) with the id
// as a final tie break so the order is total and stable.
func Sort(items []*Item) {
	sort.SliceStable(items, func(a, b int) bool {
		if items[a].Priority != items[b].Priority {
			return items[a].Priority < items[b].Priority
		}
		if !items[a].CreatedAt.Equal(items[b].CreatedAt) {
			return items[a].CreatedAt.Before(items[b].CreatedAt)
		}
		return items[a].ID < items[b].ID
	})
}
