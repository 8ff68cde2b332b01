package queue_test

import (
	"testing"
	"time"

	"fieldsync/internal/queue"
)

func TestSortOrdersByPriorityThenAge(t *testing.T) {
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	older := queue.NewItem(queue.EntityDelivery, "", &queue.DeliveryPayload{Courier: "ups", UnitNumber: "12"}, queue.PriorityNormal)
	older.CreatedAt = base

	newer := queue.NewItem(queue.EntityDelivery, "", &queue.DeliveryPayload{Courier: "fedex", UnitNumber: "14"}, queue.PriorityNormal)
	newer.CreatedAt = base.Add(time.Minute)

	critical := queue.NewItem(queue.EntityIncident, "", &queue.IncidentPayload{Category: "trespass", Severity: "high", Description: "fence"}, queue.PriorityCritical)
	critical.CreatedAt = base.Add(2 * time.Minute)

	items := []*queue.Item{newer, critical, older}
	queue.Sort(items)

	want := []string{critical.ID, older.ID, newer.ID}
	for i, item := range items {
		if item.ID != want[i] {
			t.Fatalf("position %d: got %s, want %s", i, item.ID, want[i])
		}
	}
}

func TestSortTieBreaksOnID(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	a := &queue.Item{ID: "a", Priority: queue.PriorityHigh, CreatedAt: created}
	b := &queue.Item{ID: "b", Priority: queue.PriorityHigh, CreatedAt: created}

	items := []*queue.Item{b, a}
	queue.Sort(items)
	if items[0].ID != "a" || items[1].ID != "b" {
		t.Fatalf("expected id tie break, got %s then %s", items[0].ID, items[1].ID)
	}
}

func TestNewItemClampsPriority(t *testing.T) {
	item := queue.NewItem(queue.EntityGateEntry, "", &queue.GateEntryPayload{Direction: "in"}, queue.Priority(9))
	if item.Priority != queue.PriorityNormal {
		t.Fatalf("expected priority clamp to normal, got %d", item.Priority)
	}
	item = queue.NewItem(queue.EntityGateEntry, "", &queue.GateEntryPayload{Direction: "in"}, queue.Priority(0))
	if item.Priority != queue.PriorityCritical {
		t.Fatalf("expected priority clamp to critical, got %d", item.Priority)
	}
	if item.Status != queue.StatusPending {
		t.Fatalf("expected new item pending, got %s", item.Status)
	}
}

func TestMarkFailedSaturatesRetryCount(t *testing.T) {
	const maxRetries = 3
	item := queue.NewItem(queue.EntityDelivery, "", &queue.DeliveryPayload{Courier: "ups", UnitNumber: "3"}, queue.PriorityNormal)

	for i := 0; i < 5; i++ {
		item.MarkFailed("backend unavailable", maxRetries)
	}
	if item.RetryCount != maxRetries {
		t.Fatalf("expected retry count saturated at %d, got %d", maxRetries, item.RetryCount)
	}
	if !item.RetriesExhausted(maxRetries) {
		t.Fatal("expected retries exhausted")
	}
	if item.LastError != "backend unavailable" {
		t.Fatalf("unexpected last error %q", item.LastError)
	}
}

func TestEligibleHonorsForce(t *testing.T) {
	const maxRetries = 3
	item := queue.NewItem(queue.EntityDelivery, "", &queue.DeliveryPayload{Courier: "ups", UnitNumber: "3"}, queue.PriorityNormal)

	if !item.Eligible(maxRetries, false) {
		t.Fatal("pending item should be eligible")
	}

	item.MarkFailed("boom", maxRetries)
	if !item.Eligible(maxRetries, false) {
		t.Fatal("failed item under budget should be eligible")
	}

	item.MarkFailed("boom", maxRetries)
	item.MarkFailed("boom", maxRetries)
	if item.Eligible(maxRetries, false) {
		t.Fatal("exhausted item should not be eligible automatically")
	}
	if !item.Eligible(maxRetries, true) {
		t.Fatal("exhausted item should be eligible under force")
	}

	item.MarkCompleted("rec-1")
	if item.Eligible(maxRetries, true) {
		t.Fatal("completed item should never be eligible")
	}
}

func TestMarkCompletedAdoptsRemoteID(t *testing.T) {
	item := queue.NewItem(queue.EntityGateEntry, "", &queue.GateEntryPayload{Direction: "in"}, queue.PriorityHigh)
	item.MarkFailed("first try", 3)
	item.MarkCompleted("rec-42")

	if item.Status != queue.StatusCompleted {
		t.Fatalf("expected completed, got %s", item.Status)
	}
	if item.EntityID != "rec-42" {
		t.Fatalf("expected adopted remote id, got %q", item.EntityID)
	}
	if item.LastError != "" {
		t.Fatalf("expected last error cleared, got %q", item.LastError)
	}
}

func TestParseStatusAndEntityType(t *testing.T) {
	if status, ok := queue.ParseStatus(" Pending "); !ok || status != queue.StatusPending {
		t.Fatalf("unexpected parse result %q %v", status, ok)
	}
	if _, ok := queue.ParseStatus("bogus"); ok {
		t.Fatal("expected bogus status to fail")
	}
	if et, ok := queue.ParseEntityType("GUEST_ARRIVAL"); !ok || et != queue.EntityGuestArrival {
		t.Fatalf("unexpected entity type parse %q %v", et, ok)
	}
	if _, ok := queue.ParseEntityType("car"); ok {
		t.Fatal("expected unknown entity type to fail")
	}
}

func TestNewItemIDIsSortable(t *testing.T) {
	earlier := queue.NewItemID(time.UnixMilli(1000))
	later := queue.NewItemID(time.UnixMilli(2000))
	if !(earlier < later) {
		t.Fatalf("expected %q < %q", earlier, later)
	}
}
