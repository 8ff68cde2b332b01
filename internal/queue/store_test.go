package queue_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"fieldsync/internal/queue"
	"fieldsync/internal/testsupport"
)

func TestStoreLoadEmptyQueue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	items, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load empty queue: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty queue, got %d items", len(items))
	}
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	occurred := time.Date(2026, 3, 14, 22, 15, 0, 0, time.UTC)
	incident := queue.NewItem(queue.EntityIncident, "", &queue.IncidentPayload{
		Category:    "vandalism",
		Severity:    "high",
		Location:    "block C",
		Description: "broken light",
		OccurredAt:  occurred,
	}, queue.PriorityCritical)
	arrival := queue.NewItem(queue.EntityGuestArrival, "guest-9", &queue.GuestArrivalPayload{
		GuestName: "R. Vance",
		ArrivedAt: occurred.Add(time.Minute),
	}, queue.PriorityHigh)
	arrival.MarkFailed("connection reset", 3)

	if err := store.Save(ctx, []*queue.Item{incident, arrival}); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 items, got %d", len(loaded))
	}

	got := loaded[0]
	if got.ID != incident.ID || got.Priority != queue.PriorityCritical || got.Status != queue.StatusPending {
		t.Fatalf("unexpected first item %+v", got)
	}
	payload, ok := got.Payload.(*queue.IncidentPayload)
	if !ok {
		t.Fatalf("expected incident payload, got %T", got.Payload)
	}
	if payload.Description != "broken light" || !payload.OccurredAt.Equal(occurred) {
		t.Fatalf("payload did not survive round trip: %+v", payload)
	}

	failed := loaded[1]
	if failed.Status != queue.StatusFailed || failed.RetryCount != 1 || failed.LastError != "connection reset" {
		t.Fatalf("failure state did not survive round trip: %+v", failed)
	}
	if failed.EntityID != "guest-9" {
		t.Fatalf("expected entity id preserved, got %q", failed.EntityID)
	}
}

func TestStoreSaveReplacesPreviousList(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := queue.NewItem(queue.EntityDelivery, "", &queue.DeliveryPayload{Courier: "dhl", UnitNumber: "7"}, queue.PriorityNormal)
	if err := store.Save(ctx, []*queue.Item{first}); err != nil {
		t.Fatalf("save first: %v", err)
	}

	second := queue.NewItem(queue.EntityDelivery, "", &queue.DeliveryPayload{Courier: "ups", UnitNumber: "8"}, queue.PriorityNormal)
	if err := store.Save(ctx, []*queue.Item{second}); err != nil {
		t.Fatalf("save second: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != second.ID {
		t.Fatalf("expected replacement save, got %d items", len(loaded))
	}
}

func TestStoreClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := queue.NewItem(queue.EntityGateEntry, "", &queue.GateEntryPayload{Direction: "out"}, queue.PriorityNormal)
	if err := store.Save(ctx, []*queue.Item{item}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected cleared queue, got %d items", len(loaded))
	}
}

func TestStoreFailsOpenOnCorruptState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := queue.NewItem(queue.EntityGateEntry, "", &queue.GateEntryPayload{Direction: "in"}, queue.PriorityNormal)
	if err := store.Save(ctx, []*queue.Item{item}); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Corrupt the persisted envelope behind the store's back.
	db, err := sql.Open("sqlite", store.Path())
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.ExecContext(ctx, "UPDATE sync_state SET value = ? WHERE key = 'sync_queue'", []byte("{not json")); err != nil {
		t.Fatalf("corrupt state: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close raw db: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("expected fail-open load, got error: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty queue after corruption, got %d items", len(loaded))
	}
}

func TestStoreCheckHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	item := queue.NewItem(queue.EntityDelivery, "", &queue.DeliveryPayload{Courier: "ups", UnitNumber: "2"}, queue.PriorityNormal)
	if err := store.Save(ctx, []*queue.Item{item}); err != nil {
		t.Fatalf("save: %v", err)
	}

	health, err := store.CheckHealth(ctx)
	if err != nil {
		t.Fatalf("check health: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Fatalf("unexpected health %+v", health)
	}
	if health.QueuedItems != 1 {
		t.Fatalf("expected 1 queued item, got %d", health.QueuedItems)
	}
}
