package adapters

import (
	"context"
	"fmt"
	"time"

	"fieldsync/internal/queue"
	"fieldsync/internal/remote"
)

// Adapter commits one entity type to the backend. Adapters are pure
// payload-to-request mappings with no queue knowledge; the engine owns all
// retry and state bookkeeping.
type Adapter interface {
	Commit(ctx context.Context, item *queue.Item) (remoteID string, err error)
}

// Registry maps each entity type to its adapter.
type Registry map[queue.EntityType]Adapter

// NewRegistry wires the full adapter set against a backend client. The
// device id is stamped onto every created record so the backend can trace
// which gatehouse produced it.
func NewRegistry(client *remote.Client, deviceID string) Registry {
	return Registry{
		queue.EntityGateEntry:    &gateEntryAdapter{client: client, deviceID: deviceID},
		queue.EntityDelivery:     &deliveryAdapter{client: client, deviceID: deviceID},
		queue.EntityIncident:     &incidentAdapter{client: client, deviceID: deviceID},
		queue.EntityGuestArrival: &guestArrivalAdapter{client: client},
	}
}

// For returns the adapter registered for an entity type.
func (r Registry) For(entityType queue.EntityType) (Adapter, bool) {
	adapter, ok := r[entityType]
	return adapter, ok
}

// baseRecord stamps the fields shared by every created record. The item id
// doubles as an idempotency key: retried commits after a
// succeeded-but-unacknowledged attempt carry the same key, so the backend
// can deduplicate. Deduplication itself stays a remote-side concern.
func baseRecord(item *queue.Item, deviceID string) remote.Record {
	record := remote.Record{
		"idempotency_key":     item.ID,
		"recorded_offline_at": item.CreatedAt.UTC().Format(time.RFC3339),
	}
	if deviceID != "" {
		record["device_id"] = deviceID
	}
	return record
}

type gateEntryAdapter struct {
	client   *remote.Client
	deviceID string
}

func (a *gateEntryAdapter) Commit(ctx context.Context, item *queue.Item) (string, error) {
	payload, ok := item.Payload.(*queue.GateEntryPayload)
	if !ok {
		return "", fmt.Errorf("gate entry adapter received %T payload", item.Payload)
	}
	record := baseRecord(item, a.deviceID)
	record["direction"] = payload.Direction
	record["recorded_at"] = payload.RecordedAt.UTC().Format(time.RFC3339)
	if payload.Method != "" {
		record["method"] = payload.Method
	}
	if payload.PlateNumber != "" {
		record["plate_number"] = payload.PlateNumber
	}
	if payload.VisitorName != "" {
		record["visitor_name"] = payload.VisitorName
	}
	if payload.UnitNumber != "" {
		record["unit_number"] = payload.UnitNumber
	}
	if payload.Notes != "" {
		record["notes"] = payload.Notes
	}
	return a.client.Insert(ctx, "gate_entries", record)
}

type deliveryAdapter struct {
	client   *remote.Client
	deviceID string
}

func (a *deliveryAdapter) Commit(ctx context.Context, item *queue.Item) (string, error) {
	payload, ok := item.Payload.(*queue.DeliveryPayload)
	if !ok {
		return "", fmt.Errorf("delivery adapter received %T payload", item.Payload)
	}
	record := baseRecord(item, a.deviceID)
	record["courier"] = payload.Courier
	record["unit_number"] = payload.UnitNumber
	record["received_at"] = payload.ReceivedAt.UTC().Format(time.RFC3339)
	if payload.TrackingID != "" {
		record["tracking_id"] = payload.TrackingID
	}
	if payload.Recipient != "" {
		record["recipient"] = payload.Recipient
	}
	if payload.Notes != "" {
		record["notes"] = payload.Notes
	}
	return a.client.Insert(ctx, "deliveries", record)
}

type incidentAdapter struct {
	client   *remote.Client
	deviceID string
}

func (a *incidentAdapter) Commit(ctx context.Context, item *queue.Item) (string, error) {
	payload, ok := item.Payload.(*queue.IncidentPayload)
	if !ok {
		return "", fmt.Errorf("incident adapter received %T payload", item.Payload)
	}
	record := baseRecord(item, a.deviceID)
	record["category"] = payload.Category
	record["severity"] = payload.Severity
	record["description"] = payload.Description
	record["occurred_at"] = payload.OccurredAt.UTC().Format(time.RFC3339)
	if payload.Location != "" {
		record["location"] = payload.Location
	}
	return a.client.Insert(ctx, "incidents", record)
}

// guestArrivalAdapter updates a pre-registered guest record in place, which
// makes it naturally idempotent under retry.
type guestArrivalAdapter struct {
	client *remote.Client
}

func (a *guestArrivalAdapter) Commit(ctx context.Context, item *queue.Item) (string, error) {
	payload, ok := item.Payload.(*queue.GuestArrivalPayload)
	if !ok {
		return "", fmt.Errorf("guest arrival adapter received %T payload", item.Payload)
	}
	if item.EntityID == "" {
		return "", remote.Wrap(remote.ErrRejected, "update guest_arrivals", "guest arrival requires a remote entity id", nil)
	}
	record := remote.Record{
		"status":     "arrived",
		"arrived_at": payload.ArrivedAt.UTC().Format(time.RFC3339),
	}
	if payload.VerifiedBy != "" {
		record["verified_by"] = payload.VerifiedBy
	}
	if err := a.client.Update(ctx, "guest_arrivals", item.EntityID, record); err != nil {
		return "", err
	}
	return item.EntityID, nil
}
