package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// EntityType is the closed category of sync work; it selects the adapter
// that commits the item remotely.
type EntityType string

const (
	EntityGateEntry    EntityType = "gate_entry"
	EntityDelivery     EntityType = "delivery"
	EntityIncident     EntityType = "incident"
	EntityGuestArrival EntityType = "guest_arrival"
)

var allEntityTypes = []EntityType{
	EntityGateEntry,
	EntityDelivery,
	EntityIncident,
	EntityGuestArrival,
}

// AllEntityTypes returns the ordered list of known entity types.
func AllEntityTypes() []EntityType {
	cp := make([]EntityType, len(allEntityTypes))
	copy(cp, allEntityTypes)
	return cp
}

// ParseEntityType converts a string into a known EntityType.
func ParseEntityType(value string) (EntityType, bool) {
	normalized := EntityType(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case EntityGateEntry, EntityDelivery, EntityIncident, EntityGuestArrival:
		return normalized, true
	default:
		return "", false
	}
}

// Payload is the entity-specific record carried by a sync item. Each variant
// holds every field the remote commit needs, so adapters receive a
// compile-time-checked shape instead of an untyped map.
type Payload interface {
	EntityType() EntityType
}

// GateEntryPayload records a vehicle or pedestrian passing a gate.
type GateEntryPayload struct {
	Direction   string    `json:"direction"`
	Method      string    `json:"method,omitempty"`
	PlateNumber string    `json:"plate_number,omitempty"`
	VisitorName string    `json:"visitor_name,omitempty"`
	UnitNumber  string    `json:"unit_number,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
	Notes       string    `json:"notes,omitempty"`
}

func (GateEntryPayload) EntityType() EntityType { return EntityGateEntry }

// DeliveryPayload records a package received at the gatehouse.
type DeliveryPayload struct {
	Courier    string    `json:"courier"`
	TrackingID string    `json:"tracking_id,omitempty"`
	UnitNumber string    `json:"unit_number"`
	Recipient  string    `json:"recipient,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
	Notes      string    `json:"notes,omitempty"`
}

func (DeliveryPayload) EntityType() EntityType { return EntityDelivery }

// IncidentPayload records a security incident observed on patrol.
type IncidentPayload struct {
	Category    string    `json:"category"`
	Severity    string    `json:"severity"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (IncidentPayload) EntityType() EntityType { return EntityIncident }

// GuestArrivalPayload marks a pre-registered guest as arrived. Unlike the
// other variants this updates an existing remote record, so the item must
// carry the remote entity id.
type GuestArrivalPayload struct {
	GuestName  string    `json:"guest_name,omitempty"`
	UnitNumber string    `json:"unit_number,omitempty"`
	ArrivedAt  time.Time `json:"arrived_at"`
	VerifiedBy string    `json:"verified_by,omitempty"`
}

func (GuestArrivalPayload) EntityType() EntityType { return EntityGuestArrival }

// DecodePayload unmarshals a raw JSON payload into the typed variant for
// the given entity type.
func DecodePayload(entityType EntityType, data []byte) (Payload, error) {
	payload, err := emptyPayload(entityType)
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, payload); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", entityType, err)
		}
	}
	return payload, nil
}

func emptyPayload(entityType EntityType) (Payload, error) {
	switch entityType {
	case EntityGateEntry:
		return &GateEntryPayload{}, nil
	case EntityDelivery:
		return &DeliveryPayload{}, nil
	case EntityIncident:
		return &IncidentPayload{}, nil
	case EntityGuestArrival:
		return &GuestArrivalPayload{}, nil
	default:
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}
}
