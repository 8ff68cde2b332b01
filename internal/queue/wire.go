package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// queueSchemaVersion guards the persisted envelope against payload-shape
// changes across application upgrades. Unknown versions are treated as
// corrupt data and the store fails open to an empty queue.
const queueSchemaVersion = 1

type itemWire struct {
	ID         string          `json:"id"`
	EntityType EntityType      `json:"entity_type"`
	EntityID   string          `json:"entity_id,omitempty"`
	Payload    json.RawMessage `json:"payload"`
	Priority   Priority        `json:"priority"`
	RetryCount int             `json:"retry_count"`
	LastError  string          `json:"last_error,omitempty"`
	Status     Status          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type envelopeWire struct {
	SchemaVersion int        `json:"schema_version"`
	SavedAt       time.Time  `json:"saved_at"`
	Items         []itemWire `json:"items"`
}

func encodeItems(items []*Item) ([]byte, error) {
	wire := envelopeWire{
		SchemaVersion: queueSchemaVersion,
		SavedAt:       time.Now().UTC(),
		Items:         make([]itemWire, 0, len(items)),
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		payload, err := json.Marshal(item.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", item.EntityType, err)
		}
		wire.Items = append(wire.Items, itemWire{
			ID:         item.ID,
			EntityType: item.EntityType,
			EntityID:   item.EntityID,
			Payload:    payload,
			Priority:   item.Priority,
			RetryCount: item.RetryCount,
			LastError:  item.LastError,
			Status:     item.Status,
			CreatedAt:  item.CreatedAt,
			UpdatedAt:  item.UpdatedAt,
		})
	}
	return json.Marshal(wire)
}

func decodeItems(data []byte) ([]*Item, error) {
	var wire envelopeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode queue envelope: %w", err)
	}
	if wire.SchemaVersion != queueSchemaVersion {
		return nil, fmt.Errorf("unsupported queue schema version %d", wire.SchemaVersion)
	}

	items := make([]*Item, 0, len(wire.Items))
	for _, entry := range wire.Items {
		payload, err := emptyPayload(entry.EntityType)
		if err != nil {
			return nil, err
		}
		if len(entry.Payload) > 0 {
			if err := json.Unmarshal(entry.Payload, payload); err != nil {
				return nil, fmt.Errorf("decode %s payload: %w", entry.EntityType, err)
			}
		}
		status, ok := ParseStatus(string(entry.Status))
		if !ok {
			return nil, fmt.Errorf("unknown item status %q", entry.Status)
		}
		items = append(items, &Item{
			ID:         entry.ID,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			Payload:    payload,
			Priority:   clampPriority(entry.Priority),
			RetryCount: entry.RetryCount,
			LastError:  entry.LastError,
			Status:     status,
			CreatedAt:  entry.CreatedAt,
			UpdatedAt:  entry.UpdatedAt,
		})
	}
	return items, nil
}
