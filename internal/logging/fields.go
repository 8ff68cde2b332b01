package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldItemID is the standardized structured logging key for sync item identifiers.
	FieldItemID = "item_id"
	// FieldEntityType is the standardized structured logging key for sync entity types.
	FieldEntityType = "entity_type"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator remediation hints.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized structured logging key for the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldPriority is the standardized structured logging key for sync item priority bands.
	FieldPriority = "priority"
	// FieldRetryCount is the standardized structured logging key for per-item attempt counters.
	FieldRetryCount = "retry_count"
)
