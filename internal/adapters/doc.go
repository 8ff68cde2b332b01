// Package adapters translates queued sync payloads into commits against the
// hosted records API, one adapter per entity type.
package adapters
