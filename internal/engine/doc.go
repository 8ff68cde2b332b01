// Package engine owns the sync pipeline: it drains the durable queue
// against the backend in priority order, enforces the retry budget, and
// publishes status snapshots for operator surfaces.
package engine
