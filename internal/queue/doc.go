// Package queue defines the durable sync item model and its SQLite-backed
// store. Items are totally ordered by (priority, creation time) and persisted
// as a whole list under a single key; the sync engine is the only writer.
package queue
