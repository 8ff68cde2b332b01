// Command fieldsync is the operator CLI for the fieldsync daemon: status,
// queue inspection, forced syncs, alerts, and daemon lifecycle.
package main
