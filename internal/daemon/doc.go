// Package daemon wires the queue store, sync engine, and network monitor
// into a single-instance background service.
package daemon
