// Package network probes backend reachability and exposes a debounced
// online/offline signal to the sync engine.
package network
