// Package daemonrun assembles and runs the fieldsyncd process: logger,
// preflight, queue store, sync engine, network monitor, and IPC server.
package daemonrun
