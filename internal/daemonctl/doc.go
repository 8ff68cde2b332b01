// Package daemonctl orchestrates fieldsyncd process lifecycle from the CLI:
// launching, waiting on the IPC socket, and stop-with-forced-kill fallback.
package daemonctl
