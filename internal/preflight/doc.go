// Package preflight runs startup environment checks for the daemon: data
// and log directory access, free disk space, and backend reachability.
package preflight
