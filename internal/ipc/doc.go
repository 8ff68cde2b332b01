// Package ipc implements JSON-RPC daemon control over a Unix domain
// socket, used by the fieldsync CLI to talk to a running fieldsyncd.
package ipc
