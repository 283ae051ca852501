// Package subprocess supervises child processes.
//
// A Process starts a binary with piped stdout and stderr, hands each output
// line to a callback, keeps a capped copy of stderr for error reports, and
// stops the child gracefully (SIGTERM, then SIGKILL after a grace period).
// It backs the proxy service's out-of-process registry.
package subprocess
