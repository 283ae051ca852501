// Package connection implements the lifecycle of a session with one MCP
// tool server.
//
// A Connection moves through Disconnected, Connecting, Ready and
// Disconnecting. The session is owned by a single goroutine per attempt;
// Connect and Disconnect coordinate with it through channels so that a
// disconnect is a request the goroutine honours, never a cancellation of
// the goroutine itself.
//
// Stdio servers are spawned as child processes with the parent environment
// overlaid by the spec's variables. HTTP servers are reached over the
// streamable HTTP transport. A custom Dialer replaces both, which is how
// tests run servers in memory.
package connection
