package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ToolBridgeError is the base interface for all toolbridge errors.
type ToolBridgeError interface {
	error
	IsToolBridgeError() bool
}

// Compile-time verification that all error types implement ToolBridgeError.
var (
	_ ToolBridgeError = (*ConnectionError)(nil)
	_ ToolBridgeError = (*ToolCallError)(nil)
	_ ToolBridgeError = (*ProxyUnreachableError)(nil)
	_ ToolBridgeError = (*NameCollisionError)(nil)
	_ ToolBridgeError = (*ProcessError)(nil)
	_ ToolBridgeError = (*ExecutableNotFoundError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrNotConnected indicates a tool server connection is not in the Ready state.
	ErrNotConnected = errors.New("tool server not connected")

	// ErrUnknownServer indicates no server is registered under the given name.
	ErrUnknownServer = errors.New("unknown tool server")

	// ErrUnknownTool indicates the server did not advertise the requested tool.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrMalformedToolName indicates a qualified tool name lacks the server separator.
	ErrMalformedToolName = errors.New("malformed qualified tool name")

	// ErrInvalidName indicates a server name is empty or contains the separator.
	ErrInvalidName = errors.New("invalid server name")

	// ErrDuplicateServer indicates a server name is already registered.
	ErrDuplicateServer = errors.New("server already registered")

	// ErrInvalidInput indicates a tool input failed schema validation.
	ErrInvalidInput = errors.New("invalid tool input")

	// ErrProxyNotRunning indicates the proxy process has not been started.
	ErrProxyNotRunning = errors.New("proxy not running")

	// ErrRegistryClosed indicates the registry has been shut down.
	ErrRegistryClosed = errors.New("registry shut down")
)

// ConnectionError indicates a failure to reach or handshake with a tool server.
type ConnectionError struct {
	Server string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to tool server %q: %v", e.Server, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// IsToolBridgeError implements ToolBridgeError.
func (e *ConnectionError) IsToolBridgeError() bool { return true }

// ToolCallError indicates a tool invocation failed, either in transport or
// because the server reported an error result.
type ToolCallError struct {
	Server string
	Tool   string
	// StatusCode is the HTTP status returned by the proxy, zero otherwise.
	StatusCode int
	Detail     string
	Err        error
}

func (e *ToolCallError) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "call tool %q on server %q", e.Tool, e.Server)

	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}

	switch {
	case e.Detail != "" && e.Err != nil:
		fmt.Fprintf(&b, ": %s: %v", e.Detail, e.Err)
	case e.Detail != "":
		fmt.Fprintf(&b, ": %s", e.Detail)
	case e.Err != nil:
		fmt.Fprintf(&b, ": %v", e.Err)
	}

	return b.String()
}

func (e *ToolCallError) Unwrap() error {
	return e.Err
}

// IsToolBridgeError implements ToolBridgeError.
func (e *ToolCallError) IsToolBridgeError() bool { return true }

// ProxyUnreachableError indicates the proxy could not be reached or did not
// answer within the call timeout.
type ProxyUnreachableError struct {
	URL string
	Err error
}

func (e *ProxyUnreachableError) Error() string {
	return fmt.Sprintf("proxy unreachable at %s: %v", e.URL, e.Err)
}

func (e *ProxyUnreachableError) Unwrap() error {
	return e.Err
}

// IsToolBridgeError implements ToolBridgeError.
func (e *ProxyUnreachableError) IsToolBridgeError() bool { return true }

// NameCollisionError indicates two tools of one server map to the same
// generated identifier.
type NameCollisionError struct {
	Server     string
	Identifier string
	Tools      []string
}

func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("tools %v of server %q collide on identifier %q", e.Tools, e.Server, e.Identifier)
}

// IsToolBridgeError implements ToolBridgeError.
func (e *NameCollisionError) IsToolBridgeError() bool { return true }

// ProcessError indicates a child process exited unexpectedly.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("process failed (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("process failed (exit %d): %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsToolBridgeError implements ToolBridgeError.
func (e *ProcessError) IsToolBridgeError() bool { return true }

// ExecutableNotFoundError indicates the proxy executable could not be located.
type ExecutableNotFoundError struct {
	Name          string
	SearchedPaths []string
}

func (e *ExecutableNotFoundError) Error() string {
	return fmt.Sprintf("%s not found in: %v", e.Name, e.SearchedPaths)
}

// IsToolBridgeError implements ToolBridgeError.
func (e *ExecutableNotFoundError) IsToolBridgeError() bool { return true }
