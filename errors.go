package toolbridge

import "github.com/wagiedev/mcp-toolbridge/internal/errors"

// Re-export error types from internal package

// ToolBridgeError is the base interface for all toolbridge errors.
type ToolBridgeError = errors.ToolBridgeError

// ConnectionError indicates a failure to reach or handshake with a tool server.
type ConnectionError = errors.ConnectionError

// ToolCallError indicates a tool invocation failed.
type ToolCallError = errors.ToolCallError

// ProxyUnreachableError indicates the proxy could not be reached in time.
type ProxyUnreachableError = errors.ProxyUnreachableError

// NameCollisionError indicates two tools of one server map to the same stub identifier.
type NameCollisionError = errors.NameCollisionError

// ProcessError indicates a child process exited unexpectedly.
type ProcessError = errors.ProcessError

// ExecutableNotFoundError indicates the proxy binary was not found.
type ExecutableNotFoundError = errors.ExecutableNotFoundError

// Re-export sentinel errors from internal package.
var (
	// ErrNotConnected indicates a connection is not in the Ready state.
	ErrNotConnected = errors.ErrNotConnected

	// ErrUnknownServer indicates no server is registered under a name.
	ErrUnknownServer = errors.ErrUnknownServer

	// ErrUnknownTool indicates a server did not advertise a tool.
	ErrUnknownTool = errors.ErrUnknownTool

	// ErrMalformedToolName indicates a qualified name lacks the separator.
	ErrMalformedToolName = errors.ErrMalformedToolName

	// ErrInvalidName indicates a server name is empty or contains the separator.
	ErrInvalidName = errors.ErrInvalidName

	// ErrDuplicateServer indicates a server name is already registered.
	ErrDuplicateServer = errors.ErrDuplicateServer

	// ErrInvalidInput indicates a tool input failed schema validation.
	ErrInvalidInput = errors.ErrInvalidInput

	// ErrProxyNotRunning indicates the proxy has not been started.
	ErrProxyNotRunning = errors.ErrProxyNotRunning

	// ErrRegistryClosed indicates the registry has been shut down.
	ErrRegistryClosed = errors.ErrRegistryClosed
)
