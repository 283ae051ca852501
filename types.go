package toolbridge

import (
	"github.com/wagiedev/mcp-toolbridge/internal/config"
	"github.com/wagiedev/mcp-toolbridge/internal/connection"
	"github.com/wagiedev/mcp-toolbridge/internal/mcp"
	"github.com/wagiedev/mcp-toolbridge/internal/proxy"
	"github.com/wagiedev/mcp-toolbridge/internal/registry"
	"github.com/wagiedev/mcp-toolbridge/internal/stub"
	"github.com/wagiedev/mcp-toolbridge/internal/stubgen"
)

// Separator joins server and tool names in a qualified tool name.
const Separator = mcp.Separator

// Server configuration types.
type (
	// ServerType is the transport used to reach a tool server.
	ServerType = mcp.ServerType

	// ServerConfig is implemented by StdioServerConfig and HTTPServerConfig.
	ServerConfig = mcp.ServerConfig

	// StdioServerConfig launches a tool server as a child process.
	StdioServerConfig = mcp.StdioServerConfig

	// HTTPServerConfig reaches a tool server over streamable HTTP.
	HTTPServerConfig = mcp.HTTPServerConfig

	// ServerSpec names a tool server and says how to reach it.
	ServerSpec = mcp.ServerSpec

	// ConfigFile is a parsed mcpServers configuration file.
	ConfigFile = config.File
)

// Server types.
const (
	ServerTypeStdio = mcp.ServerTypeStdio
	ServerTypeHTTP  = mcp.ServerTypeHTTP
)

// Catalog and status types.
type (
	// ToolDescriptor describes one discovered tool.
	ToolDescriptor = mcp.ToolDescriptor

	// Result is a normalized tool result.
	Result = mcp.Result

	// ResultKind tags the shape of a Result.
	ResultKind = mcp.ResultKind

	// ServerStatus reports one server's connection state.
	ServerStatus = mcp.ServerStatus

	// Status reports every registered server.
	Status = mcp.Status

	// AddResult reports one server's outcome in a batch add.
	AddResult = registry.AddResult
)

// Lifecycle types.
type (
	// Connection is a single tool server connection.
	Connection = connection.Connection

	// State is a connection lifecycle state.
	State = connection.State

	// Registry aggregates connections behind qualified tool names.
	Registry = registry.Registry

	// ProxyService launches and supervises the proxy process.
	ProxyService = proxy.Service

	// ProxyHandle describes a running proxy process.
	ProxyHandle = proxy.Handle

	// ProxyClient calls tools through a running proxy.
	ProxyClient = proxy.Client
)

// Connection states.
const (
	StateDisconnected  = connection.StateDisconnected
	StateConnecting    = connection.StateConnecting
	StateReady         = connection.StateReady
	StateDisconnecting = connection.StateDisconnecting
)

// Stub types.
type (
	// StubFunc is the signature of bound and generated stubs.
	StubFunc = stub.Func

	// Stub is a tool bound to the way it is reached.
	Stub = stub.Stub

	// Invoker routes a call to a server's tool. Registries, proxy clients
	// and direct invokers implement it.
	Invoker = stub.Invoker

	// GenerateOptions configures GenerateStubs.
	GenerateOptions = stubgen.Options

	// StubTarget says how generated stubs of one server reach it.
	StubTarget = stubgen.Target

	// StubFile is one generated source file.
	StubFile = stubgen.File
)
