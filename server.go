package toolbridge

import (
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcp-toolbridge/internal/mcp"
)

// Re-export MCP SDK types used to author tool servers.
type (
	// Server is an MCP server. Serve it over stdio with
	// server.Run(ctx, &mcp.StdioTransport{}) or over HTTP with
	// ServerHandler.
	Server = sdkmcp.Server

	// CallToolResult is the server's response to a tool call.
	// Use TextResult, ErrorResult, or ImageResult helpers to create results.
	CallToolResult = sdkmcp.CallToolResult

	// CallToolRequest is the request passed to tool handlers.
	CallToolRequest = sdkmcp.CallToolRequest

	// ToolHandler is the function signature for tool handlers.
	ToolHandler = sdkmcp.ToolHandler

	// ToolAnnotations describes optional hints about tool behavior.
	ToolAnnotations = sdkmcp.ToolAnnotations

	// Schema is a JSON Schema object for tool input validation.
	Schema = jsonschema.Schema
)

// ServerToolOption configures a ServerTool during construction.
type ServerToolOption func(*ServerTool)

// WithAnnotations sets MCP tool annotations (hints about tool behavior).
func WithAnnotations(annotations *sdkmcp.ToolAnnotations) ServerToolOption {
	return func(t *ServerTool) {
		t.Annotations = annotations
	}
}

// ServerTool is a tool definition plus its handler, ready to be served.
type ServerTool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Handler     ToolHandler
	Annotations *sdkmcp.ToolAnnotations
}

// NewServerTool creates a ServerTool.
//
//	add := toolbridge.NewServerTool("add", "Add two numbers",
//	    toolbridge.SimpleSchema(map[string]string{"a": "float64", "b": "float64"}),
//	    func(ctx context.Context, req *toolbridge.CallToolRequest) (*toolbridge.CallToolResult, error) {
//	        args, _ := toolbridge.ParseArguments(req)
//	        a, b := args["a"].(float64), args["b"].(float64)
//	        return toolbridge.TextResult(fmt.Sprint(a + b)), nil
//	    },
//	)
func NewServerTool(
	name, description string,
	inputSchema *jsonschema.Schema,
	handler ToolHandler,
	opts ...ServerToolOption,
) *ServerTool {
	t := &ServerTool{
		Name:        name,
		Description: description,
		InputSchema: inputSchema,
		Handler:     handler,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// NewServer builds an MCP server exposing tools.
func NewServer(name, version string, tools ...*ServerTool) *Server {
	serverTools := make([]mcp.ServerTool, 0, len(tools))
	for _, t := range tools {
		tool := mcp.NewTool(t.Name, t.Description, t.InputSchema)
		tool.Annotations = t.Annotations
		serverTools = append(serverTools, mcp.ServerTool{Tool: tool, Handler: t.Handler})
	}

	return mcp.NewServer(name, version, serverTools...)
}

// ServerHandler serves server over streamable HTTP.
func ServerHandler(server *Server) *sdkmcp.StreamableHTTPHandler {
	return sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return server
	}, nil)
}

// SimpleSchema creates a jsonschema.Schema from a simple type map.
//
// Input format: {"a": "float64", "b": "string"}
//
// Type mappings:
//   - "string"           → {"type": "string"}
//   - "int", "int64"     → {"type": "integer"}
//   - "float64", "float" → {"type": "number"}
//   - "bool"             → {"type": "boolean"}
//   - "[]string"         → {"type": "array", "items": {"type": "string"}}
//   - "any", "object"    → {"type": "object"}
func SimpleSchema(props map[string]string) *jsonschema.Schema {
	return mcp.SimpleSchema(props)
}

// TextResult creates a CallToolResult with one text block per part.
func TextResult(parts ...string) *sdkmcp.CallToolResult {
	return mcp.TextResult(parts...)
}

// ErrorResult creates a CallToolResult indicating an error.
func ErrorResult(message string) *sdkmcp.CallToolResult {
	return mcp.ErrorResult(message)
}

// ImageResult creates a CallToolResult with image content.
func ImageResult(data []byte, mimeType string) *sdkmcp.CallToolResult {
	return mcp.ImageResult(data, mimeType)
}

// ParseArguments unmarshals CallToolRequest arguments into a map.
func ParseArguments(req *sdkmcp.CallToolRequest) (map[string]any, error) {
	return mcp.ParseArguments(req)
}
