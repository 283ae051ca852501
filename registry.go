package toolbridge

import (
	"context"
	"fmt"

	"github.com/wagiedev/mcp-toolbridge/internal/config"
	"github.com/wagiedev/mcp-toolbridge/internal/connection"
	"github.com/wagiedev/mcp-toolbridge/internal/mcp"
	"github.com/wagiedev/mcp-toolbridge/internal/registry"
)

// NewConnection creates a disconnected connection to one tool server.
func NewConnection(spec ServerSpec, opts ...Option) *Connection {
	return connection.New(spec, applyOptions(opts))
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	return registry.New(applyOptions(opts))
}

// WithRegistry manages registry lifecycle with automatic cleanup.
//
// This helper creates a registry, connects every spec concurrently, executes
// the callback function, and shuts the registry down when done.
//
// Servers that fail to connect are logged and left out; the callback still
// runs with the ones that succeeded. If the callback returns an error, it is
// returned to the caller. A failed shutdown is logged but does not override
// the callback's error.
//
// Example usage:
//
//	err := toolbridge.WithRegistry(ctx, specs, func(reg *toolbridge.Registry) error {
//	    out, err := reg.Invoke(ctx, "calc__add", map[string]any{"a": 1, "b": 2})
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(out)
//	    return nil
//	},
//	    toolbridge.WithLogger(log),
//	)
func WithRegistry(ctx context.Context, specs []ServerSpec, fn func(*Registry) error, opts ...Option) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	options := applyOptions(opts)
	reg := registry.New(options)

	defer func() {
		if err := reg.Shutdown(context.WithoutCancel(ctx)); err != nil {
			options.Logger.Warn("failed to shut down registry", "error", err)
		}
	}()

	reg.AddServers(ctx, specs)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("connect tool servers: %w", err)
	}

	return fn(reg)
}

// LoadConfig reads an mcpServers configuration file (YAML or JSON).
// ${VAR} references are expanded from the environment.
func LoadConfig(path string) (*ConfigFile, error) {
	return config.Load(path)
}

// ParseConfig parses an mcpServers configuration document.
func ParseConfig(data []byte) (*ConfigFile, error) {
	return config.Parse(data)
}

// QualifiedName joins a server name and a tool's local name.
func QualifiedName(server, tool string) string {
	return mcp.QualifiedName(server, tool)
}

// SplitQualifiedName splits a qualified tool name on the first separator.
func SplitQualifiedName(name string) (server, tool string, err error) {
	return mcp.SplitQualifiedName(name)
}
