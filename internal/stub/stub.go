package stub

import (
	"context"
	stderrors "errors"
	"fmt"
	"maps"

	"github.com/wagiedev/mcp-toolbridge/internal/config"
	"github.com/wagiedev/mcp-toolbridge/internal/connection"
	"github.com/wagiedev/mcp-toolbridge/internal/mcp"
	"github.com/wagiedev/mcp-toolbridge/internal/proxy"
	"github.com/wagiedev/mcp-toolbridge/internal/registry"
)

// Func is the signature of a bound or generated stub.
type Func func(ctx context.Context, input map[string]any) (string, error)

// Invoker routes a call to a server's tool. Direct sessions, proxy clients
// and registries all qualify.
type Invoker interface {
	CallTool(ctx context.Context, server, tool string, input map[string]any) (string, error)
}

// Compile-time verification of the supported invokers.
var (
	_ Invoker = (*Direct)(nil)
	_ Invoker = (*proxy.Client)(nil)
	_ Invoker = (*registry.Registry)(nil)
)

// Stub is a tool bound to the way it is reached.
type Stub struct {
	Descriptor mcp.ToolDescriptor
	Identifier string

	invoker Invoker
}

// Bind binds desc to invoker.
func Bind(desc mcp.ToolDescriptor, invoker Invoker) (*Stub, error) {
	if invoker == nil {
		return nil, stderrors.New("bind stub: nil invoker")
	}

	if desc.ServerName == "" || desc.LocalName == "" {
		return nil, fmt.Errorf("bind stub %q: descriptor lacks server or tool name", desc.QualifiedName)
	}

	return &Stub{
		Descriptor: desc.Clone(),
		Identifier: Identifier(desc.LocalName),
		invoker:    invoker,
	}, nil
}

// Call invokes the tool with input and returns its normalized text result.
func (s *Stub) Call(ctx context.Context, input map[string]any) (string, error) {
	return s.invoker.CallTool(ctx, s.Descriptor.ServerName, s.Descriptor.LocalName, input)
}

// Func returns the stub as a plain function value.
func (s *Stub) Func() Func {
	return s.Call
}

// BindAll binds a catalog. targetFor picks the invoker for each server and is
// called once per server. Tools of one server whose identifiers collide fail
// the whole bind with *errors.NameCollisionError. The result is keyed by
// qualified name.
func BindAll(descs []mcp.ToolDescriptor, targetFor func(server string) (Invoker, error)) (map[string]*Stub, error) {
	byServer := make(map[string][]mcp.ToolDescriptor)

	var servers []string

	for _, d := range descs {
		if _, ok := byServer[d.ServerName]; !ok {
			servers = append(servers, d.ServerName)
		}

		byServer[d.ServerName] = append(byServer[d.ServerName], d)
	}

	out := make(map[string]*Stub, len(descs))

	for _, server := range servers {
		tools := byServer[server]

		if _, err := CheckCollisions(server, tools); err != nil {
			return nil, err
		}

		invoker, err := targetFor(server)
		if err != nil {
			return nil, fmt.Errorf("bind stubs for server %q: %w", server, err)
		}

		for _, d := range tools {
			s, err := Bind(d, invoker)
			if err != nil {
				return nil, err
			}

			out[d.QualifiedName] = s
		}
	}

	return out, nil
}

// Direct calls tools of a streamable HTTP server, opening a fresh session
// for every call.
type Direct struct {
	url     string
	headers map[string]string
	opts    *config.Options
}

// NewDirect returns a direct invoker for the server at url.
func NewDirect(url string, headers map[string]string, opts *config.Options) *Direct {
	return &Direct{
		url:     url,
		headers: maps.Clone(headers),
		opts:    opts.WithDefaults(),
	}
}

// CallTool connects, calls tool and disconnects.
func (d *Direct) CallTool(ctx context.Context, server, tool string, input map[string]any) (string, error) {
	conn := connection.New(mcp.ServerSpec{
		Name:   server,
		Config: &mcp.HTTPServerConfig{URL: d.url, Headers: d.headers},
	}, d.opts)

	if err := conn.Connect(ctx); err != nil {
		return "", err
	}

	defer func() {
		_ = conn.Disconnect(context.WithoutCancel(ctx))
	}()

	return conn.CallTool(ctx, tool, input)
}
