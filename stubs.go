package toolbridge

import (
	"context"

	"github.com/wagiedev/mcp-toolbridge/internal/proxy"
	"github.com/wagiedev/mcp-toolbridge/internal/stub"
	"github.com/wagiedev/mcp-toolbridge/internal/stubgen"
)

// BindStub binds one tool to an invoker.
func BindStub(desc ToolDescriptor, invoker Invoker) (*Stub, error) {
	return stub.Bind(desc, invoker)
}

// BindStubs binds a whole catalog, keyed by qualified name. targetFor picks
// the invoker for each server. Tools of one server whose stub identifiers
// collide fail with *NameCollisionError.
func BindStubs(descs []ToolDescriptor, targetFor func(server string) (Invoker, error)) (map[string]*Stub, error) {
	return stub.BindAll(descs, targetFor)
}

// DirectInvoker returns an invoker that opens a fresh streamable HTTP
// session to url for every call.
func DirectInvoker(url string, headers map[string]string, opts ...Option) Invoker {
	return stub.NewDirect(url, headers, applyOptions(opts))
}

// CallDirect calls tool on the streamable HTTP server at url using a fresh
// session. Generated stubs for HTTP servers call this.
func CallDirect(ctx context.Context, url, server, tool string, input map[string]any) (string, error) {
	return stub.NewDirect(url, nil, nil).CallTool(ctx, server, tool, input)
}

// CallProxy calls tool on server through the proxy at proxyURL. Generated
// stubs for stdio servers call this.
func CallProxy(ctx context.Context, proxyURL, server, tool string, input map[string]any) (string, error) {
	return proxy.NewClient(proxyURL, nil).CallTool(ctx, server, tool, input)
}

// GenerateStubs renders Go source stubs for descs.
func GenerateStubs(descs []ToolDescriptor, opts GenerateOptions) ([]StubFile, error) {
	return stubgen.Generate(descs, opts)
}

// WriteStubs writes generated files under dir.
func WriteStubs(dir string, files []StubFile) error {
	return stubgen.Write(dir, files)
}
