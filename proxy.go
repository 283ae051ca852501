package toolbridge

import (
	"context"
	"io"

	"github.com/wagiedev/mcp-toolbridge/internal/proxy"
)

// NewProxy creates a stopped proxy service for specs. Only stdio specs are
// hosted by the proxy process; HTTP specs are reachable directly.
//
//	svc := toolbridge.NewProxy(specs, toolbridge.WithProxyAddress("localhost", 8082))
//	if err := svc.Start(ctx); err != nil {
//	    return err
//	}
//	defer svc.Stop(context.Background())
func NewProxy(specs []ServerSpec, opts ...Option) *ProxyService {
	return proxy.NewService(specs, applyOptions(opts))
}

// NewProxyClient returns a client for the proxy at baseURL.
func NewProxyClient(baseURL string, opts ...Option) *ProxyClient {
	return proxy.NewClient(baseURL, applyOptions(opts))
}

// RunProxyProcess is the entry point of the toolbridge-proxy binary. It
// serves until ctx ends or the process receives SIGTERM or SIGINT.
func RunProxyProcess(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	return proxy.RunProcess(ctx, args, stdout, stderr)
}
