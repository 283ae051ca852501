// Command toolbridge-proxy hosts stdio MCP tool servers behind an HTTP
// surface so that short-lived callers can reach them without spawning a
// process per call.
//
// It is normally launched by toolbridge.ProxyService:
//
//	toolbridge-proxy -config '{"host":"localhost","port":8082,"servers":[...]}'
//
// or by hand from an mcpServers file:
//
//	toolbridge-proxy -config-file servers.yaml
//
// Once listening it prints "TOOLBRIDGE_PROXY_LISTENING <addr>" on stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	toolbridge "github.com/wagiedev/mcp-toolbridge"
	"github.com/wagiedev/mcp-toolbridge/internal/proxy"
)

func main() {
	err := toolbridge.RunProxyProcess(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "toolbridge-proxy: %v\n", err)

	if errors.Is(err, proxy.ErrUsage) {
		os.Exit(2)
	}

	os.Exit(1)
}
