// Package toolbridge connects Go programs to Model Context Protocol tool
// servers and turns their tools into plain function calls.
//
// It covers four concerns:
//   - a [Connection] per server, speaking MCP over stdio or streamable HTTP
//   - a [Registry] that merges many servers into one catalog of qualified
//     tool names ("<server>__<tool>") and routes calls
//   - a [ProxyService] that hosts stdio servers in a separate process behind
//     a small HTTP surface, for callers that cannot spawn processes
//   - stubs: runtime bindings ([BindStub]) and generated Go source
//     ([GenerateStubs]) for each discovered tool
//
// # Basic Usage
//
// Connect a set of servers, list their tools and call one:
//
//	specs := []toolbridge.ServerSpec{
//	    {Name: "fs", Config: &toolbridge.StdioServerConfig{
//	        Command: "mcp-server-filesystem",
//	        Args:    []string{"/tmp"},
//	    }},
//	}
//
//	err := toolbridge.WithRegistry(ctx, specs, func(reg *toolbridge.Registry) error {
//	    for _, tool := range reg.Catalog() {
//	        fmt.Println(tool.QualifiedName, tool.Description)
//	    }
//
//	    out, err := reg.Invoke(ctx, "fs__list_directory", map[string]any{"path": "/tmp"})
//	    if err != nil {
//	        return err
//	    }
//
//	    fmt.Println(out)
//
//	    return nil
//	}, toolbridge.WithLogger(logger))
//
// # Proxy
//
// Stdio servers can be hosted by the toolbridge-proxy binary:
//
//	proxy := toolbridge.NewProxy(specs, toolbridge.WithProxyAddress("localhost", 8082))
//	if err := proxy.Start(ctx); err != nil {
//	    return err
//	}
//	defer proxy.Stop(context.Background())
//
//	out, err := toolbridge.CallProxy(ctx, proxy.URL(), "fs", "list_directory", input)
//
// # Logging
//
// All components log through log/slog. Pass a logger with [WithLogger];
// without one logging is disabled.
//
// # Error Handling
//
// Errors are typed and wrap their causes:
//
//	out, err := reg.Invoke(ctx, name, input)
//	if callErr, ok := errors.AsType[*toolbridge.ToolCallError](err); ok {
//	    log.Printf("tool %s failed: %s", callErr.Tool, callErr.Detail)
//	}
//	if errors.Is(err, toolbridge.ErrUnknownServer) {
//	    // ...
//	}
package toolbridge
