// Command toolbridge-stubgen connects to MCP tool servers, discovers their
// tools and writes one Go package of typed call stubs per server.
//
// A single server:
//
//	toolbridge-stubgen -transport http -server-name search -server-url http://localhost:8081/mcp
//	toolbridge-stubgen -transport stdio -server-name fs -command npx \
//	    -args '["-y","@modelcontextprotocol/server-filesystem","/tmp"]'
//
// Every server of an mcpServers file:
//
//	toolbridge-stubgen -config servers.yaml -out ./tools
//
// Stubs for HTTP servers open a session per call. Stubs for stdio servers go
// through the proxy at -proxy-url, which must be running when they are used.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	toolbridge "github.com/wagiedev/mcp-toolbridge"
)

var errUsage = errors.New("usage error")

type flags struct {
	transport  string
	serverName string
	serverURL  string
	command    string
	args       string
	env        string
	out        string
	proxyURL   string
	configFile string
	verbose    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	if err == nil {
		return
	}

	fmt.Fprintf(os.Stderr, "toolbridge-stubgen: %v\n", err)

	if errors.Is(err, errUsage) {
		os.Exit(2)
	}

	os.Exit(1)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	f, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	specs, err := f.specs()
	if err != nil {
		return err
	}

	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}

	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	var files []toolbridge.StubFile

	err = toolbridge.WithRegistry(ctx, specs, func(reg *toolbridge.Registry) error {
		if reg.Len() == 0 {
			return errors.New("no tool server could be reached")
		}

		files, err = toolbridge.GenerateStubs(reg.Catalog(), toolbridge.GenerateOptions{
			Targets:         targets(specs, f.proxyURL),
			DefaultProxyURL: f.proxyURL,
		})

		return err
	}, toolbridge.WithLogger(log))
	if err != nil {
		return err
	}

	if err := toolbridge.WriteStubs(f.out, files); err != nil {
		return err
	}

	_, err = fmt.Fprintf(stdout, "wrote %d files to %s\n", len(files), f.out)

	return err
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	fs := flag.NewFlagSet("toolbridge-stubgen", flag.ContinueOnError)
	fs.SetOutput(stderr)

	f := &flags{}
	fs.StringVar(&f.transport, "transport", "", "transport type: http or stdio")
	fs.StringVar(&f.serverName, "server-name", "", "MCP server name")
	fs.StringVar(&f.serverURL, "server-url", "", "HTTP MCP server URL (e.g. http://localhost:8081/mcp)")
	fs.StringVar(&f.command, "command", "", "command that starts the stdio MCP server")
	fs.StringVar(&f.args, "args", "[]", "arguments for the stdio server as a JSON list")
	fs.StringVar(&f.env, "env", "", `additional environment as a JSON object (e.g. '{"API_KEY":"xxx"}')`)
	fs.StringVar(&f.out, "out", "extensions/wrapped_mcp", "output directory")
	fs.StringVar(&f.proxyURL, "proxy-url", "http://localhost:8082", "proxy URL used by stdio server stubs")
	fs.StringVar(&f.configFile, "config", "", "mcpServers config file; generates stubs for every server")
	fs.BoolVar(&f.verbose, "v", false, "verbose logging")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}

	return f, nil
}

// specs builds the server list from -config or from the single-server flags.
func (f *flags) specs() ([]toolbridge.ServerSpec, error) {
	if f.configFile != "" {
		if f.transport != "" {
			return nil, fmt.Errorf("%w: -config and -transport are mutually exclusive", errUsage)
		}

		file, err := toolbridge.LoadConfig(f.configFile)
		if err != nil {
			return nil, err
		}

		return file.Servers, nil
	}

	switch toolbridge.ServerType(f.transport) {
	case toolbridge.ServerTypeHTTP:
		if f.serverURL == "" {
			return nil, fmt.Errorf("%w: -server-url is required for http transport", errUsage)
		}

		name := f.serverName
		if name == "" {
			name = "http_server"
		}

		return []toolbridge.ServerSpec{{
			Name:   name,
			Config: &toolbridge.HTTPServerConfig{URL: f.serverURL},
		}}, nil

	case toolbridge.ServerTypeStdio:
		if f.command == "" {
			return nil, fmt.Errorf("%w: -command is required for stdio transport", errUsage)
		}

		if f.serverName == "" {
			return nil, fmt.Errorf("%w: -server-name is required for stdio transport", errUsage)
		}

		var args []string
		if err := json.Unmarshal([]byte(f.args), &args); err != nil {
			return nil, fmt.Errorf("%w: -args: %v", errUsage, err)
		}

		var env map[string]string
		if f.env != "" {
			if err := json.Unmarshal([]byte(f.env), &env); err != nil {
				return nil, fmt.Errorf("%w: -env: %v", errUsage, err)
			}
		}

		return []toolbridge.ServerSpec{{
			Name:   f.serverName,
			Config: &toolbridge.StdioServerConfig{Command: f.command, Args: args, Env: env},
		}}, nil

	default:
		return nil, fmt.Errorf("%w: -transport must be http or stdio, or use -config", errUsage)
	}
}

func targets(specs []toolbridge.ServerSpec, proxyURL string) map[string]toolbridge.StubTarget {
	out := make(map[string]toolbridge.StubTarget, len(specs))

	for _, spec := range specs {
		switch cfg := spec.Config.(type) {
		case *toolbridge.HTTPServerConfig:
			out[spec.Name] = toolbridge.StubTarget{Type: toolbridge.ServerTypeHTTP, URL: cfg.URL}
		default:
			out[spec.Name] = toolbridge.StubTarget{Type: toolbridge.ServerTypeStdio, URL: proxyURL}
		}
	}

	return out
}
