package connection

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcp-toolbridge/internal/cli"
	"github.com/wagiedev/mcp-toolbridge/internal/config"
	"github.com/wagiedev/mcp-toolbridge/internal/mcp"
)

// DefaultDialer builds real transports: a child process for stdio specs and
// a streamable HTTP client for HTTP specs.
func DefaultDialer(opts *config.Options) config.Dialer {
	return func(_ context.Context, spec mcp.ServerSpec) (sdkmcp.Transport, error) {
		switch c := spec.Config.(type) {
		case *mcp.StdioServerConfig:
			// exec.Command, not CommandContext: the child must outlive the
			// connect context and is stopped by closing the session.
			//nolint:gosec // G204: launching configured tool servers is the point
			cmd := exec.Command(c.Command, c.Args...)
			cmd.Env = cli.BuildEnvironment(os.Environ(), c.Env)

			if opts.Stderr != nil {
				cmd.Stderr = opts.Stderr
			} else {
				cmd.Stderr = newLogWriter(opts.Logger.With("server", spec.Name, "stream", "stderr"))
			}

			return &sdkmcp.CommandTransport{Command: cmd}, nil

		case *mcp.HTTPServerConfig:
			client := opts.HTTPClient
			if len(c.Headers) > 0 {
				client = withHeaders(client, c.Headers)
			}

			return &sdkmcp.StreamableClientTransport{Endpoint: c.URL, HTTPClient: client}, nil

		default:
			return nil, fmt.Errorf("unsupported server config %T", spec.Config)
		}
	}
}

// headerTransport adds fixed headers to every request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	return t.base.RoundTrip(req)
}

func withHeaders(client *http.Client, headers map[string]string) *http.Client {
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	out := *client
	out.Transport = &headerTransport{base: base, headers: maps.Clone(headers)}

	return &out
}

// logWriter forwards complete lines written to it as debug log records.
type logWriter struct {
	log *slog.Logger
	mu  sync.Mutex
	buf bytes.Buffer
}

var _ io.Writer = (*logWriter)(nil)

func newLogWriter(log *slog.Logger) *logWriter {
	return &logWriter{log: log}
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)

	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Keep the partial line for the next write.
			w.buf.Reset()
			w.buf.WriteString(line)

			break
		}

		w.log.Debug(strings.TrimRight(line, "\r\n"))
	}

	return len(p), nil
}
