// Package config holds the settings shared by connections, registries, the
// proxy service and stubs, and loads server catalogs from mcpServers files.
package config

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcp-toolbridge/internal/mcp"
)

// Defaults applied by WithDefaults.
const (
	DefaultHandshakeTimeout  = 30 * time.Second
	DefaultShutdownGrace     = 5 * time.Second
	DefaultConcurrency       = 8
	DefaultProxyHost         = "localhost"
	DefaultProxyPort         = 8082
	DefaultReadinessAttempts = 30
	DefaultReadinessInterval = 100 * time.Millisecond
	DefaultProbeTimeout      = 500 * time.Millisecond
	DefaultStopTimeout       = 5 * time.Second
	DefaultProxyCallTimeout  = 30 * time.Second
	DefaultClientName        = "toolbridge"
	DefaultClientVersion     = "0.1.0"
)

// Dialer produces the MCP transport used to reach a server.
// Tests substitute in-memory transports here.
type Dialer func(ctx context.Context, spec mcp.ServerSpec) (sdkmcp.Transport, error)

// Options configures connections, registries and the proxy service.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// ClientInfo identifies this client during the MCP handshake.
	ClientInfo *sdkmcp.Implementation

	// HandshakeTimeout bounds transport setup, initialization and tool
	// discovery for one connect attempt.
	HandshakeTimeout time.Duration

	// CallTimeout bounds a single tool call. Zero means only the caller's
	// context applies.
	CallTimeout time.Duration

	// ShutdownGrace bounds how long a registry waits for each connection
	// to disconnect during shutdown.
	ShutdownGrace time.Duration

	// Concurrency bounds parallel connects in AddServers.
	Concurrency int

	// ValidateInput enables JSON schema validation of tool inputs before
	// they are forwarded.
	ValidateInput bool

	// Dialer overrides transport construction.
	Dialer Dialer

	// HTTPClient is used for streamable HTTP servers and proxy calls.
	HTTPClient *http.Client

	// Stderr receives each stderr line of spawned stdio servers. When nil
	// the child's stderr is discarded.
	Stderr io.Writer

	// ProxyHost and ProxyPort are where the proxy process listens.
	// A zero port selects DefaultProxyPort, a negative one lets the OS pick.
	ProxyHost string
	ProxyPort int

	// ProxyExecutable is an explicit path to the proxy binary.
	ProxyExecutable string

	// ProxyEnv is added to the proxy process environment.
	ProxyEnv map[string]string

	// ProxyLogLevel is the level the proxy process logs at on its stderr.
	ProxyLogLevel slog.Level

	// Readiness polling and shutdown tuning for the proxy service.
	ReadinessAttempts     int
	ReadinessInterval     time.Duration
	ReadinessProbeTimeout time.Duration
	StopTimeout           time.Duration
	ProxyCallTimeout      time.Duration
}

// WithDefaults returns a copy of o with zero fields replaced by defaults.
// A nil receiver yields the defaults. It is idempotent.
func (o *Options) WithDefaults() *Options {
	var out Options
	if o != nil {
		out = *o
	}

	if out.Logger == nil {
		out.Logger = slog.New(slog.DiscardHandler)
	}

	if out.ClientInfo == nil {
		out.ClientInfo = &sdkmcp.Implementation{Name: DefaultClientName, Version: DefaultClientVersion}
	}

	if out.HandshakeTimeout <= 0 {
		out.HandshakeTimeout = DefaultHandshakeTimeout
	}

	if out.ShutdownGrace <= 0 {
		out.ShutdownGrace = DefaultShutdownGrace
	}

	if out.Concurrency <= 0 {
		out.Concurrency = DefaultConcurrency
	}

	if out.HTTPClient == nil {
		out.HTTPClient = http.DefaultClient
	}

	if out.ProxyHost == "" {
		out.ProxyHost = DefaultProxyHost
	}

	if out.ProxyPort == 0 {
		out.ProxyPort = DefaultProxyPort
	}

	if out.ReadinessAttempts <= 0 {
		out.ReadinessAttempts = DefaultReadinessAttempts
	}

	if out.ReadinessInterval <= 0 {
		out.ReadinessInterval = DefaultReadinessInterval
	}

	if out.ReadinessProbeTimeout <= 0 {
		out.ReadinessProbeTimeout = DefaultProbeTimeout
	}

	if out.StopTimeout <= 0 {
		out.StopTimeout = DefaultStopTimeout
	}

	if out.ProxyCallTimeout <= 0 {
		out.ProxyCallTimeout = DefaultProxyCallTimeout
	}

	return &out
}

// ListenPort is the port the proxy should bind: ProxyPort, with a negative
// value mapped to 0.
func (o *Options) ListenPort() int {
	return max(o.ProxyPort, 0)
}
