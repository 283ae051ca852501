package toolbridge

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcp-toolbridge/internal/config"
)

// Options holds the settings shared by connections, registries, proxies and
// stubs. Build it with Option values.
type Options = config.Options

// Dialer produces the MCP transport for a server spec. Tests substitute
// in-memory transports here.
type Dialer = config.Dialer

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to a fresh Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options.WithDefaults()
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithClientInfo sets the client name and version sent during the MCP
// handshake.
func WithClientInfo(name, version string) Option {
	return func(o *Options) {
		o.ClientInfo = &sdkmcp.Implementation{Name: name, Version: version}
	}
}

// WithHTTPClient sets the HTTP client used for streamable HTTP servers and
// proxy calls.
func WithHTTPClient(client *http.Client) Option {
	return func(o *Options) {
		o.HTTPClient = client
	}
}

// WithDialer overrides transport construction.
func WithDialer(dialer Dialer) Option {
	return func(o *Options) {
		o.Dialer = dialer
	}
}

// WithStderr receives the stderr output of spawned stdio servers and of the
// proxy process. By default it is logged at debug level.
func WithStderr(w io.Writer) Option {
	return func(o *Options) {
		o.Stderr = w
	}
}

// ===== Connections =====

// WithHandshakeTimeout bounds transport setup, initialization and tool
// discovery. Defaults to 30s.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.HandshakeTimeout = d
	}
}

// WithCallTimeout bounds each tool call. By default only the caller's
// context applies.
func WithCallTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.CallTimeout = d
	}
}

// WithInputValidation validates tool inputs against their JSON schema before
// they are sent.
func WithInputValidation() Option {
	return func(o *Options) {
		o.ValidateInput = true
	}
}

// ===== Registry =====

// WithShutdownGrace bounds each connection's disconnect during registry
// shutdown. Defaults to 5s.
func WithShutdownGrace(d time.Duration) Option {
	return func(o *Options) {
		o.ShutdownGrace = d
	}
}

// WithConcurrency bounds parallel connects when adding many servers.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		o.Concurrency = n
	}
}

// ===== Proxy =====

// WithProxyAddress sets where the proxy process listens. Port 0 selects
// the default port 8082; a negative port lets the OS pick one.
func WithProxyAddress(host string, port int) Option {
	return func(o *Options) {
		o.ProxyHost = host
		o.ProxyPort = port
	}
}

// WithProxyExecutable sets an explicit path to the toolbridge-proxy binary.
// If not set, the binary is searched for.
func WithProxyExecutable(path string) Option {
	return func(o *Options) {
		o.ProxyExecutable = path
	}
}

// WithProxyEnv provides additional environment variables for the proxy
// process.
func WithProxyEnv(env map[string]string) Option {
	return func(o *Options) {
		o.ProxyEnv = env
	}
}

// WithProxyLogLevel sets the level the proxy process logs at.
func WithProxyLogLevel(level slog.Level) Option {
	return func(o *Options) {
		o.ProxyLogLevel = level
	}
}

// WithReadiness tunes proxy readiness polling: the number of probes, the
// spacing between them and the timeout of each.
func WithReadiness(attempts int, interval, probeTimeout time.Duration) Option {
	return func(o *Options) {
		o.ReadinessAttempts = attempts
		o.ReadinessInterval = interval
		o.ReadinessProbeTimeout = probeTimeout
	}
}

// WithStopTimeout sets how long Stop waits after SIGTERM before killing the
// proxy. Defaults to 5s.
func WithStopTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.StopTimeout = d
	}
}

// WithProxyCallTimeout bounds each call made through the proxy. Defaults
// to 30s.
func WithProxyCallTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.ProxyCallTimeout = d
	}
}
