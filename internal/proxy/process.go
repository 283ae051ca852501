package proxy

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/wagiedev/mcp-toolbridge/internal/cli"
	"github.com/wagiedev/mcp-toolbridge/internal/config"
	"github.com/wagiedev/mcp-toolbridge/internal/registry"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// ErrUsage is returned by RunProcess for invalid command line arguments.
var ErrUsage = stderrors.New("usage error")

// RunProcess is the proxy process entry point. It connects the configured
// stdio servers, serves the HTTP surface until ctx ends or SIGTERM/SIGINT
// arrives, then stops the HTTP server and disconnects the servers.
func RunProcess(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet(cli.ProxyBinary, flag.ContinueOnError)
	fs.SetOutput(stderr)

	configJSON := fs.String("config", "", "launch configuration as JSON")
	configFile := fs.String("config-file", "", "mcpServers config file (YAML or JSON)")
	showVersion := fs.Bool("version", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	if *showVersion {
		_, err := fmt.Fprintf(stdout, "%s %s\n", cli.ProxyBinary, cli.Version)

		return err
	}

	lc, err := loadLaunchConfig(*configJSON, *configFile)
	if err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: lc.Level()})).
		With("component", "proxy_process")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	reg := registry.New(&config.Options{Logger: log})

	for _, res := range reg.AddServers(ctx, lc.Specs()) {
		if res.Err != nil {
			log.Error("Tool server unavailable", "server", res.Server, "error", res.Err)
		}
	}

	log.Info("Tool servers connected", "count", reg.Len())

	ln, err := net.Listen("tcp", net.JoinHostPort(lc.Host, strconv.Itoa(lc.Port)))
	if err != nil {
		shutdownRegistry(reg, log)

		return fmt.Errorf("listen: %w", err)
	}

	if _, err := fmt.Fprintf(stdout, "%s %s\n", AnnouncePrefix, ln.Addr()); err != nil {
		log.Warn("Failed to announce address", "error", err)
	}

	srv := &http.Server{
		Handler:           NewHandler(reg, log),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)

	go func() {
		serveErr <- srv.Serve(ln)
	}()

	log.Info("Proxy listening", "addr", ln.Addr().String())

	var runErr error

	select {
	case <-ctx.Done():
		log.Info("Shutting down proxy")
	case err := <-serveErr:
		if !stderrors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}

	shutdownRegistry(reg, log)

	return runErr
}

func loadLaunchConfig(configJSON, configFile string) (LaunchConfig, error) {
	switch {
	case configJSON != "" && configFile != "":
		return LaunchConfig{}, fmt.Errorf("%w: -config and -config-file are mutually exclusive", ErrUsage)
	case configJSON != "":
		return ParseLaunchConfig([]byte(configJSON))
	case configFile != "":
		f, err := config.Load(configFile)
		if err != nil {
			return LaunchConfig{}, err
		}

		return fromFile(f), nil
	default:
		return LaunchConfig{}, fmt.Errorf("%w: one of -config or -config-file is required", ErrUsage)
	}
}

func shutdownRegistry(reg *registry.Registry, log *slog.Logger) {
	if err := reg.Shutdown(context.Background()); err != nil {
		log.Warn("Tool server shutdown incomplete", "error", err)
	}
}
