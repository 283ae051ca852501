package proxy

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wagiedev/mcp-toolbridge/internal/cli"
	"github.com/wagiedev/mcp-toolbridge/internal/config"
	"github.com/wagiedev/mcp-toolbridge/internal/errors"
	"github.com/wagiedev/mcp-toolbridge/internal/mcp"
	"github.com/wagiedev/mcp-toolbridge/internal/subprocess"
)

// Handle describes a running proxy process.
type Handle struct {
	Host  string
	Port  int
	Pid   int
	Ready bool
}

// Service launches and supervises the proxy process.
type Service struct {
	opts  *config.Options
	log   *slog.Logger
	specs []mcp.ServerSpec

	startMu sync.Mutex // serializes Start

	mu    sync.Mutex
	epoch uint64 // bumped by every Start and Stop
	proc  *subprocess.Process
	addr  string
	ready bool
}

// NewService creates a stopped service for specs. Only stdio specs are
// forwarded to the proxy process.
func NewService(specs []mcp.ServerSpec, opts *config.Options) *Service {
	opts = opts.WithDefaults()

	cloned := make([]mcp.ServerSpec, len(specs))
	for i, s := range specs {
		cloned[i] = s.Clone()
	}

	return &Service{
		opts:  opts,
		log:   opts.Logger.With("component", "proxy_service"),
		specs: cloned,
	}
}

// Start launches the proxy process and waits for it to answer GET /.
//
// If the process does not answer within the readiness window a warning is
// logged and Start returns nil with the process still running. If the
// process exits during the window Start returns its *errors.ProcessError.
func (s *Service) Start(ctx context.Context) error {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.mu.Lock()
	if s.proc != nil && !s.proc.Exited() {
		s.mu.Unlock()
		s.log.Info("Proxy already running", "addr", s.URL())

		return nil
	}

	s.proc, s.addr, s.ready = nil, "", false
	s.epoch++
	epoch := s.epoch
	s.mu.Unlock()

	path, err := cli.NewDiscoverer(&cli.Config{
		ExplicitPath: s.opts.ProxyExecutable,
		Logger:       s.opts.Logger,
	}).Discover(ctx)
	if err != nil {
		return err
	}

	lc, dropped := NewLaunchConfig(s.specs, s.opts)
	if len(dropped) > 0 {
		s.log.Info("HTTP servers are not proxied", "servers", dropped)
	}

	data, err := json.Marshal(lc)
	if err != nil {
		return fmt.Errorf("encode launch config: %w", err)
	}

	cmd := cli.BuildProxyCommand(path, data, os.Environ(), s.opts.ProxyEnv)
	announced := make(chan struct{}, 1)

	proc, err := subprocess.Start(ctx, subprocess.Config{
		Path:     cmd.Path,
		Args:     cmd.Args,
		Env:      cmd.Env,
		OnStdout: s.onStdout(epoch, announced),
		OnStderr: s.onStderr,
		Logger:   s.opts.Logger,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.proc = proc
	if lc.Port != 0 && s.addr == "" {
		s.addr = net.JoinHostPort(lc.Host, strconv.Itoa(lc.Port))
	}
	s.mu.Unlock()

	s.log.Info("Proxy process started", "pid", proc.Pid(), "servers", len(lc.Servers))

	if err := s.waitReady(ctx, proc, announced); err != nil {
		_ = proc.Kill(context.WithoutCancel(ctx))

		s.mu.Lock()
		s.proc, s.addr, s.ready = nil, "", false
		s.epoch++
		s.mu.Unlock()

		return err
	}

	return nil
}

// onStdout records the announced address whenever it arrives, including
// after the readiness window, and wakes waitReady.
func (s *Service) onStdout(epoch uint64, announced chan<- struct{}) func(string) {
	return func(line string) {
		if addr, ok := strings.CutPrefix(line, AnnouncePrefix+" "); ok {
			s.setAddr(epoch, strings.TrimSpace(addr))

			select {
			case announced <- struct{}{}:
			default:
			}

			return
		}

		s.log.Debug(line, "stream", "stdout")
	}
}

func (s *Service) onStderr(line string) {
	if s.opts.Stderr != nil {
		_, _ = fmt.Fprintln(s.opts.Stderr, line)

		return
	}

	s.log.Debug(line, "stream", "stderr")
}

func (s *Service) waitReady(ctx context.Context, proc *subprocess.Process, announced <-chan struct{}) error {
	ticker := time.NewTicker(s.opts.ReadinessInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= s.opts.ReadinessAttempts; attempt++ {
		if proc.Exited() {
			return exitError(proc)
		}

		if base := s.URL(); base != "" && s.probe(ctx, base) {
			s.mu.Lock()
			s.ready = true
			s.mu.Unlock()

			s.log.Info("Proxy ready", "url", base, "attempts", attempt)

			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-proc.Done():
		case <-announced:
		case <-ticker.C:
		}
	}

	if proc.Exited() {
		return exitError(proc)
	}

	s.log.Warn("Proxy did not become ready", "attempts", s.opts.ReadinessAttempts, "url", s.URL())

	return nil
}

func exitError(proc *subprocess.Process) error {
	if err := proc.Err(); err != nil {
		return err
	}

	return &errors.ProcessError{
		ExitCode: 0,
		Stderr:   proc.Stderr(),
		Err:      stderrors.New("proxy exited during startup"),
	}
}

// setAddr stores addr unless the process that announced it has since been
// stopped or replaced.
func (s *Service) setAddr(epoch uint64, addr string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return
	}

	s.addr = addr

	s.log.Debug("Proxy announced address", "addr", addr)
}

func (s *Service) probe(ctx context.Context, base string) bool {
	ctx, cancel := context.WithTimeout(ctx, s.opts.ReadinessProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/", nil)
	if err != nil {
		return false
	}

	resp, err := s.opts.HTTPClient.Do(req)
	if err != nil {
		return false
	}

	_ = resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// Stop terminates the proxy process: SIGTERM, then SIGKILL after the stop
// timeout. Stop on a stopped service is a no-op.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	proc := s.proc
	s.proc, s.addr, s.ready = nil, "", false
	s.epoch++
	s.mu.Unlock()

	if proc == nil {
		return nil
	}

	s.log.Info("Stopping proxy process", "pid", proc.Pid())

	return proc.Terminate(ctx, s.opts.StopTimeout)
}

// URL returns the proxy base URL, or "" while the address is unknown.
func (s *Service) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.addr == "" {
		return ""
	}

	return "http://" + s.addr
}

// Ready reports whether the proxy answered a readiness probe.
func (s *Service) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ready && s.proc != nil && !s.proc.Exited()
}

// Handle describes the running process. ok is false when stopped.
func (s *Service) Handle() (h Handle, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.proc == nil {
		return Handle{}, false
	}

	h = Handle{Pid: s.proc.Pid(), Ready: s.ready && !s.proc.Exited()}

	if host, port, err := net.SplitHostPort(s.addr); err == nil {
		h.Host = host
		h.Port, _ = strconv.Atoi(port)
	}

	return h, true
}

// Client returns a proxy client bound to the current address.
func (s *Service) Client() (*Client, error) {
	base := s.URL()
	if base == "" {
		return nil, errors.ErrProxyNotRunning
	}

	return NewClient(base, s.opts), nil
}
