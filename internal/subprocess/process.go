package subprocess

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/mcp-toolbridge/internal/errors"
)

const (
	// maxScanTokenSize is the maximum length of a single output line.
	maxScanTokenSize = 1024 * 1024 // 1MB
	// maxStderrBufferSize caps the stderr copy kept for error reporting.
	// Callbacks still receive every line past the cap.
	maxStderrBufferSize = 10 * 1024 * 1024 // 10MB
)

// Config describes the process to start.
type Config struct {
	Path string
	Args []string
	// Env is the complete child environment. Nil inherits the parent's.
	Env []string
	Dir string

	// OnStdout and OnStderr receive each output line. Either may be nil.
	OnStdout func(line string)
	OnStderr func(line string)

	Logger *slog.Logger
}

// Process is a running child process.
type Process struct {
	log *slog.Logger
	cmd *exec.Cmd

	stderrMu  sync.Mutex
	stderrBuf strings.Builder

	mu      sync.Mutex
	closing bool // set once a stop was requested

	done chan struct{}
	err  error // exit outcome, readable after done is closed
}

// Start launches the process. The child is not tied to ctx; stop it with
// Terminate or Kill.
func Start(ctx context.Context, cfg Config) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	log = log.With("component", "subprocess", "path", cfg.Path)

	//nolint:gosec // G204: the caller chooses the binary on purpose
	cmd := exec.Command(cfg.Path, cfg.Args...)
	cmd.Env = cfg.Env
	cmd.Dir = cfg.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		log.Error("Failed to start process", "error", err)

		return nil, fmt.Errorf("start process: %w", err)
	}

	p := &Process{
		log:  log.With("pid", cmd.Process.Pid),
		cmd:  cmd,
		done: make(chan struct{}),
	}

	p.log.Debug("Process started", "args", cfg.Args)

	go p.supervise(stdout, stderr, cfg.OnStdout, cfg.OnStderr)

	return p, nil
}

// supervise drains both pipes, then reaps the process. Pipes must be fully
// read before Wait; see exec.Cmd.StdoutPipe.
func (p *Process) supervise(stdout, stderr io.Reader, onStdout, onStderr func(string)) {
	defer close(p.done)

	var g errgroup.Group

	g.Go(func() error {
		return scanLines(stdout, onStdout)
	})

	g.Go(func() error {
		return scanLines(stderr, func(line string) {
			p.stderrMu.Lock()

			if p.stderrBuf.Len() < maxStderrBufferSize {
				if p.stderrBuf.Len() > 0 {
					p.stderrBuf.WriteString("\n")
				}

				p.stderrBuf.WriteString(line)
			}

			p.stderrMu.Unlock()

			if onStderr != nil {
				onStderr(line)
			}
		})
	})

	if err := g.Wait(); err != nil {
		p.log.Debug("Output scanner error", "error", err)
	}

	waitErr := p.cmd.Wait()

	p.mu.Lock()
	closing := p.closing
	p.mu.Unlock()

	switch {
	case waitErr == nil:
		p.log.Debug("Process exited")
	case closing:
		p.log.Debug("Process terminated during shutdown", "error", waitErr)
	default:
		exitCode := -1
		if exitErr, ok := stderrors.AsType[*exec.ExitError](waitErr); ok {
			exitCode = exitErr.ExitCode()
		}

		p.err = &errors.ProcessError{
			ExitCode: exitCode,
			Stderr:   p.Stderr(),
			Err:      waitErr,
		}

		p.log.Warn("Process exited with error", "exit_code", exitCode)
	}
}

func scanLines(r io.Reader, fn func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxScanTokenSize)

	for scanner.Scan() {
		if fn != nil {
			fn(scanner.Text())
		}
	}

	if err := scanner.Err(); err != nil {
		// Keep draining so the child never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, r)

		return err
	}

	return nil
}

// Pid returns the child's process id.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Done is closed once the process has exited and its output is drained.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Err returns the exit outcome once Done is closed: nil for a clean exit or
// a requested stop, a *errors.ProcessError otherwise.
func (p *Process) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Exited reports whether the process has exited.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Stderr returns the buffered stderr output.
func (p *Process) Stderr() string {
	p.stderrMu.Lock()
	defer p.stderrMu.Unlock()

	return strings.TrimSpace(p.stderrBuf.String())
}

func (p *Process) markClosing() {
	p.mu.Lock()
	p.closing = true
	p.mu.Unlock()
}

// Terminate asks the process to exit with SIGTERM and waits up to grace.
// If it is still running after that it is killed. Terminate returns once the
// process is gone or ctx ends.
func (p *Process) Terminate(ctx context.Context, grace time.Duration) error {
	if p.Exited() {
		return nil
	}

	p.markClosing()
	p.log.Debug("Terminating process", "grace", grace)

	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		if stderrors.Is(err, os.ErrProcessDone) {
			return p.wait(ctx)
		}

		// Platforms without SIGTERM fall straight through to kill.
		p.log.Debug("SIGTERM failed, killing", "error", err)

		return p.Kill(ctx)
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-p.done:
		return nil
	case <-timer.C:
		p.log.Warn("Process did not exit within grace period, killing", "grace", grace)

		return p.Kill(ctx)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Kill sends SIGKILL and waits for the process to exit.
func (p *Process) Kill(ctx context.Context) error {
	p.markClosing()

	if err := p.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill process (pid %d): %w", p.Pid(), err)
	}

	return p.wait(ctx)
}

func (p *Process) wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
