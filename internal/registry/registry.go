// Package registry aggregates tool server connections behind qualified tool
// names.
package registry

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/mcp-toolbridge/internal/config"
	"github.com/wagiedev/mcp-toolbridge/internal/connection"
	"github.com/wagiedev/mcp-toolbridge/internal/errors"
	"github.com/wagiedev/mcp-toolbridge/internal/mcp"
)

// AddResult reports the outcome of connecting one server in a batch.
type AddResult struct {
	Server string
	Err    error
}

// Registry aggregates tool server connections into one catalog and routes
// invocations by qualified tool name.
type Registry struct {
	opts *config.Options
	log  *slog.Logger

	mu          sync.RWMutex
	connections map[string]*connection.Connection
	order       []string
	pending     map[string]struct{}
	closed      bool
}

// New creates an empty registry.
func New(opts *config.Options) *Registry {
	opts = opts.WithDefaults()

	return &Registry{
		opts:        opts,
		log:         opts.Logger.With("component", "registry"),
		connections: make(map[string]*connection.Connection),
		pending:     make(map[string]struct{}),
	}
}

// AddServer connects to spec and registers it. The server is only inserted
// if the connection reaches Ready; a failed attempt leaves no entry.
//
// After Shutdown it fails with errors.ErrRegistryClosed. An attempt that
// finishes connecting after Shutdown disconnects again and fails the same way.
func (r *Registry) AddServer(ctx context.Context, spec mcp.ServerSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	if err := r.reserve(spec.Name); err != nil {
		return err
	}

	conn := connection.New(spec, r.opts)

	if err := conn.Connect(ctx); err != nil {
		r.release(spec.Name)

		// The attempt may still be settling if ctx ended first.
		_ = conn.Disconnect(context.WithoutCancel(ctx))

		return err
	}

	r.mu.Lock()
	delete(r.pending, spec.Name)

	if r.closed {
		r.mu.Unlock()

		r.log.Debug("Dropping tool server connected after shutdown", "server", spec.Name)
		_ = conn.Disconnect(context.WithoutCancel(ctx))

		return fmt.Errorf("%w: %s", errors.ErrRegistryClosed, spec.Name)
	}

	r.connections[spec.Name] = conn
	r.order = append(r.order, spec.Name)
	r.mu.Unlock()

	r.log.Info("Registered tool server", "server", spec.Name, "type", spec.Type())

	return nil
}

// AddServers connects to all specs concurrently. One failure never aborts
// the batch: every spec gets an AddResult, in input order.
func (r *Registry) AddServers(ctx context.Context, specs []mcp.ServerSpec) []AddResult {
	results := make([]AddResult, len(specs))

	var g errgroup.Group

	g.SetLimit(r.opts.Concurrency)

	for i, spec := range specs {
		g.Go(func() error {
			err := r.AddServer(ctx, spec)
			if err != nil {
				r.log.Warn("Failed to add tool server", "server", spec.Name, "error", err)
			}

			results[i] = AddResult{Server: spec.Name, Err: err}

			return nil
		})
	}

	_ = g.Wait()

	return results
}

func (r *Registry) reserve(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("%w: %s", errors.ErrRegistryClosed, name)
	}

	if _, ok := r.connections[name]; ok {
		return fmt.Errorf("%w: %s", errors.ErrDuplicateServer, name)
	}

	if _, ok := r.pending[name]; ok {
		return fmt.Errorf("%w: %s", errors.ErrDuplicateServer, name)
	}

	r.pending[name] = struct{}{}

	return nil
}

func (r *Registry) release(name string) {
	r.mu.Lock()
	delete(r.pending, name)
	r.mu.Unlock()
}

// Catalog returns every registered server's tools, in registration order.
func (r *Registry) Catalog() []mcp.ToolDescriptor {
	var out []mcp.ToolDescriptor

	for _, conn := range r.snapshot() {
		tools, err := conn.DescribeTools()
		if err != nil {
			r.log.Debug("Skipping server in catalog", "server", conn.Name(), "error", err)

			continue
		}

		out = append(out, tools...)
	}

	return out
}

// Tools returns the tools of one server.
func (r *Registry) Tools(server string) ([]mcp.ToolDescriptor, error) {
	conn, err := r.lookup(server)
	if err != nil {
		return nil, err
	}

	return conn.DescribeTools()
}

// Servers returns the registered server names in registration order.
func (r *Registry) Servers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.order)
}

// Len returns the number of registered servers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

// Status reports each registered server's connection state.
func (r *Registry) Status() mcp.Status {
	conns := r.snapshot()

	st := mcp.Status{Servers: make([]mcp.ServerStatus, 0, len(conns))}
	for _, conn := range conns {
		st.Servers = append(st.Servers, conn.Status())
	}

	return st
}

// Invoke calls a tool by its qualified name.
func (r *Registry) Invoke(ctx context.Context, qualifiedName string, input map[string]any) (string, error) {
	server, tool, err := mcp.SplitQualifiedName(qualifiedName)
	if err != nil {
		return "", err
	}

	return r.CallTool(ctx, server, tool, input)
}

// CallTool calls a tool by server name and local tool name.
func (r *Registry) CallTool(ctx context.Context, server, tool string, input map[string]any) (string, error) {
	conn, err := r.lookup(server)
	if err != nil {
		return "", err
	}

	return conn.CallTool(ctx, tool, input)
}

// Connection returns the connection registered under name.
func (r *Registry) Connection(name string) (*connection.Connection, error) {
	return r.lookup(name)
}

func (r *Registry) lookup(server string) (*connection.Connection, error) {
	r.mu.RLock()
	conn, ok := r.connections[server]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownServer, server)
	}

	return conn, nil
}

func (r *Registry) snapshot() []*connection.Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*connection.Connection, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.connections[name])
	}

	return out
}

// Shutdown disconnects every connection in parallel and clears the registry.
// The registry accepts no servers afterwards.
//
// Each disconnect gets at most the shutdown grace period. Failures are logged
// and returned joined; they never stop the remaining disconnects. Callers may
// treat the returned error as informational: every connection has been
// disconnected or abandoned by the time Shutdown returns.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true

	conns := make([]*connection.Connection, 0, len(r.order))
	for _, name := range r.order {
		conns = append(conns, r.connections[name])
	}

	r.connections = make(map[string]*connection.Connection)
	r.order = nil
	r.mu.Unlock()

	if len(conns) == 0 {
		return nil
	}

	r.log.Info("Shutting down tool servers", "count", len(conns))

	errs := make([]error, len(conns))

	var g errgroup.Group

	for i, conn := range conns {
		g.Go(func() error {
			dctx, cancel := context.WithTimeout(ctx, r.opts.ShutdownGrace)
			defer cancel()

			if err := conn.Disconnect(dctx); err != nil {
				r.log.Warn("Failed to disconnect tool server", "server", conn.Name(), "error", err)
				errs[i] = fmt.Errorf("disconnect %s: %w", conn.Name(), err)
			}

			return nil
		})
	}

	_ = g.Wait()

	return stderrors.Join(errs...)
}
