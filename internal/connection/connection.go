package connection

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wagiedev/mcp-toolbridge/internal/config"
	"github.com/wagiedev/mcp-toolbridge/internal/errors"
	"github.com/wagiedev/mcp-toolbridge/internal/mcp"
)

// State is the lifecycle state of a Connection.
type State int

const (
	// StateDisconnected means no session exists.
	StateDisconnected State = iota
	// StateConnecting means a connect attempt is in flight.
	StateConnecting
	// StateReady means the session is live and tools are known.
	StateReady
	// StateDisconnecting means a shutdown was requested and is in progress.
	StateDisconnecting
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// attempt tracks one run of the session goroutine.
type attempt struct {
	ready    chan struct{} // closed once the handshake succeeded or failed
	err      error         // handshake outcome, written before ready is closed
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{} // closed after the session is released
}

func newAttempt() *attempt {
	return &attempt{
		ready: make(chan struct{}),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

func (a *attempt) signalStop() {
	a.stopOnce.Do(func() { close(a.stop) })
}

// Connection manages the session with a single tool server.
//
// A dedicated goroutine owns the session for its whole life: it dials,
// handshakes, discovers tools, and later closes the session when asked to
// stop or when the server goes away. Connect and Disconnect only exchange
// signals with that goroutine.
type Connection struct {
	spec mcp.ServerSpec
	opts *config.Options
	log  *slog.Logger
	dial config.Dialer

	mu        sync.Mutex
	state     State
	current   *attempt
	session   *sdkmcp.ClientSession
	tools     []mcp.ToolDescriptor
	toolIndex map[string]int
	schemas   map[string]*jsonschema.Resolved
	described bool
	lastErr   error
}

// New creates a disconnected connection for spec. The spec is copied.
func New(spec mcp.ServerSpec, opts *config.Options) *Connection {
	opts = opts.WithDefaults()

	dial := opts.Dialer
	if dial == nil {
		dial = DefaultDialer(opts)
	}

	return &Connection{
		spec: spec.Clone(),
		opts: opts,
		log:  opts.Logger.With("component", "connection", "server", spec.Name),
		dial: dial,
	}
}

// Name returns the server name.
func (c *Connection) Name() string {
	return c.spec.Name
}

// Spec returns a copy of the server spec.
func (c *Connection) Spec() mcp.ServerSpec {
	return c.spec.Clone()
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// LastError returns the most recent connect failure or unexpected session
// end, or nil.
func (c *Connection) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastErr
}

// Connect establishes the session and discovers the server's tools.
//
// It is a no-op when the connection is Ready or another attempt is already
// in flight; only the caller that started an attempt observes its error.
// While a disconnect is in progress, Connect waits for it to finish and then
// connects. Cancelling ctx aborts the handshake.
func (c *Connection) Connect(ctx context.Context) error {
	for {
		c.mu.Lock()

		switch c.state {
		case StateReady, StateConnecting:
			c.mu.Unlock()

			return nil

		case StateDisconnecting:
			a := c.current
			c.mu.Unlock()

			select {
			case <-a.done:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}

		default:
			a := newAttempt()
			c.current = a
			c.state = StateConnecting
			c.mu.Unlock()

			c.log.Debug("Connecting to tool server", "type", c.spec.Type())

			go c.run(ctx, a)

			return waitReady(ctx, a)
		}
	}
}

func waitReady(ctx context.Context, a *attempt) error {
	select {
	case <-a.ready:
		return a.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Disconnect closes the session.
//
// It is a no-op when already Disconnected. When a connect attempt is in
// flight it waits for the attempt to settle first. The shutdown request is
// never lost: if ctx ends before the session is released, Disconnect returns
// ctx.Err() and the session goroutine still finishes the shutdown.
func (c *Connection) Disconnect(ctx context.Context) error {
	for {
		c.mu.Lock()

		switch c.state {
		case StateDisconnected:
			c.mu.Unlock()

			return nil

		case StateConnecting:
			a := c.current
			c.mu.Unlock()

			select {
			case <-a.ready:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}

		default:
			a := c.current
			if c.state == StateReady {
				c.state = StateDisconnecting
				c.log.Debug("Disconnecting from tool server")
			}

			a.signalStop()
			c.mu.Unlock()

			select {
			case <-a.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// run owns the session for one attempt.
func (c *Connection) run(ctx context.Context, a *attempt) {
	defer close(a.done)

	session, tools, err := c.handshake(ctx)
	if err != nil {
		connErr := &errors.ConnectionError{Server: c.spec.Name, Err: err}

		c.log.Warn("Failed to connect to tool server", "error", err)

		c.mu.Lock()
		a.err = connErr
		c.lastErr = connErr
		c.state = StateDisconnected
		c.current = nil
		close(a.ready)
		c.mu.Unlock()

		return
	}

	index := make(map[string]int, len(tools))
	for i, t := range tools {
		index[t.LocalName] = i
	}

	schemas := c.resolveSchemas(tools)

	c.mu.Lock()
	c.session = session
	c.tools = tools
	c.toolIndex = index
	c.schemas = schemas
	c.described = true
	c.lastErr = nil
	c.state = StateReady
	close(a.ready)
	c.mu.Unlock()

	c.log.Info("Connected to tool server", "tools", len(tools))

	waitErr := make(chan error, 1)

	go func() { waitErr <- session.Wait() }()

	select {
	case <-a.stop:
		if err := session.Close(); err != nil {
			c.log.Debug("Session close returned error", "error", err)
		}

		<-waitErr

		c.log.Info("Disconnected from tool server")

	case err := <-waitErr:
		_ = session.Close()

		if err == nil {
			err = io.EOF
		}

		c.log.Warn("Tool server session ended", "error", err)

		c.mu.Lock()
		if c.state == StateReady {
			c.lastErr = &errors.ConnectionError{Server: c.spec.Name, Err: fmt.Errorf("session ended: %w", err)}
		}
		c.mu.Unlock()
	}

	c.mu.Lock()
	c.session = nil
	c.state = StateDisconnected
	c.current = nil
	c.mu.Unlock()
}

// handshake dials, initializes and lists tools, bounded by the handshake
// timeout.
func (c *Connection) handshake(ctx context.Context) (*sdkmcp.ClientSession, []mcp.ToolDescriptor, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.HandshakeTimeout)
	defer cancel()

	transport, err := c.dial(ctx, c.spec)
	if err != nil {
		return nil, nil, fmt.Errorf("build transport: %w", err)
	}

	client := sdkmcp.NewClient(c.opts.ClientInfo, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize: %w", err)
	}

	tools, err := c.listTools(ctx, session)
	if err != nil {
		_ = session.Close()

		return nil, nil, fmt.Errorf("list tools: %w", err)
	}

	return session, tools, nil
}

func (c *Connection) listTools(ctx context.Context, session *sdkmcp.ClientSession) ([]mcp.ToolDescriptor, error) {
	var (
		params sdkmcp.ListToolsParams
		tools  []mcp.ToolDescriptor
	)

	seen := make(map[string]bool)

	for {
		res, err := session.ListTools(ctx, &params)
		if err != nil {
			return nil, err
		}

		for _, t := range res.Tools {
			if seen[t.Name] {
				c.log.Warn("Skipping duplicate tool", "tool", t.Name)

				continue
			}

			desc, err := mcp.NewDescriptor(c.spec.Name, t)
			if err != nil {
				c.log.Warn("Skipping tool with unusable schema", "tool", t.Name, "error", err)

				continue
			}

			seen[t.Name] = true
			tools = append(tools, desc)
		}

		if res.NextCursor == "" {
			return tools, nil
		}

		params.Cursor = res.NextCursor
	}
}

func (c *Connection) resolveSchemas(tools []mcp.ToolDescriptor) map[string]*jsonschema.Resolved {
	if !c.opts.ValidateInput {
		return nil
	}

	out := make(map[string]*jsonschema.Resolved, len(tools))

	for _, t := range tools {
		schema, err := t.Schema()
		if err != nil {
			c.log.Debug("Input validation disabled for tool", "tool", t.LocalName, "error", err)

			continue
		}

		resolved, err := schema.Resolve(nil)
		if err != nil {
			c.log.Debug("Input validation disabled for tool", "tool", t.LocalName, "error", err)

			continue
		}

		out[t.LocalName] = resolved
	}

	return out
}

// CallTool invokes a tool by its local name and returns the normalized
// result. It fails fast with ErrNotConnected unless the connection is Ready.
func (c *Connection) CallTool(ctx context.Context, tool string, input map[string]any) (string, error) {
	c.mu.Lock()
	if c.state != StateReady {
		state := c.state
		c.mu.Unlock()

		return "", fmt.Errorf("%w: %s is %s", errors.ErrNotConnected, c.spec.Name, state)
	}

	session := c.session
	_, known := c.toolIndex[tool]
	resolved := c.schemas[tool]
	c.mu.Unlock()

	if !known {
		return "", &errors.ToolCallError{Server: c.spec.Name, Tool: tool, Err: errors.ErrUnknownTool}
	}

	if input == nil {
		input = map[string]any{}
	}

	if resolved != nil {
		if err := resolved.Validate(input); err != nil {
			return "", &errors.ToolCallError{
				Server: c.spec.Name,
				Tool:   tool,
				Detail: err.Error(),
				Err:    errors.ErrInvalidInput,
			}
		}
	}

	if c.opts.CallTimeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.opts.CallTimeout)
		defer cancel()
	}

	c.log.Debug("Calling tool", "tool", tool)

	result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: tool, Arguments: input})
	if err != nil {
		return "", &errors.ToolCallError{Server: c.spec.Name, Tool: tool, Err: err}
	}

	if result.IsError {
		return "", &errors.ToolCallError{Server: c.spec.Name, Tool: tool, Detail: mcp.ErrorText(result)}
	}

	return mcp.Normalize(result).String(), nil
}

// DescribeTools returns the tools discovered at the last successful
// handshake. It returns ErrNotConnected if no handshake ever succeeded.
func (c *Connection) DescribeTools() ([]mcp.ToolDescriptor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.described {
		return nil, fmt.Errorf("%w: %s", errors.ErrNotConnected, c.spec.Name)
	}

	out := make([]mcp.ToolDescriptor, len(c.tools))
	for i, t := range c.tools {
		out[i] = t.Clone()
	}

	return out, nil
}

// Status reports the connection for health listings.
func (c *Connection) Status() mcp.ServerStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := mcp.ServerStatus{
		Name:      c.spec.Name,
		Type:      c.spec.Type(),
		Status:    c.state.String(),
		ToolCount: len(c.tools),
	}

	if c.lastErr != nil {
		st.Error = c.lastErr.Error()
	}

	return st
}
