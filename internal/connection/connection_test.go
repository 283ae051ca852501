package connection

import (
	"context"
	stderrors "errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/wagiedev/mcp-toolbridge/internal/config"
	"github.com/wagiedev/mcp-toolbridge/internal/errors"
	"github.com/wagiedev/mcp-toolbridge/internal/mcp"
)

// fakeServer stands up in-memory MCP servers on demand and counts dials.
type fakeServer struct {
	server *sdkmcp.Server
	dials  atomic.Int32

	// gate, when set, blocks each dial until closed.
	gate chan struct{}
	// failures is the number of initial dials that fail.
	failures atomic.Int32

	mu       sync.Mutex
	sessions []*sdkmcp.ServerSession
}

func newFakeServer() *fakeServer {
	return &fakeServer{server: mcp.NewServer("calc", "1.0.0",
		mcp.ServerTool{
			Tool: mcp.NewTool("add", "Adds two numbers", mcp.SimpleSchema(map[string]string{"a": "float64", "b": "float64"})),
			Handler: func(_ context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
				args, err := mcp.ParseArguments(req)
				if err != nil {
					return nil, err
				}

				a, _ := args["a"].(float64)
				b, _ := args["b"].(float64)

				return mcp.TextResult(formatFloat(a + b)), nil
			},
		},
		mcp.ServerTool{
			Tool: mcp.NewTool("lines", "Returns two lines", nil),
			Handler: func(context.Context, *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
				return mcp.TextResult("a", "b"), nil
			},
		},
		mcp.ServerTool{
			Tool: mcp.NewTool("fail", "Always reports an error", nil),
			Handler: func(context.Context, *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
				return mcp.ErrorResult("division by zero"), nil
			},
		},
	)}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func (f *fakeServer) dialer() config.Dialer {
	return func(ctx context.Context, _ mcp.ServerSpec) (sdkmcp.Transport, error) {
		f.dials.Add(1)

		if f.gate != nil {
			select {
			case <-f.gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if f.failures.Load() > 0 {
			f.failures.Add(-1)

			return nil, stderrors.New("spawn failed")
		}

		serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()

		ss, err := f.server.Connect(context.Background(), serverTransport, nil)
		if err != nil {
			return nil, err
		}

		f.mu.Lock()
		f.sessions = append(f.sessions, ss)
		f.mu.Unlock()

		return clientTransport, nil
	}
}

func (f *fakeServer) killSessions() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ss := range f.sessions {
		_ = ss.Close()
	}
}

func newTestConnection(t *testing.T, f *fakeServer, mutate ...func(*config.Options)) *Connection {
	t.Helper()

	opts := &config.Options{Dialer: f.dialer(), HandshakeTimeout: 5 * time.Second}
	for _, m := range mutate {
		m(opts)
	}

	conn := New(mcp.ServerSpec{Name: "calc", Config: &mcp.StdioServerConfig{Command: "unused"}}, opts)

	t.Cleanup(func() {
		_ = conn.Disconnect(context.Background())
	})

	return conn
}

func TestConnect_DiscoversTools(t *testing.T) {
	ctx := context.Background()
	conn := newTestConnection(t, newFakeServer())

	require.Equal(t, StateDisconnected, conn.State())
	require.NoError(t, conn.Connect(ctx))
	require.Equal(t, StateReady, conn.State())

	tools, err := conn.DescribeTools()
	require.NoError(t, err)
	require.Len(t, tools, 3)

	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.QualifiedName)
		require.Equal(t, "calc", tool.ServerName)
		require.Equal(t, "object", tool.InputSchema["type"])
	}

	require.ElementsMatch(t, []string{"calc__add", "calc__lines", "calc__fail"}, names)
}

func TestConnect_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFakeServer()
	conn := newTestConnection(t, f)

	require.NoError(t, conn.Connect(ctx))
	require.NoError(t, conn.Connect(ctx))

	var wg sync.WaitGroup
	for range 5 {
		wg.Go(func() {
			require.NoError(t, conn.Connect(ctx))
		})
	}

	wg.Wait()

	require.Equal(t, int32(1), f.dials.Load())
	require.Equal(t, StateReady, conn.State())
}

func TestConnect_ConcurrentAttemptsShareOneDial(t *testing.T) {
	ctx := context.Background()
	f := newFakeServer()
	f.gate = make(chan struct{})
	conn := newTestConnection(t, f)

	first := make(chan error, 1)

	go func() { first <- conn.Connect(ctx) }()

	require.Eventually(t, func() bool { return conn.State() == StateConnecting }, time.Second, 5*time.Millisecond)

	// A second connect while Connecting returns at once.
	require.NoError(t, conn.Connect(ctx))

	close(f.gate)
	require.NoError(t, <-first)
	require.Equal(t, int32(1), f.dials.Load())
}

func TestConnect_FailureIsReportedAndRetryable(t *testing.T) {
	ctx := context.Background()
	f := newFakeServer()
	f.failures.Store(1)
	conn := newTestConnection(t, f)

	err := conn.Connect(ctx)
	require.Error(t, err)

	connErr, ok := stderrors.AsType[*errors.ConnectionError](err)
	require.True(t, ok)
	require.Equal(t, "calc", connErr.Server)
	require.ErrorContains(t, err, "spawn failed")
	require.Equal(t, StateDisconnected, conn.State())
	require.Equal(t, err, conn.LastError())

	_, err = conn.DescribeTools()
	require.ErrorIs(t, err, errors.ErrNotConnected)

	require.NoError(t, conn.Connect(ctx))
	require.Equal(t, StateReady, conn.State())
	require.NoError(t, conn.LastError())
}

func TestConnect_HandshakeTimeout(t *testing.T) {
	f := newFakeServer()
	f.gate = make(chan struct{})
	conn := newTestConnection(t, f, func(o *config.Options) { o.HandshakeTimeout = 50 * time.Millisecond })

	err := conn.Connect(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Equal(t, StateDisconnected, conn.State())
}

func TestCallTool(t *testing.T) {
	ctx := context.Background()
	conn := newTestConnection(t, newFakeServer())
	require.NoError(t, conn.Connect(ctx))

	t.Run("single text part", func(t *testing.T) {
		out, err := conn.CallTool(ctx, "add", map[string]any{"a": 2, "b": 3})
		require.NoError(t, err)
		require.Equal(t, "5", out)
	})

	t.Run("text parts joined by newline", func(t *testing.T) {
		out, err := conn.CallTool(ctx, "lines", nil)
		require.NoError(t, err)
		require.Equal(t, "a\nb", out)
	})

	t.Run("remote error result", func(t *testing.T) {
		_, err := conn.CallTool(ctx, "fail", nil)

		callErr, ok := stderrors.AsType[*errors.ToolCallError](err)
		require.True(t, ok)
		require.Equal(t, "calc", callErr.Server)
		require.Equal(t, "fail", callErr.Tool)
		require.Equal(t, "division by zero", callErr.Detail)
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := conn.CallTool(ctx, "missing", nil)
		require.ErrorIs(t, err, errors.ErrUnknownTool)
	})
}

func TestCallTool_NotConnected(t *testing.T) {
	conn := newTestConnection(t, newFakeServer())

	_, err := conn.CallTool(context.Background(), "add", nil)
	require.ErrorIs(t, err, errors.ErrNotConnected)
}

func TestCallTool_WhileConnectingFailsFast(t *testing.T) {
	f := newFakeServer()
	f.gate = make(chan struct{})
	conn := newTestConnection(t, f)

	connected := make(chan error, 1)

	go func() { connected <- conn.Connect(context.Background()) }()

	require.Eventually(t, func() bool { return conn.State() == StateConnecting }, time.Second, 5*time.Millisecond)

	start := time.Now()
	_, err := conn.CallTool(context.Background(), "add", nil)
	require.ErrorIs(t, err, errors.ErrNotConnected)
	require.Less(t, time.Since(start), 100*time.Millisecond)

	close(f.gate)
	require.NoError(t, <-connected)
}

func TestCallTool_InputValidation(t *testing.T) {
	ctx := context.Background()
	conn := newTestConnection(t, newFakeServer(), func(o *config.Options) { o.ValidateInput = true })
	require.NoError(t, conn.Connect(ctx))

	_, err := conn.CallTool(ctx, "add", map[string]any{"a": "two"})
	require.ErrorIs(t, err, errors.ErrInvalidInput)

	out, err := conn.CallTool(ctx, "add", map[string]any{"a": 1.0, "b": 1.0})
	require.NoError(t, err)
	require.Equal(t, "2", out)
}

func TestDisconnect(t *testing.T) {
	ctx := context.Background()

	t.Run("never connected is a no-op", func(t *testing.T) {
		conn := newTestConnection(t, newFakeServer())
		require.NoError(t, conn.Disconnect(ctx))
		require.NoError(t, conn.Disconnect(ctx))
		require.Equal(t, StateDisconnected, conn.State())
	})

	t.Run("ready to disconnected", func(t *testing.T) {
		conn := newTestConnection(t, newFakeServer())
		require.NoError(t, conn.Connect(ctx))
		require.NoError(t, conn.Disconnect(ctx))
		require.Equal(t, StateDisconnected, conn.State())

		_, err := conn.CallTool(ctx, "add", nil)
		require.ErrorIs(t, err, errors.ErrNotConnected)

		// Tools stay describable after a clean disconnect.
		tools, err := conn.DescribeTools()
		require.NoError(t, err)
		require.Len(t, tools, 3)

		require.NoError(t, conn.Disconnect(ctx))
	})

	t.Run("reconnect after disconnect", func(t *testing.T) {
		f := newFakeServer()
		conn := newTestConnection(t, f)
		require.NoError(t, conn.Connect(ctx))
		require.NoError(t, conn.Disconnect(ctx))
		require.NoError(t, conn.Connect(ctx))
		require.Equal(t, StateReady, conn.State())
		require.Equal(t, int32(2), f.dials.Load())
	})

	t.Run("waits for an in-flight connect", func(t *testing.T) {
		f := newFakeServer()
		f.gate = make(chan struct{})
		conn := newTestConnection(t, f)

		go func() { _ = conn.Connect(ctx) }()

		require.Eventually(t, func() bool { return conn.State() == StateConnecting }, time.Second, 5*time.Millisecond)

		done := make(chan error, 1)

		go func() { done <- conn.Disconnect(ctx) }()

		close(f.gate)
		require.NoError(t, <-done)
		require.Equal(t, StateDisconnected, conn.State())
	})

	t.Run("cancelled caller does not lose the shutdown", func(t *testing.T) {
		conn := newTestConnection(t, newFakeServer())
		require.NoError(t, conn.Connect(ctx))

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_ = conn.Disconnect(cancelled)

		require.Eventually(t, func() bool { return conn.State() == StateDisconnected }, time.Second, 5*time.Millisecond)
	})
}

func TestServerExitMovesToDisconnected(t *testing.T) {
	f := newFakeServer()
	conn := newTestConnection(t, f)
	require.NoError(t, conn.Connect(context.Background()))

	f.killSessions()

	require.Eventually(t, func() bool { return conn.State() == StateDisconnected }, 2*time.Second, 10*time.Millisecond)
	require.ErrorContains(t, conn.LastError(), "session ended")

	status := conn.Status()
	require.Equal(t, "disconnected", status.Status)
	require.Equal(t, 3, status.ToolCount)
	require.NotEmpty(t, status.Error)
}

func TestStateString(t *testing.T) {
	require.Equal(t, "disconnected", StateDisconnected.String())
	require.Equal(t, "connecting", StateConnecting.String())
	require.Equal(t, "ready", StateReady.String())
	require.Equal(t, "disconnecting", StateDisconnecting.String())
	require.Equal(t, "State(7)", State(7).String())
}
