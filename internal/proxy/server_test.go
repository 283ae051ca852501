package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/mcp-toolbridge/internal/errors"
	"github.com/wagiedev/mcp-toolbridge/internal/mcp"
)

// fakeBackend serves fixed tools; "add" sums a and b, "boom" fails, "panic"
// panics.
type fakeBackend struct {
	mu      sync.Mutex
	servers []string
	calls   []map[string]any
}

func newFakeBackend(servers ...string) *fakeBackend {
	return &fakeBackend{servers: servers}
}

func (b *fakeBackend) Servers() []string {
	return b.servers
}

func (b *fakeBackend) Tools(server string) ([]mcp.ToolDescriptor, error) {
	if !b.has(server) {
		return nil, errors.ErrUnknownServer
	}

	return []mcp.ToolDescriptor{
		{QualifiedName: mcp.QualifiedName(server, "add"), ServerName: server, LocalName: "add"},
		{QualifiedName: mcp.QualifiedName(server, "boom"), ServerName: server, LocalName: "boom"},
	}, nil
}

func (b *fakeBackend) CallTool(_ context.Context, server, tool string, input map[string]any) (string, error) {
	if !b.has(server) {
		return "", fmt.Errorf("%w: %s", errors.ErrUnknownServer, server)
	}

	b.mu.Lock()
	b.calls = append(b.calls, input)
	b.mu.Unlock()

	switch tool {
	case "add":
		a, _ := input["a"].(float64)
		c, _ := input["b"].(float64)

		return fmt.Sprint(a + c), nil
	case "boom":
		return "", &errors.ToolCallError{Server: server, Tool: tool, Detail: "exploded"}
	case "panic":
		panic("handler panic")
	default:
		return "", &errors.ToolCallError{Server: server, Tool: tool, Err: errors.ErrUnknownTool}
	}
}

func (b *fakeBackend) has(server string) bool {
	for _, s := range b.servers {
		if s == server {
			return true
		}
	}

	return false
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return out
}

func TestHandler_Health(t *testing.T) {
	h := NewHandler(newFakeBackend("calc", "fs"), nil)

	rec := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode[HealthResponse](t, rec)
	require.Equal(t, "running", body.Status)
	require.Equal(t, []string{"calc", "fs"}, body.Servers)
}

func TestHandler_HealthNoServers(t *testing.T) {
	rec := do(t, NewHandler(newFakeBackend(), nil), http.MethodGet, "/", "")

	require.JSONEq(t, `{"status":"running","servers":[]}`, rec.Body.String())
}

func TestHandler_Servers(t *testing.T) {
	rec := do(t, NewHandler(newFakeBackend("calc"), nil), http.MethodGet, "/servers", "")
	require.Equal(t, http.StatusOK, rec.Code)

	require.JSONEq(t, `{"calc":{"tools":["calc__add","calc__boom"]}}`, rec.Body.String())
}

func TestHandler_CallTool(t *testing.T) {
	backend := newFakeBackend("calc")
	h := NewHandler(backend, nil)

	t.Run("success", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/mcp/calc/call_tool?tool_name=add", `{"a":1,"b":2}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"success":true,"result":"3"}`, rec.Body.String())
	})

	t.Run("empty body is empty input", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/mcp/calc/call_tool?tool_name=add", "")
		require.Equal(t, http.StatusOK, rec.Code)

		backend.mu.Lock()
		last := backend.calls[len(backend.calls)-1]
		backend.mu.Unlock()

		require.Empty(t, last)
		require.NotNil(t, last)
	})

	t.Run("unknown server", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/mcp/nope/call_tool?tool_name=add", `{}`)
		require.Equal(t, http.StatusNotFound, rec.Code)

		body := decode[ErrorResponse](t, rec)
		require.Equal(t, "Server 'nope' not found. Available servers: ['calc']", body.Detail)
	})

	t.Run("missing tool_name", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/mcp/calc/call_tool", `{}`)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Contains(t, decode[ErrorResponse](t, rec).Detail, "tool_name")
	})

	t.Run("non-object body", func(t *testing.T) {
		for _, body := range []string{`[1,2]`, `"text"`, `42`, `{broken`} {
			rec := do(t, h, http.MethodPost, "/mcp/calc/call_tool?tool_name=add", body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, body)
		}
	})

	t.Run("tool failure", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/mcp/calc/call_tool?tool_name=boom", `{}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		detail := decode[ErrorResponse](t, rec).Detail
		require.True(t, strings.HasPrefix(detail, "Error calling tool 'boom' on server 'calc': "))
		require.Contains(t, detail, "exploded")
	})

	t.Run("unknown tool", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/mcp/calc/call_tool?tool_name=missing", `{}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/mcp/calc/call_tool?tool_name=panic", `{}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/mcp/calc/call_tool?tool_name=add", "")
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestHandler_RequestID(t *testing.T) {
	h := NewHandler(newFakeBackend("calc"), nil)

	t.Run("generated", func(t *testing.T) {
		first := do(t, h, http.MethodGet, "/", "").Header().Get(RequestIDHeader)
		second := do(t, h, http.MethodGet, "/", "").Header().Get(RequestIDHeader)

		require.Len(t, first, 26)
		require.NotEqual(t, first, second)
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/servers", nil)
		req.Header.Set(RequestIDHeader, "caller-id")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, "caller-id", rec.Header().Get(RequestIDHeader))
	})

	t.Run("on errors", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/mcp/nope/call_tool?tool_name=x", "")
		require.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	})
}

func TestRequestIDFrom(t *testing.T) {
	require.Empty(t, RequestIDFrom(context.Background()))
}
