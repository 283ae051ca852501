package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/mcp-toolbridge/internal/errors"
	"github.com/wagiedev/mcp-toolbridge/internal/mcp"
	"github.com/wagiedev/mcp-toolbridge/internal/registry"
)

// RequestIDHeader carries the request id on every proxy response.
const RequestIDHeader = "X-Request-Id"

// maxBodySize caps a tool input body.
const maxBodySize = 10 << 20

// Backend is what the HTTP surface serves. A *registry.Registry satisfies it.
type Backend interface {
	Servers() []string
	Tools(server string) ([]mcp.ToolDescriptor, error)
	CallTool(ctx context.Context, server, tool string, input map[string]any) (string, error)
}

var _ Backend = (*registry.Registry)(nil)

// HealthResponse is the body of GET /.
type HealthResponse struct {
	Status  string   `json:"status"`
	Servers []string `json:"servers"`
}

// ServerTools is one entry of the GET /servers body.
type ServerTools struct {
	Tools []string `json:"tools"`
}

// CallResponse is the body of a call_tool response.
type CallResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

type handler struct {
	backend Backend
	log     *slog.Logger
}

// NewHandler returns the proxy HTTP surface for backend.
func NewHandler(backend Backend, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	h := &handler{backend: backend, log: log.With("component", "proxy_http")}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/", h.health)
	r.Get("/servers", h.servers)
	r.Post("/mcp/{server}/call_tool", h.callTool)

	return r
}

type requestIDKey struct{}

// requestID propagates the caller's X-Request-Id or assigns a fresh ULID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = ulid.Make().String()
		}

		w.Header().Set(RequestIDHeader, id)

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// RequestIDFrom returns the request id stored by the proxy middleware.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)

	return id
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		h.log.Debug("Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", RequestIDFrom(r.Context()),
		)
	})
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "running",
		Servers: nonNil(h.backend.Servers()),
	})
}

func (h *handler) servers(w http.ResponseWriter, _ *http.Request) {
	out := make(map[string]ServerTools)

	for _, name := range h.backend.Servers() {
		tools, err := h.backend.Tools(name)
		if err != nil {
			h.log.Debug("Skipping server in listing", "server", name, "error", err)

			continue
		}

		names := make([]string, 0, len(tools))
		for _, t := range tools {
			names = append(names, t.QualifiedName)
		}

		out[name] = ServerTools{Tools: names}
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *handler) callTool(w http.ResponseWriter, r *http.Request) {
	server := chi.URLParam(r, "server")
	tool := r.URL.Query().Get("tool_name")

	if !h.known(server) {
		h.notFound(w, server)

		return
	}

	if tool == "" {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: "query parameter 'tool_name' is required"})

		return
	}

	input, err := decodeInput(r.Body)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})

		return
	}

	result, err := h.backend.CallTool(r.Context(), server, tool, input)
	if err != nil {
		if stderrors.Is(err, errors.ErrUnknownServer) {
			h.notFound(w, server)

			return
		}

		h.log.Warn("Tool call failed",
			"server", server,
			"tool", tool,
			"error", err,
			"request_id", RequestIDFrom(r.Context()),
		)

		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Detail: fmt.Sprintf("Error calling tool '%s' on server '%s': %v", tool, server, err),
		})

		return
	}

	writeJSON(w, http.StatusOK, CallResponse{Success: true, Result: result})
}

func (h *handler) known(server string) bool {
	return slices.Contains(h.backend.Servers(), server)
}

func (h *handler) notFound(w http.ResponseWriter, server string) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Detail: fmt.Sprintf("Server '%s' not found. Available servers: [%s]",
			server, strings.Join(quoteAll(h.backend.Servers()), ", ")),
	})
}

// decodeInput reads the tool input. An empty body is an empty input; any
// other non-object JSON is rejected.
func decodeInput(body io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(io.LimitReader(body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return map[string]any{}, nil
	}

	if data[0] != '{' {
		return nil, stderrors.New("request body must be a JSON object")
	}

	var input map[string]any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}

	return input, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "'" + n + "'"
	}

	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}
