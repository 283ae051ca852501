package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wagiedev/mcp-toolbridge/internal/config"
	"github.com/wagiedev/mcp-toolbridge/internal/errors"
)

// Client calls tools through a running proxy.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// NewClient returns a client for the proxy at baseURL.
func NewClient(baseURL string, opts *config.Options) *Client {
	opts = opts.WithDefaults()

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    opts.HTTPClient,
		timeout: opts.ProxyCallTimeout,
	}
}

// BaseURL returns the proxy address this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CallTool invokes tool on server through the proxy.
//
// Timeouts and dial failures yield *errors.ProxyUnreachableError. Non-2xx
// responses and unsuccessful results yield *errors.ToolCallError; a 404
// wraps errors.ErrUnknownServer.
func (c *Client) CallTool(ctx context.Context, server, tool string, input map[string]any) (string, error) {
	if input == nil {
		input = map[string]any{}
	}

	body, err := json.Marshal(input)
	if err != nil {
		return "", &errors.ToolCallError{Server: server, Tool: tool, Detail: "encode input", Err: err}
	}

	endpoint := fmt.Sprintf("%s/mcp/%s/call_tool?tool_name=%s",
		c.baseURL, url.PathEscape(server), url.QueryEscape(tool))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &errors.ToolCallError{Server: server, Tool: tool, Detail: "build request", Err: err}
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &errors.ProxyUnreachableError{URL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &errors.ProxyUnreachableError{URL: c.baseURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		callErr := &errors.ToolCallError{
			Server:     server,
			Tool:       tool,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(data),
		}

		if resp.StatusCode == http.StatusNotFound {
			callErr.Err = errors.ErrUnknownServer
		}

		return "", callErr
	}

	var out CallResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return "", &errors.ToolCallError{Server: server, Tool: tool, Detail: "decode response", Err: err}
	}

	if !out.Success {
		detail := out.Error
		if detail == "" {
			detail = "proxy reported failure"
		}

		return "", &errors.ToolCallError{Server: server, Tool: tool, StatusCode: resp.StatusCode, Detail: detail}
	}

	return out.Result, nil
}

// Health fetches GET /.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse

	err := c.getJSON(ctx, "/", &out)

	return out, err
}

// Servers fetches GET /servers.
func (c *Client) Servers(ctx context.Context) (map[string]ServerTools, error) {
	var out map[string]ServerTools

	err := c.getJSON(ctx, "/servers", &out)

	return out, err
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &errors.ProxyUnreachableError{URL: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// errorDetail extracts the detail field of an error body, falling back to
// the raw text.
func errorDetail(data []byte) string {
	var body ErrorResponse
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != "" {
		return body.Detail
	}

	return strings.TrimSpace(string(data))
}
