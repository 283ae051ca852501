package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/mcp-toolbridge/internal/mcp"
)

func TestParse_YAML(t *testing.T) {
	t.Setenv("TB_TEST_TOKEN", "secret")
	t.Setenv("TB_TEST_ROOT", "/srv")

	doc := `
proxy:
  host: 127.0.0.1
  port: 9090
mcpServers:
  zeta:
    command: zeta-server
    args: ["--root", "${TB_TEST_ROOT}"]
    env:
      TOKEN: ${TB_TEST_TOKEN}
  alpha:
    url: http://localhost:8000/mcp
    headers:
      Authorization: Bearer ${TB_TEST_TOKEN}
`

	f, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, ProxySection{Host: "127.0.0.1", Port: 9090}, f.Proxy)
	require.Len(t, f.Servers, 2)

	require.Equal(t, "zeta", f.Servers[0].Name)
	stdio, ok := f.Servers[0].Config.(*mcp.StdioServerConfig)
	require.True(t, ok)
	require.Equal(t, "zeta-server", stdio.Command)
	require.Equal(t, []string{"--root", "/srv"}, stdio.Args)
	require.Equal(t, map[string]string{"TOKEN": "secret"}, stdio.Env)

	require.Equal(t, "alpha", f.Servers[1].Name)
	http, ok := f.Servers[1].Config.(*mcp.HTTPServerConfig)
	require.True(t, ok)
	require.Equal(t, "http://localhost:8000/mcp", http.URL)
	require.Equal(t, "Bearer secret", http.Headers["Authorization"])
}

func TestParse_JSON(t *testing.T) {
	doc := `{"mcpServers": {"git": {"command": "git-mcp", "args": ["serve"]}, "web": {"type": "http", "url": "http://x/mcp"}}}`

	f, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, f.Servers, 2)
	require.Equal(t, mcp.ServerTypeStdio, f.Servers[0].Type())
	require.Equal(t, mcp.ServerTypeHTTP, f.Servers[1].Type())
	require.Len(t, StdioServers(f.Servers), 1)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "unsupported type", doc: "mcpServers:\n  a:\n    type: sse\n    url: http://x\n", want: "unsupported type"},
		{name: "missing command", doc: "mcpServers:\n  a:\n    args: [x]\n", want: "requires a command"},
		{name: "not a mapping", doc: "mcpServers: [1, 2]\n", want: "expected a mapping"},
		{name: "invalid name", doc: "mcpServers:\n  a__b:\n    command: x\n", want: "invalid server name"},
		{name: "syntax", doc: "mcpServers: {", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)

			if tt.want != "" {
				require.ErrorContains(t, err, tt.want)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse([]byte("proxy:\n  port: 1\n"))
	require.NoError(t, err)
	require.Empty(t, f.Servers)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mcpServers:\n  a:\n    command: a-server\n"), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	require.Len(t, f.Servers, 1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config")
}

func TestExpandString(t *testing.T) {
	t.Setenv("TB_TEST_SET", "v")

	require.Equal(t, "v-", expandString("${TB_TEST_SET}-${TB_TEST_UNSET_VAR}"))
	require.Equal(t, "$HOME and $", expandString("$HOME and $"))
}

func TestWithDefaults(t *testing.T) {
	o := (*Options)(nil).WithDefaults()

	require.NotNil(t, o.Logger)
	require.Equal(t, DefaultHandshakeTimeout, o.HandshakeTimeout)
	require.Equal(t, DefaultProxyPort, o.ProxyPort)
	require.Equal(t, DefaultReadinessAttempts, o.ReadinessAttempts)
	require.Equal(t, DefaultClientName, o.ClientInfo.Name)

	custom := (&Options{ProxyPort: -1, HandshakeTimeout: 1}).WithDefaults()
	require.Equal(t, -1, custom.ProxyPort)
	require.Equal(t, 0, custom.ListenPort())
	require.Equal(t, custom, custom.WithDefaults())
	require.EqualValues(t, 1, custom.HandshakeTimeout)
}
