package cli

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/mcp-toolbridge/internal/errors"
)

func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho toolbridge-proxy 0.1.0\n"), 0o755))

	return path
}

func TestDiscoverer_ExplicitPath(t *testing.T) {
	path := writeExecutable(t, t.TempDir(), ProxyBinary)

	got, err := NewDiscoverer(&Config{ExplicitPath: path, SkipVersionCheck: true}).Discover(context.Background())
	require.NoError(t, err)
	require.Equal(t, path, got)
}

func TestDiscoverer_ExplicitPathMissing(t *testing.T) {
	_, err := NewDiscoverer(&Config{ExplicitPath: "/nonexistent/toolbridge-proxy"}).Discover(context.Background())

	require.IsType(t, &errors.ExecutableNotFoundError{}, err)
	require.ErrorContains(t, err, "/nonexistent/toolbridge-proxy")
}

func TestDiscoverer_EnvOverride(t *testing.T) {
	path := writeExecutable(t, t.TempDir(), "custom-proxy")
	t.Setenv(EnvProxyPath, path)

	got, err := NewDiscoverer(&Config{SkipVersionCheck: true}).Discover(context.Background())
	require.NoError(t, err)
	require.Equal(t, path, got)
}

func TestDiscoverer_PATH(t *testing.T) {
	dir := t.TempDir()
	path := writeExecutable(t, dir, ProxyBinary)

	t.Setenv(EnvProxyPath, "")
	t.Setenv("PATH", dir)

	got, err := NewDiscoverer(nil).Discover(context.Background())
	require.NoError(t, err)
	require.Equal(t, path, got)
}

func TestDiscoverer_NotFoundListsSearchedPaths(t *testing.T) {
	t.Setenv(EnvProxyPath, "")
	t.Setenv("PATH", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	_, err := NewDiscoverer(&Config{SkipVersionCheck: true}).Discover(context.Background())
	if err == nil {
		t.Skip("a toolbridge-proxy is installed next to the test binary or in /usr/local/bin")
	}

	notFound, ok := err.(*errors.ExecutableNotFoundError)
	require.True(t, ok)
	require.True(t, slices.Contains(notFound.SearchedPaths, "$PATH"))
}

func TestIsExecutable(t *testing.T) {
	dir := t.TempDir()
	exe := writeExecutable(t, dir, "x")

	plain := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(plain, nil, 0o644))

	require.True(t, isExecutable(exe))
	require.False(t, isExecutable(plain))
	require.False(t, isExecutable(dir))
	require.False(t, isExecutable(filepath.Join(dir, "missing")))
}

func TestBuildProxyCommand(t *testing.T) {
	cmd := BuildProxyCommand("/bin/proxy", []byte(`{"port":1}`), []string{"PATH=/bin"}, map[string]string{"EXTRA": "1"})

	require.Equal(t, "/bin/proxy", cmd.Path)
	require.Equal(t, []string{"-config", `{"port":1}`}, cmd.Args)
	require.Equal(t, []string{"EXTRA=1", "PATH=/bin", EnvEntrypoint + "=toolbridge-go"}, cmd.Env)
}

func TestBuildEnvironment(t *testing.T) {
	env := BuildEnvironment(
		[]string{"PATH=/bin", "HOME=/root", "MALFORMED"},
		map[string]string{"HOME": "/home/tool", "TOKEN": "x"},
	)

	require.Equal(t, []string{"HOME=/home/tool", "PATH=/bin", "TOKEN=x"}, env)
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{a: "0.1.0", b: "0.1.0", want: 0},
		{a: "0.0.9", b: "0.1.0", want: -1},
		{a: "1.0.0", b: "0.9.9", want: 1},
		{a: "0.1", b: "0.1.0", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			require.Equal(t, tt.want, compareVersions(tt.a, tt.b))
		})
	}
}
