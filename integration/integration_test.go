//go:build integration

package integration

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	toolbridge "github.com/wagiedev/mcp-toolbridge"
)

// calculatorSpec runs the example calculator server over stdio.
func calculatorSpec(name string) toolbridge.ServerSpec {
	return toolbridge.ServerSpec{
		Name:   name,
		Config: &toolbridge.StdioServerConfig{Command: "go", Args: []string{"run", "../examples/mcp_calculator"}},
	}
}

// everythingSpec runs the reference "everything" server from npm.
func everythingSpec(t *testing.T) toolbridge.ServerSpec {
	t.Helper()

	if _, err := exec.LookPath("npx"); err != nil {
		t.Skip("npx not installed")
	}

	return toolbridge.ServerSpec{
		Name: "everything",
		Config: &toolbridge.StdioServerConfig{
			Command: "npx",
			Args:    []string{"-y", "@modelcontextprotocol/server-everything"},
		},
	}
}

// buildProxy compiles toolbridge-proxy into a temp dir and returns its path.
func buildProxy(t *testing.T) string {
	t.Helper()

	out := filepath.Join(t.TempDir(), "toolbridge-proxy")

	cmd := exec.Command("go", "build", "-o", out, "../cmd/toolbridge-proxy")

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, string(output))

	return out
}

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	return ctx
}
