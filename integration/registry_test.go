//go:build integration

package integration

import (
	"testing"

	"github.com/stretchr/testify/require"

	toolbridge "github.com/wagiedev/mcp-toolbridge"
)

func TestRegistry_StdioServers(t *testing.T) {
	ctx := testContext(t)

	specs := []toolbridge.ServerSpec{
		calculatorSpec("calc"),
		calculatorSpec("calc2"),
		{Name: "broken", Config: &toolbridge.StdioServerConfig{Command: "does-not-exist-mcp-server"}},
	}

	err := toolbridge.WithRegistry(ctx, specs, func(reg *toolbridge.Registry) error {
		require.ElementsMatch(t, []string{"calc", "calc2"}, reg.Servers())
		require.Len(t, reg.Catalog(), 12)

		out, err := reg.Invoke(ctx, "calc__multiply", map[string]any{"a": 6, "b": 7})
		require.NoError(t, err)
		require.Equal(t, "42", out)

		out, err = reg.Invoke(ctx, "calc2__sqrt", map[string]any{"n": 81})
		require.NoError(t, err)
		require.Equal(t, "9", out)

		_, err = reg.Invoke(ctx, "calc__divide", map[string]any{"a": 1, "b": 0})
		require.ErrorContains(t, err, "division by zero")

		return nil
	}, toolbridge.WithInputValidation())
	require.NoError(t, err)
}

func TestRegistry_ThirdPartyServer(t *testing.T) {
	ctx := testContext(t)
	spec := everythingSpec(t)

	err := toolbridge.WithRegistry(ctx, []toolbridge.ServerSpec{spec}, func(reg *toolbridge.Registry) error {
		if reg.Len() == 0 {
			t.Skip("everything server could not be started")
		}

		out, err := reg.Invoke(ctx, "everything__echo", map[string]any{"message": "hello"})
		require.NoError(t, err)
		require.Contains(t, out, "hello")

		return nil
	})
	require.NoError(t, err)
}
