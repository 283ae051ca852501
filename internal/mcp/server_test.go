package mcp

import (
	"context"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func TestNewServer_InMemory(t *testing.T) {
	ctx := context.Background()

	server := NewServer("demo", "1.0.0",
		ServerTool{
			Tool: NewTool("echo", "echoes text", SimpleSchema(map[string]string{"text": "string"})),
			Handler: func(_ context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				args, err := ParseArguments(req)
				if err != nil {
					return nil, err
				}

				text, _ := args["text"].(string)

				return TextResult("echo: " + text), nil
			},
		},
		ServerTool{
			Tool: &mcp.Tool{Name: "noschema"},
			Handler: func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return TextResult("ok"), nil
			},
		},
	)

	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	_, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	defer func() { _ = session.Close() }()

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, 2)

	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "echo", Arguments: map[string]any{"text": "hi"}})
	require.NoError(t, err)
	require.Equal(t, "echo: hi", Normalize(result).String())
}

func TestSimpleSchema(t *testing.T) {
	schema := SimpleSchema(map[string]string{
		"name":   "string",
		"active": "bool",
		"scores": "[]float64",
	})

	require.Equal(t, "object", schema.Type)
	require.Equal(t, []string{"active", "name", "scores"}, schema.Required)
	require.Equal(t, "string", schema.Properties["name"].Type)
	require.Equal(t, "boolean", schema.Properties["active"].Type)
	require.Equal(t, "array", schema.Properties["scores"].Type)
	require.Equal(t, "number", schema.Properties["scores"].Items.Type)
}

func TestGoTypeToJSONSchema(t *testing.T) {
	tests := []struct {
		goType   string
		wantType string
	}{
		{goType: "string", wantType: "string"},
		{goType: "int64", wantType: "integer"},
		{goType: "float32", wantType: "number"},
		{goType: "boolean", wantType: "boolean"},
		{goType: "map[string]any", wantType: "object"},
		{goType: "[]int", wantType: "array"},
		{goType: "customType", wantType: "string"},
	}

	for _, tt := range tests {
		t.Run(tt.goType, func(t *testing.T) {
			require.Equal(t, tt.wantType, goTypeToJSONSchema(tt.goType).Type)
		})
	}
}

func TestResultHelpers(t *testing.T) {
	require.False(t, TextResult("ok").IsError)
	require.True(t, ErrorResult("bad").IsError)

	image := ImageResult([]byte("png"), "image/png")
	require.Len(t, image.Content, 1)

	args, err := ParseArguments(nil)
	require.NoError(t, err)
	require.Empty(t, args)

	_, err = ParseArguments(&mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: []byte("{")}})
	require.Error(t, err)
}
