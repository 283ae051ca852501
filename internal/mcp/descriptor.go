package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolDescriptor describes one tool discovered on a server.
type ToolDescriptor struct {
	QualifiedName string         `json:"qualified_name"`
	ServerName    string         `json:"server_name"`
	LocalName     string         `json:"local_name"`
	Description   string         `json:"description"`
	InputSchema   map[string]any `json:"input_schema"`
}

// DefaultInputSchema is used for tools that advertise no input schema.
func DefaultInputSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
		"required":   []any{},
	}
}

// NewDescriptor builds a descriptor for a tool reported by server.
func NewDescriptor(server string, tool *mcp.Tool) (ToolDescriptor, error) {
	schema, err := schemaToMap(tool.InputSchema)
	if err != nil {
		return ToolDescriptor{}, fmt.Errorf("tool %q: %w", tool.Name, err)
	}

	return ToolDescriptor{
		QualifiedName: QualifiedName(server, tool.Name),
		ServerName:    server,
		LocalName:     tool.Name,
		Description:   tool.Description,
		InputSchema:   schema,
	}, nil
}

// Clone returns a copy that shares no mutable state with d.
func (d ToolDescriptor) Clone() ToolDescriptor {
	out := d
	if d.InputSchema != nil {
		out.InputSchema, _ = cloneValue(d.InputSchema).(map[string]any)
	}

	return out
}

// Schema converts the input schema into a jsonschema.Schema.
func (d ToolDescriptor) Schema() (*jsonschema.Schema, error) {
	data, err := json.Marshal(d.InputSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal input schema: %w", err)
	}

	var schema jsonschema.Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("unmarshal input schema: %w", err)
	}

	return &schema, nil
}

// schemaToMap normalizes whatever the SDK decoded into a plain JSON object.
func schemaToMap(schema any) (map[string]any, error) {
	switch s := schema.(type) {
	case nil:
		return DefaultInputSchema(), nil
	case map[string]any:
		if len(s) == 0 {
			return DefaultInputSchema(), nil
		}

		return s, nil
	}

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal input schema: %w", err)
	}

	if string(data) == "null" {
		return DefaultInputSchema(), nil
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("input schema is not an object: %w", err)
	}

	return out, nil
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}

		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}

		return out
	default:
		return v
	}
}
