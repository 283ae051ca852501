package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResultKind discriminates the shapes a tool result can take.
type ResultKind int

const (
	// ResultText is a single text part.
	ResultText ResultKind = iota
	// ResultTextList is two or more text parts.
	ResultTextList
	// ResultRaw is anything else, kept as its JSON rendering.
	ResultRaw
)

func (k ResultKind) String() string {
	switch k {
	case ResultText:
		return "text"
	case ResultTextList:
		return "text_list"
	case ResultRaw:
		return "raw"
	default:
		return fmt.Sprintf("ResultKind(%d)", int(k))
	}
}

// Result is a tool call result reduced to one of the ResultKind shapes.
type Result struct {
	Kind  ResultKind
	Text  string
	Parts []string
	Raw   string
}

// String is the single normalization applied to every tool result:
// text parts joined by newline, otherwise the JSON rendering.
func (r Result) String() string {
	switch r.Kind {
	case ResultText:
		return r.Text
	case ResultTextList:
		return strings.Join(r.Parts, "\n")
	default:
		return r.Raw
	}
}

// Normalize classifies a CallToolResult. Non-text parts are skipped when at
// least one text part is present.
func Normalize(result *mcp.CallToolResult) Result {
	if result != nil && len(result.Content) > 0 {
		parts := make([]string, 0, len(result.Content))

		for _, c := range result.Content {
			if text, ok := c.(*mcp.TextContent); ok {
				parts = append(parts, text.Text)
			}
		}

		switch len(parts) {
		case 0:
		case 1:
			return Result{Kind: ResultText, Text: parts[0]}
		default:
			return Result{Kind: ResultTextList, Parts: parts}
		}
	}

	return Result{Kind: ResultRaw, Raw: renderRaw(result)}
}

// ErrorText extracts a message from an error result.
func ErrorText(result *mcp.CallToolResult) string {
	return Normalize(result).String()
}

func renderRaw(result *mcp.CallToolResult) string {
	var v any = convertCallToolResultToMap(result)

	if result != nil && len(result.Content) == 0 && result.StructuredContent != nil {
		v = result.StructuredContent
	}

	data, err := json.Marshal(v)
	if err != nil || len(data) == 0 {
		return fmt.Sprintf("%v", v)
	}

	return string(data)
}

// convertCallToolResultToMap converts a CallToolResult into plain JSON values.
func convertCallToolResultToMap(result *mcp.CallToolResult) map[string]any {
	if result == nil {
		return map[string]any{
			"content": []map[string]any{},
		}
	}

	content := make([]map[string]any, 0, len(result.Content))
	for _, c := range result.Content {
		switch v := c.(type) {
		case *mcp.TextContent:
			content = append(content, map[string]any{
				"type": "text",
				"text": v.Text,
			})
		case *mcp.ImageContent:
			content = append(content, map[string]any{
				"type":     "image",
				"data":     v.Data,
				"mimeType": v.MIMEType,
			})
		case *mcp.AudioContent:
			content = append(content, map[string]any{
				"type":     "audio",
				"data":     v.Data,
				"mimeType": v.MIMEType,
			})
		case *mcp.ResourceLink:
			content = append(content, map[string]any{
				"type": "resource_link",
				"uri":  v.URI,
				"name": v.Name,
			})
		case *mcp.EmbeddedResource:
			if v.Resource != nil {
				content = append(content, map[string]any{
					"type": "resource",
					"resource": map[string]any{
						"uri":      v.Resource.URI,
						"mimeType": v.Resource.MIMEType,
						"text":     v.Resource.Text,
					},
				})
			}
		}
	}

	resultMap := map[string]any{
		"content": content,
	}

	if result.StructuredContent != nil {
		resultMap["structuredContent"] = result.StructuredContent
	}

	if result.IsError {
		resultMap["isError"] = true
	}

	return resultMap
}
