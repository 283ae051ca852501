package stubgen

const header = `// Code generated by toolbridge-stubgen. DO NOT EDIT.
`

const toolTemplate = header + `
package {{ .Package }}

import (
	"context"

	toolbridge "{{ .ImportPath }}"
)

// {{ .Identifier }} calls the {{ .LocalName | quote }} tool of the {{ .Server | quote }} server.
{{- if .Description }}
//
{{ comment .Description }}
{{- end }}
//
// Input schema:
//
{{ codeComment (toPrettyJson .InputSchema) }}
func {{ .Identifier }}(ctx context.Context, input map[string]any) (string, error) {
{{- if eq .Transport "http" }}
	return toolbridge.CallDirect(ctx, ServerURL, ServerName, {{ .LocalName | quote }}, input)
{{- else }}
	return toolbridge.CallProxy(ctx, ProxyURL, ServerName, {{ .LocalName | quote }}, input)
{{- end }}
}
`

const indexTemplate = header + `
// Package {{ .Package }} holds generated stubs for the {{ .Server | quote }} tool server.
package {{ .Package }}

import (
	toolbridge "{{ .ImportPath }}"
)

// ServerName is the tool server these stubs call.
const ServerName = {{ .Server | quote }}
{{ if eq .Transport "http" }}
// ServerURL is the streamable HTTP endpoint of the server.
const ServerURL = {{ .URL | quote }}
{{ else }}
// ProxyURL is the proxy the stubs call through.
const ProxyURL = {{ .URL | quote }}
{{ end }}
// Tools maps qualified tool names to their stubs.
var Tools = map[string]toolbridge.StubFunc{
{{- range .Tools }}
	{{ .QualifiedName | quote }}: {{ .Identifier }},
{{- end }}
}
`
