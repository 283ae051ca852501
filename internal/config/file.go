package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/wagiedev/mcp-toolbridge/internal/mcp"
)

// File is a server catalog in the common mcpServers layout. JSON documents
// parse as well since the decoder is YAML.
type File struct {
	Servers []mcp.ServerSpec
	Proxy   ProxySection
}

// ProxySection is the optional proxy block of a config file.
type ProxySection struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// serverEntry is one mcpServers value before it is split into a typed config.
type serverEntry struct {
	Type    string            `yaml:"type"`
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

type rawFile struct {
	MCPServers yaml.Node    `yaml:"mcpServers"`
	Proxy      ProxySection `yaml:"proxy"`
}

// Load reads and parses a config file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return f, nil
}

// Parse decodes a config document. Servers keep their document order and
// ${VAR} references in string values are replaced from the environment.
func Parse(data []byte) (*File, error) {
	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := &File{Proxy: raw.Proxy}

	if raw.MCPServers.Kind == 0 {
		return out, nil
	}

	if raw.MCPServers.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("mcpServers: expected a mapping, got line %d", raw.MCPServers.Line)
	}

	nodes := raw.MCPServers.Content
	for i := 0; i+1 < len(nodes); i += 2 {
		name := nodes[i].Value

		var entry serverEntry
		if err := nodes[i+1].Decode(&entry); err != nil {
			return nil, fmt.Errorf("server %q: %w", name, err)
		}

		spec, err := entry.toSpec(name)
		if err != nil {
			return nil, err
		}

		out.Servers = append(out.Servers, spec)
	}

	return out, nil
}

func (e serverEntry) toSpec(name string) (mcp.ServerSpec, error) {
	e.expand()

	var spec mcp.ServerSpec

	switch {
	case e.Type == "http" || e.Type == "streamable-http" || (e.Type == "" && e.URL != ""):
		spec = mcp.ServerSpec{Name: name, Config: &mcp.HTTPServerConfig{URL: e.URL, Headers: e.Headers}}
	case e.Type == "" || e.Type == "stdio":
		spec = mcp.ServerSpec{Name: name, Config: &mcp.StdioServerConfig{Command: e.Command, Args: e.Args, Env: e.Env}}
	default:
		return mcp.ServerSpec{}, fmt.Errorf("server %q: unsupported type %q", name, e.Type)
	}

	if err := spec.Validate(); err != nil {
		return mcp.ServerSpec{}, err
	}

	return spec, nil
}

func (e *serverEntry) expand() {
	e.Command = expandString(e.Command)
	e.URL = expandString(e.URL)

	for i, arg := range e.Args {
		e.Args[i] = expandString(arg)
	}

	for k, v := range e.Env {
		e.Env[k] = expandString(v)
	}

	for k, v := range e.Headers {
		e.Headers[k] = expandString(v)
	}
}

// envVarPattern matches ${VAR_NAME} references.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandString replaces ${VAR} references; unset variables expand to "".
func expandString(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

// StdioServers returns only the servers launched as child processes.
func StdioServers(specs []mcp.ServerSpec) []mcp.ServerSpec {
	out := make([]mcp.ServerSpec, 0, len(specs))

	for _, s := range specs {
		if s.Type() == mcp.ServerTypeStdio {
			out = append(out, s)
		}
	}

	return out
}
