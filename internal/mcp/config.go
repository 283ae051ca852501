package mcp

import (
	"fmt"
	"maps"
	"slices"
)

// ServerType represents the transport used to reach a tool server.
type ServerType string

const (
	// ServerTypeStdio spawns the server as a child process and speaks over its stdio.
	ServerTypeStdio ServerType = "stdio"
	// ServerTypeHTTP reaches the server over the streamable HTTP transport.
	ServerTypeHTTP ServerType = "http"
)

// ServerConfig is the transport-specific half of a ServerSpec.
// Implementations: *StdioServerConfig, *HTTPServerConfig.
type ServerConfig interface {
	GetType() ServerType
	clone() ServerConfig
}

// Compile-time verification that all server config types implement ServerConfig.
var (
	_ ServerConfig = (*StdioServerConfig)(nil)
	_ ServerConfig = (*HTTPServerConfig)(nil)
)

// StdioServerConfig configures a tool server launched as a child process.
type StdioServerConfig struct {
	Command string            `json:"command" yaml:"command"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// GetType implements ServerConfig.
func (c *StdioServerConfig) GetType() ServerType { return ServerTypeStdio }

func (c *StdioServerConfig) clone() ServerConfig {
	return &StdioServerConfig{
		Command: c.Command,
		Args:    slices.Clone(c.Args),
		Env:     maps.Clone(c.Env),
	}
}

// HTTPServerConfig configures a tool server reached over streamable HTTP.
type HTTPServerConfig struct {
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// GetType implements ServerConfig.
func (c *HTTPServerConfig) GetType() ServerType { return ServerTypeHTTP }

func (c *HTTPServerConfig) clone() ServerConfig {
	return &HTTPServerConfig{
		URL:     c.URL,
		Headers: maps.Clone(c.Headers),
	}
}

// ServerSpec names a tool server and describes how to reach it.
type ServerSpec struct {
	Name   string
	Config ServerConfig
}

// Clone returns a deep copy of the spec.
func (s ServerSpec) Clone() ServerSpec {
	out := ServerSpec{Name: s.Name}
	if s.Config != nil {
		out.Config = s.Config.clone()
	}

	return out
}

// Type returns the transport type, or "" when the spec has no config.
func (s ServerSpec) Type() ServerType {
	if s.Config == nil {
		return ""
	}

	return s.Config.GetType()
}

// Validate checks the name and the transport-specific fields.
func (s ServerSpec) Validate() error {
	if err := ValidateServerName(s.Name); err != nil {
		return err
	}

	switch c := s.Config.(type) {
	case *StdioServerConfig:
		if c == nil || c.Command == "" {
			return fmt.Errorf("server %q: stdio config requires a command", s.Name)
		}
	case *HTTPServerConfig:
		if c == nil || c.URL == "" {
			return fmt.Errorf("server %q: http config requires a url", s.Name)
		}
	default:
		return fmt.Errorf("server %q: missing transport config", s.Name)
	}

	return nil
}
