package proxy

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/wagiedev/mcp-toolbridge/internal/config"
	"github.com/wagiedev/mcp-toolbridge/internal/mcp"
)

// AnnouncePrefix starts the stdout line on which the proxy process reports
// its bound address.
const AnnouncePrefix = "TOOLBRIDGE_PROXY_LISTENING"

// LaunchServer is a stdio server entry in the launch configuration.
type LaunchServer struct {
	Name    string            `json:"name"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// LaunchConfig is everything the proxy process needs, passed as JSON in its
// -config argument.
type LaunchConfig struct {
	Host     string         `json:"host"`
	Port     int            `json:"port"`
	LogLevel string         `json:"log_level,omitempty"`
	Servers  []LaunchServer `json:"servers"`
}

// NewLaunchConfig builds a launch configuration from specs. Only stdio specs
// are carried; the second return value names the dropped HTTP servers.
func NewLaunchConfig(specs []mcp.ServerSpec, opts *config.Options) (LaunchConfig, []string) {
	opts = opts.WithDefaults()

	lc := LaunchConfig{
		Host:     opts.ProxyHost,
		Port:     opts.ListenPort(),
		LogLevel: opts.ProxyLogLevel.String(),
		Servers:  make([]LaunchServer, 0, len(specs)),
	}

	var dropped []string

	for _, spec := range specs {
		stdio, ok := spec.Config.(*mcp.StdioServerConfig)
		if !ok {
			dropped = append(dropped, spec.Name)

			continue
		}

		lc.Servers = append(lc.Servers, LaunchServer{
			Name:    spec.Name,
			Command: stdio.Command,
			Args:    slices.Clone(stdio.Args),
			Env:     maps.Clone(stdio.Env),
		})
	}

	return lc, dropped
}

// ParseLaunchConfig decodes and validates a JSON launch configuration.
func ParseLaunchConfig(data []byte) (LaunchConfig, error) {
	var lc LaunchConfig

	if err := json.Unmarshal(data, &lc); err != nil {
		return LaunchConfig{}, fmt.Errorf("parse launch config: %w", err)
	}

	if lc.Host == "" {
		lc.Host = config.DefaultProxyHost
	}

	if lc.Port < 0 || lc.Port > 65535 {
		return LaunchConfig{}, fmt.Errorf("parse launch config: port %d out of range", lc.Port)
	}

	for _, spec := range lc.Specs() {
		if err := spec.Validate(); err != nil {
			return LaunchConfig{}, fmt.Errorf("parse launch config: %w", err)
		}
	}

	return lc, nil
}

// Specs converts the launch servers back into server specs.
func (lc LaunchConfig) Specs() []mcp.ServerSpec {
	specs := make([]mcp.ServerSpec, 0, len(lc.Servers))

	for _, s := range lc.Servers {
		specs = append(specs, mcp.ServerSpec{
			Name: s.Name,
			Config: &mcp.StdioServerConfig{
				Command: s.Command,
				Args:    s.Args,
				Env:     s.Env,
			},
		})
	}

	return specs
}

// Level parses LogLevel, defaulting to info.
func (lc LaunchConfig) Level() slog.Level {
	var level slog.Level

	if lc.LogLevel == "" {
		return slog.LevelInfo
	}

	if err := level.UnmarshalText([]byte(strings.ToUpper(lc.LogLevel))); err != nil {
		return slog.LevelInfo
	}

	return level
}

// fromFile converts a loaded config file into a launch configuration.
func fromFile(f *config.File) LaunchConfig {
	opts := &config.Options{ProxyHost: f.Proxy.Host, ProxyPort: f.Proxy.Port}
	lc, _ := NewLaunchConfig(config.StdioServers(f.Servers), opts)

	return lc
}
