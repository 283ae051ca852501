package cli

import (
	"maps"
	"slices"
	"strings"
)

// Version is reported by the proxy binary and checked during discovery.
const Version = "0.1.0"

// Environment variables understood by the proxy launcher.
const (
	// EnvProxyPath overrides proxy executable discovery.
	EnvProxyPath = "TOOLBRIDGE_PROXY_PATH"
	// EnvSkipVersionCheck disables the proxy version probe when non-empty.
	EnvSkipVersionCheck = "TOOLBRIDGE_SKIP_VERSION_CHECK"
	// EnvEntrypoint tells the proxy process who launched it.
	EnvEntrypoint = "TOOLBRIDGE_ENTRYPOINT"
)

// Command is a resolved proxy invocation.
type Command struct {
	Path string
	Args []string
	Env  []string
}

// BuildProxyCommand assembles the proxy invocation. The launch configuration
// travels as JSON in the -config flag so the child needs no shared state.
func BuildProxyCommand(path string, launchConfig []byte, base []string, extra map[string]string) Command {
	env := maps.Clone(extra)
	if env == nil {
		env = make(map[string]string, 1)
	}

	env[EnvEntrypoint] = "toolbridge-go"

	return Command{
		Path: path,
		Args: []string{"-config", string(launchConfig)},
		Env:  BuildEnvironment(base, env),
	}
}

// BuildEnvironment overlays extra on base. Later keys win; the result is
// sorted by key for a stable child environment.
func BuildEnvironment(base []string, extra map[string]string) []string {
	env := make(map[string]string, len(base)+len(extra))

	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	maps.Copy(env, extra)

	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}

	return out
}
