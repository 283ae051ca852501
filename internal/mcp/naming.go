package mcp

import (
	"fmt"
	"strings"

	"github.com/wagiedev/mcp-toolbridge/internal/errors"
)

// Separator joins a server name and a tool's local name into a qualified name.
const Separator = "__"

// QualifiedName returns server + Separator + tool.
func QualifiedName(server, tool string) string {
	return server + Separator + tool
}

// SplitQualifiedName splits a qualified name at the first separator.
// Server names never contain the separator, so the remainder is the local
// tool name exactly as the server reported it.
func SplitQualifiedName(name string) (server, tool string, err error) {
	server, tool, ok := strings.Cut(name, Separator)
	if !ok || server == "" || tool == "" {
		return "", "", fmt.Errorf("%w: %q", errors.ErrMalformedToolName, name)
	}

	return server, tool, nil
}

// ValidateServerName rejects names that would make the split ambiguous:
// empty names, names containing the separator, and names ending in "_"
// (the trailing underscore would merge into the separator).
func ValidateServerName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", errors.ErrInvalidName)
	}

	if strings.Contains(name, Separator) {
		return fmt.Errorf("%w: %q contains %q", errors.ErrInvalidName, name, Separator)
	}

	if strings.HasSuffix(name, "_") {
		return fmt.Errorf("%w: %q ends with %q", errors.ErrInvalidName, name, "_")
	}

	return nil
}
