package stub

import (
	"maps"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wagiedev/mcp-toolbridge/internal/errors"
	"github.com/wagiedev/mcp-toolbridge/internal/mcp"
)

// identifierPrefix is prepended when a name does not start with an
// upper-case letter after title-casing, e.g. "3d_render" -> "Tool3dRender".
const identifierPrefix = "Tool"

// Identifier rewrites a tool name into an exported Go identifier.
//
// Characters that cannot appear in an identifier split the name into parts;
// each part is title-cased and the parts are joined.
func Identifier(name string) string {
	parts := identifierParts(name)

	var b strings.Builder

	for _, p := range parts {
		r, size := utf8.DecodeRuneInString(p)
		b.WriteRune(unicode.ToUpper(r))
		b.WriteString(p[size:])
	}

	id := b.String()

	first, _ := utf8.DecodeRuneInString(id)
	if id == "" || !unicode.IsUpper(first) {
		id = identifierPrefix + id
	}

	return id
}

// SnakeName rewrites a tool name into a lower-case file name stem.
func SnakeName(name string) string {
	parts := identifierParts(name)
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}

	if len(parts) == 0 {
		return "tool"
	}

	return strings.Join(parts, "_")
}

func identifierParts(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// CheckCollisions maps the tools of one server to identifiers and fails with
// *errors.NameCollisionError when two tools share one. The returned map is
// keyed by local tool name.
func CheckCollisions(server string, tools []mcp.ToolDescriptor) (map[string]string, error) {
	byIdent := make(map[string][]string, len(tools))
	out := make(map[string]string, len(tools))

	for _, t := range tools {
		id := Identifier(t.LocalName)
		byIdent[id] = append(byIdent[id], t.LocalName)
		out[t.LocalName] = id
	}

	for _, id := range slices.Sorted(maps.Keys(byIdent)) {
		if names := byIdent[id]; len(names) > 1 {
			slices.Sort(names)

			return nil, &errors.NameCollisionError{Server: server, Identifier: id, Tools: names}
		}
	}

	return out, nil
}
