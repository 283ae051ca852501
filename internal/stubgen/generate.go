package stubgen

import (
	"bytes"
	"fmt"
	"go/token"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"
	"unicode"

	"github.com/Masterminds/sprig/v3"
	"golang.org/x/tools/imports"

	"github.com/wagiedev/mcp-toolbridge/internal/errors"
	"github.com/wagiedev/mcp-toolbridge/internal/mcp"
	"github.com/wagiedev/mcp-toolbridge/internal/stub"
)

// DefaultImportPath is the package generated stubs call into.
const DefaultImportPath = "github.com/wagiedev/mcp-toolbridge"

// reserved holds the identifiers declared by the generated index file.
var reserved = []string{"Tools", "ServerName", "ServerURL", "ProxyURL"}

// Target says how the stubs of one server reach it.
type Target struct {
	// Type is mcp.ServerTypeHTTP for direct sessions and mcp.ServerTypeStdio
	// for proxy calls.
	Type mcp.ServerType
	// URL is the server endpoint for HTTP and the proxy base URL for stdio.
	URL string
}

// Options configures Generate.
type Options struct {
	// Targets maps server names to their targets.
	Targets map[string]Target

	// DefaultProxyURL is used for servers missing from Targets.
	DefaultProxyURL string

	// ImportPath overrides DefaultImportPath.
	ImportPath string
}

// File is one generated source file. Path is relative to the output root.
type File struct {
	Path    string
	Content []byte
}

type toolData struct {
	Package       string
	ImportPath    string
	Server        string
	Transport     string
	URL           string
	LocalName     string
	QualifiedName string
	Identifier    string
	Description   string
	InputSchema   map[string]any
}

type indexData struct {
	Package    string
	ImportPath string
	Server     string
	Transport  string
	URL        string
	Tools      []toolData
}

var (
	toolTmpl  = template.Must(template.New("tool").Funcs(funcMap()).Parse(toolTemplate))
	indexTmpl = template.Must(template.New("index").Funcs(funcMap()).Parse(indexTemplate))
)

func funcMap() template.FuncMap {
	fm := sprig.TxtFuncMap()
	fm["comment"] = comment
	fm["codeComment"] = codeComment

	return fm
}

// comment renders text as // comment lines.
func comment(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		l = strings.TrimRight(l, " \t\r")
		if l == "" {
			lines[i] = "//"
		} else {
			lines[i] = "// " + l
		}
	}

	return strings.Join(lines, "\n")
}

// codeComment renders text as an indented block inside a doc comment.
func codeComment(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "//\t" + l
	}

	return strings.Join(lines, "\n")
}

// PackageName derives a Go package name from a server name: dashes become
// underscores and the result is lower-cased.
func PackageName(server string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r == '-':
			return '_'
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			return unicode.ToLower(r)
		default:
			return '_'
		}
	}, server)

	if name == "" || unicode.IsDigit([]rune(name)[0]) {
		name = "server_" + name
	}

	if token.IsKeyword(name) {
		name += "_"
	}

	return name
}

// Generate renders one file per tool plus a tools.go index per server.
// Servers are laid out in one directory each, named by PackageName.
func Generate(descs []mcp.ToolDescriptor, opts Options) ([]File, error) {
	importPath := opts.ImportPath
	if importPath == "" {
		importPath = DefaultImportPath
	}

	byServer := make(map[string][]mcp.ToolDescriptor)
	for _, d := range descs {
		byServer[d.ServerName] = append(byServer[d.ServerName], d)
	}

	packages := make(map[string]string, len(byServer))

	var files []File

	for _, server := range slices.Sorted(maps.Keys(byServer)) {
		pkg := PackageName(server)
		if other, ok := packages[pkg]; ok {
			return nil, fmt.Errorf("servers %q and %q both map to package %q", other, server, pkg)
		}

		packages[pkg] = server

		serverFiles, err := generateServer(server, pkg, importPath, byServer[server], opts)
		if err != nil {
			return nil, err
		}

		files = append(files, serverFiles...)
	}

	return files, nil
}

func generateServer(server, pkg, importPath string, descs []mcp.ToolDescriptor, opts Options) ([]File, error) {
	target, ok := opts.Targets[server]
	if !ok {
		if opts.DefaultProxyURL == "" {
			return nil, fmt.Errorf("no target for server %q", server)
		}

		target = Target{Type: mcp.ServerTypeStdio, URL: opts.DefaultProxyURL}
	}

	if target.URL == "" {
		return nil, fmt.Errorf("target for server %q has no url", server)
	}

	ids, err := stub.CheckCollisions(server, descs)
	if err != nil {
		return nil, err
	}

	for _, local := range slices.Sorted(maps.Keys(ids)) {
		if id := ids[local]; slices.Contains(reserved, id) {
			return nil, &errors.NameCollisionError{Server: server, Identifier: id, Tools: []string{local}}
		}
	}

	sorted := slices.Clone(descs)
	slices.SortFunc(sorted, func(a, b mcp.ToolDescriptor) int {
		return strings.Compare(a.LocalName, b.LocalName)
	})

	index := indexData{
		Package:    pkg,
		ImportPath: importPath,
		Server:     server,
		Transport:  string(target.Type),
		URL:        target.URL,
	}

	files := make([]File, 0, len(sorted)+1)
	names := make(map[string]bool, len(sorted))

	for _, d := range sorted {
		td := toolData{
			Package:       pkg,
			ImportPath:    importPath,
			Server:        server,
			Transport:     index.Transport,
			URL:           target.URL,
			LocalName:     d.LocalName,
			QualifiedName: d.QualifiedName,
			Identifier:    ids[d.LocalName],
			Description:   d.Description,
			InputSchema:   d.InputSchema,
		}

		if td.InputSchema == nil {
			td.InputSchema = mcp.DefaultInputSchema()
		}

		index.Tools = append(index.Tools, td)

		content, err := render(toolTmpl, td)
		if err != nil {
			return nil, fmt.Errorf("render stub %s: %w", d.QualifiedName, err)
		}

		files = append(files, File{Path: filepath.Join(pkg, fileName(d.LocalName, names)), Content: content})
	}

	content, err := render(indexTmpl, index)
	if err != nil {
		return nil, fmt.Errorf("render index for %s: %w", server, err)
	}

	files = append(files, File{Path: filepath.Join(pkg, "tools.go"), Content: content})

	return files, nil
}

// fileName picks a unique file name for a tool within its package.
func fileName(local string, taken map[string]bool) string {
	base := "tool_" + stub.SnakeName(local)
	name := base + ".go"

	for i := 2; taken[name]; i++ {
		name = fmt.Sprintf("%s_%d.go", base, i)
	}

	taken[name] = true

	return name
}

func render(tmpl *template.Template, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}

	out, err := imports.Process("stub.go", buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w\n%s", err, buf.String())
	}

	return out, nil
}

// Write writes files under dir, creating package directories as needed.
func Write(dir string, files []File) error {
	for _, f := range files {
		path := filepath.Join(dir, f.Path)

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
		}

		if err := os.WriteFile(path, f.Content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}

	return nil
}
