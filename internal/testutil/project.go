package testutil

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/microsoft/typescript-go/shim/ast"
	shimchecker "github.com/microsoft/typescript-go/shim/checker"
	shimcompiler "github.com/microsoft/typescript-go/shim/compiler"
	"github.com/microsoft/typescript-go/shim/tspath"
	"golang.org/x/tools/txtar"

	"github.com/tsgonest/tskeys/internal/compiler"
)

// MarkerDeclaration is a minimal typing of the marker module, enough for
// fixtures that import it to type-check.
const MarkerDeclaration = `export declare function keys<T extends object>(): Array<{ name: string; optional: boolean; type: string }>;
`

// Project is a compiled in-memory TypeScript project.
type Project struct {
	Root    string
	FS      *OverlayVFS
	Program *shimcompiler.Program
	Checker *shimchecker.Checker
}

// Txtar parses a txtar archive into a file map keyed by the archive names.
func Txtar(archive string) map[string]string {
	a := txtar.Parse([]byte(archive))
	files := make(map[string]string, len(a.Files))
	for _, f := range a.Files {
		files[f.Name] = string(f.Data)
	}
	return files
}

// NewProjectFromTxtar is NewProject over a txtar archive.
func NewProjectFromTxtar(t testing.TB, archive string) *Project {
	t.Helper()
	return NewProject(t, Txtar(archive))
}

// NewProjectFS writes files (paths relative to the project root) into an
// overlay over a fresh temp dir. It adds the marker module under
// node_modules, and a tsconfig.json listing every source file unless one is
// given. Nothing the overlay receives reaches the disk.
func NewProjectFS(t testing.TB, files map[string]string) (string, *OverlayVFS) {
	t.Helper()

	root := tspath.NormalizePath(filepath.ToSlash(t.TempDir()))
	virtual := make(map[string]string, len(files)+2)
	var sources []string
	for name, src := range files {
		virtual[tspath.ResolvePath(root, name)] = src
		if isSource(name) {
			sources = append(sources, name)
		}
	}
	slices.Sort(sources)

	markerPath := tspath.ResolvePath(root, "node_modules/ts-transformer-keys/index.d.ts")
	if _, ok := virtual[markerPath]; !ok {
		virtual[markerPath] = MarkerDeclaration
	}
	tsconfigPath := tspath.ResolvePath(root, "tsconfig.json")
	if _, ok := virtual[tsconfigPath]; !ok {
		virtual[tsconfigPath] = defaultTSConfig(t, sources)
	}
	return root, NewDefaultOverlayVFS(virtual)
}

// NewProject is NewProjectFS plus a bound program and its checker. The
// checker is released when the test ends.
func NewProject(t testing.TB, files map[string]string) *Project {
	t.Helper()

	root, fs := NewProjectFS(t, files)
	host := compiler.CreateDefaultHost(root, fs)
	result, diags, err := compiler.CreateProgram(fs, root, "tsconfig.json", host)
	if err != nil {
		t.Fatalf("creating program: %v", err)
	}
	if len(diags) > 0 {
		t.Fatalf("tsconfig errors:\n%s", compiler.FormatDiagnostics(diags))
	}

	checker, release := shimcompiler.Program_GetTypeChecker(result.Program, context.Background())
	if checker == nil {
		t.Fatal("failed to get type checker")
	}
	t.Cleanup(release)

	return &Project{
		Root:    root,
		FS:      fs,
		Program: result.Program,
		Checker: checker,
	}
}

func isSource(name string) bool {
	if strings.HasPrefix(name, "node_modules/") || strings.HasSuffix(name, ".d.ts") {
		return false
	}
	switch filepath.Ext(name) {
	case ".ts", ".tsx", ".mts", ".cts":
		return true
	}
	return false
}

func defaultTSConfig(t testing.TB, sources []string) string {
	t.Helper()
	cfg := map[string]any{
		"compilerOptions": map[string]any{
			"strict":       true,
			"target":       "es2020",
			"module":       "commonjs",
			"outDir":       "dist",
			"rootDir":      ".",
			"skipLibCheck": true,
		},
		"files": sources,
	}
	b, err := json.Marshal(cfg, json.Deterministic(true))
	if err != nil {
		t.Fatalf("encoding tsconfig: %v", err)
	}
	return string(b)
}

// Path returns the absolute path of a project-relative name.
func (p *Project) Path(name string) string {
	return tspath.ResolvePath(p.Root, name)
}

// SourceFile returns the program's source file for a project-relative name.
func (p *Project) SourceFile(t testing.TB, name string) *ast.SourceFile {
	t.Helper()
	sf := p.Program.GetSourceFile(p.Path(name))
	if sf == nil {
		t.Fatalf("source file %q not found in program", name)
	}
	return sf
}

// SourceFiles returns the program's non-declaration source files.
func (p *Project) SourceFiles() []*ast.SourceFile {
	return compiler.GetSourceFiles(p.Program)
}

// TypeNode returns the type node of the first type alias named name in the
// given file.
func (p *Project) TypeNode(t testing.TB, file, name string) *ast.Node {
	t.Helper()
	var found *ast.Node
	var walk func(node *ast.Node) bool
	walk = func(node *ast.Node) bool {
		if node.Kind == ast.KindTypeAliasDeclaration {
			decl := node.AsTypeAliasDeclaration()
			if decl.Name() != nil && decl.Name().Text() == name {
				found = decl.Type
				return true
			}
		}
		return node.ForEachChild(walk)
	}
	walk(p.SourceFile(t, file).AsNode())
	if found == nil {
		t.Fatalf("type alias %q not found in %s", name, file)
	}
	return found
}
