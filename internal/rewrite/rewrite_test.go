package rewrite

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileToDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "test.js")

	err := writeFileToDisk(path, "console.log('hello');", false)
	if err != nil {
		t.Fatalf("writeFileToDisk failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if string(content) != "console.log('hello');" {
		t.Errorf("unexpected content: %s", string(content))
	}
}

func TestWriteFileToDisk_BOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bom.js")

	err := writeFileToDisk(path, "test", true)
	if err != nil {
		t.Fatalf("writeFileToDisk failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if !strings.HasPrefix(string(content), "\xEF\xBB\xBF") {
		t.Error("expected BOM prefix")
	}
}

func TestMakeWriteFile_RewritesMappedOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "dist", "index.js")
	other := filepath.Join(dir, "dist", "other.js")

	ctx := &RewriteContext{
		Target: defaultTarget,
		Files: map[string]*FileCalls{
			"/src/index.ts": {
				SourceFile: "/src/index.ts",
				Bindings:   Bindings{Locals: []string{"keys"}},
				Calls:      []CallSite{{SourceFile: "/src/index.ts", Pos: 40}},
			},
		},
		Literals:       map[string][]string{"/src/index.ts": {`["a"]`}},
		OutputToSource: map[string]string{out: "/src/index.ts", other: "/src/other.ts"},
	}
	write := ctx.MakeWriteFile()

	require.NoError(t, write(out, "import { keys } from \"ts-transformer-keys\";\nexport const k = keys();\n", false, nil))
	require.NoError(t, write(other, "export const k = keys();\n", false, nil))
	require.NoError(t, write(out+".map", "{}", false, nil))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, rewriteSentinel+"\nexport const k = [\"a\"];\n", string(got))

	untouched, err := os.ReadFile(other)
	require.NoError(t, err)
	assert.Equal(t, "export const k = keys();\n", string(untouched))

	assert.Equal(t, Stats{FilesRewritten: 1, CallsReplaced: 1}, ctx.Stats())
	assert.Empty(t, ctx.Mismatches())
}

func TestMakeWriteFile_ReportsMismatch(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "index.js")

	ctx := &RewriteContext{
		Target: defaultTarget,
		Files: map[string]*FileCalls{
			"/src/index.ts": {
				Bindings: Bindings{Locals: []string{"keys"}},
				Calls:    []CallSite{{Pos: 1}, {Pos: 2}},
			},
		},
		Literals:       map[string][]string{"/src/index.ts": {`[1]`, `[2]`}},
		OutputToSource: map[string]string{out: "/src/index.ts"},
	}
	require.NoError(t, ctx.MakeWriteFile()(out, "const a = keys();\n", false, nil))

	mm := ctx.Mismatches()
	require.Len(t, mm, 1)
	assert.Equal(t, 2, mm[0].Expected)
	assert.Equal(t, 1, mm[0].Replaced)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		source, rootDir, outDir, want string
	}{
		{"/p/src/a/index.ts", "/p/src", "/p/dist", "/p/dist/a/index.js"},
		{"/p/src/c.mts", "/p/src", "/p/dist", "/p/dist/c.mjs"},
		{"/p/src/d.cts", "/p/src", "/p/dist", "/p/dist/d.cjs"},
		{"/p/src/v.tsx", "/p/src", "/p/dist", "/p/dist/v.js"},
		{"/p/src/types.d.ts", "/p/src", "/p/dist", ""},
		{"/p/a.ts", "", "", "/p/a.js"},
		{"/other/x.ts", "/p/src", "/p/dist", "/other/x.js"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputPath(tt.source, tt.rootDir, tt.outDir), tt.source)
	}
}

func TestOutputToSource(t *testing.T) {
	sources := []string{"/p/src/a/index.ts", "/p/src/b/index.ts", "/p/src/types.d.ts"}
	got := OutputToSource(sources, "/p/src", "/p/dist")
	assert.Equal(t, map[string]string{
		"/p/dist/a/index.js": "/p/src/a/index.ts",
		"/p/dist/b/index.js": "/p/src/b/index.ts",
	}, got)
}

func TestInferRootDir(t *testing.T) {
	assert.Equal(t, "/p/src", InferRootDir([]string{"/p/src/a/x.ts", "/p/src/b/y.ts", "/p/src/z.ts"}))
	assert.Equal(t, "/p/src/a", InferRootDir([]string{"/p/src/a/x.ts"}))
	// Sibling directories sharing a name prefix are not nested.
	assert.Equal(t, "/p", InferRootDir([]string{"/p/src/x.ts", "/p/src2/y.ts"}))
	assert.Equal(t, "", InferRootDir([]string{"/a/x.ts", "/b/y.ts"}))
	assert.Equal(t, "", InferRootDir(nil))
}
