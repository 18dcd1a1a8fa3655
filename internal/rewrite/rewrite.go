package rewrite

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	shimcompiler "github.com/microsoft/typescript-go/shim/compiler"
	"github.com/microsoft/typescript-go/shim/vfs"
	"gitlab.com/tozd/go/errors"
)

// RewriteContext holds all data needed by the WriteFile callback to perform
// inline rewrites during emit. Fields are read-only after construction; the
// callback may run from several goroutines.
type RewriteContext struct {
	Target Target

	// Files maps source file path to its located calls.
	Files map[string]*FileCalls

	// Literals maps source file path to the serialized literal of each of
	// its calls, in call order.
	Literals map[string][]string

	// OutputToSource maps an emitted script path to its source file path.
	OutputToSource map[string]string

	// FS receives the written files. Nil writes to the OS file system.
	FS vfs.FS

	mu       sync.Mutex
	stats    Stats
	problems []Mismatch
}

// Stats counts what the callback did.
type Stats struct {
	FilesRewritten int
	CallsReplaced  int
}

// Mismatch records an emitted file where the number of marker calls found
// in the JS differs from the number located in the source.
type Mismatch struct {
	OutputFile string
	SourceFile string
	Expected   int
	Replaced   int
}

// MakeWriteFile returns a WriteFile callback that replaces marker calls in
// every emitted script and writes the result.
func (ctx *RewriteContext) MakeWriteFile() shimcompiler.WriteFile {
	return func(fileName string, text string, bom bool, data *shimcompiler.WriteFileData) error {
		if isScript(fileName) {
			text = ctx.rewrite(fileName, text)
		}
		if ctx.FS != nil {
			return ctx.FS.WriteFile(fileName, text, bom)
		}
		return writeFileToDisk(fileName, text, bom)
	}
}

func (ctx *RewriteContext) rewrite(fileName, text string) string {
	sourcePath := ctx.OutputToSource[fileName]
	fc, ok := ctx.Files[sourcePath]
	if !ok || len(fc.Calls) == 0 {
		return text
	}
	literals := ctx.Literals[sourcePath]
	out, n := RewriteCalls(text, ctx.Target, fc.Bindings, literals)

	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	if n > 0 {
		ctx.stats.FilesRewritten++
		ctx.stats.CallsReplaced += n
	}
	if n != len(literals) {
		ctx.problems = append(ctx.problems, Mismatch{
			OutputFile: fileName,
			SourceFile: sourcePath,
			Expected:   len(literals),
			Replaced:   n,
		})
	}
	return out
}

// Stats returns the counters accumulated so far.
func (ctx *RewriteContext) Stats() Stats {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.stats
}

// Mismatches returns the files whose calls could not all be replaced.
func (ctx *RewriteContext) Mismatches() []Mismatch {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return append([]Mismatch(nil), ctx.problems...)
}

// writeFileToDisk writes a file to disk, creating parent directories as needed.
func writeFileToDisk(fileName string, text string, writeByteOrderMark bool) error {
	if err := os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return errors.Errorf("creating output directory: %w", err)
	}

	content := text
	if writeByteOrderMark {
		content = "\xEF\xBB\xBF" + content
	}

	if err := os.WriteFile(fileName, []byte(content), 0o644); err != nil {
		return errors.Errorf("writing %s: %w", fileName, err)
	}
	return nil
}

// outputExts maps a source extension to the extension tsgo emits for it.
var outputExts = []struct{ src, out string }{
	{".d.ts", ""},
	{".tsx", ".js"},
	{".mts", ".mjs"},
	{".cts", ".cjs"},
	{".ts", ".js"},
}

func isScript(fileName string) bool {
	switch path.Ext(fileName) {
	case ".js", ".mjs", ".cjs":
		return true
	}
	return false
}

// OutputPath predicts where tsgo emits the JavaScript for source. The path
// relative to rootDir is mirrored under outDir; without an outDir, output
// sits next to its source. Declaration files have no output.
func OutputPath(source, rootDir, outDir string) string {
	for _, e := range outputExts {
		if !strings.HasSuffix(source, e.src) {
			continue
		}
		if e.out == "" {
			return ""
		}
		base := strings.TrimSuffix(source, e.src)
		if outDir != "" && rootDir != "" {
			if rel, err := filepath.Rel(rootDir, base); err == nil && !strings.HasPrefix(rel, "..") {
				base = path.Join(filepath.ToSlash(outDir), filepath.ToSlash(rel))
			}
		}
		return base + e.out
	}
	return ""
}

// OutputToSource maps the predicted output of every source back to it.
func OutputToSource(sources []string, rootDir, outDir string) map[string]string {
	result := make(map[string]string, len(sources))
	for _, src := range sources {
		if out := OutputPath(src, rootDir, outDir); out != "" {
			result[out] = src
		}
	}
	return result
}

// InferRootDir returns the deepest directory containing every file, the
// way tsc computes the common source directory when rootDir is unset.
func InferRootDir(fileNames []string) string {
	if len(fileNames) == 0 {
		return ""
	}
	common := path.Dir(filepath.ToSlash(fileNames[0]))
	for _, f := range fileNames[1:] {
		dir := path.Dir(filepath.ToSlash(f))
		for dir != common && !strings.HasPrefix(dir, strings.TrimSuffix(common, "/")+"/") {
			parent := path.Dir(common)
			if parent == common {
				return ""
			}
			common = parent
		}
	}
	if common == "." || common == "/" {
		return ""
	}
	return common
}
