package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"time"

	"github.com/go-json-experiment/json"
	shimcompiler "github.com/microsoft/typescript-go/shim/compiler"
	"github.com/microsoft/typescript-go/shim/tsoptions"
	"github.com/microsoft/typescript-go/shim/tspath"
	"github.com/microsoft/typescript-go/shim/vfs"
	slogctx "github.com/veqryn/slog-context"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/tsgonest/tskeys/internal/buildcache"
	"github.com/tsgonest/tskeys/internal/compiler"
	"github.com/tsgonest/tskeys/internal/config"
	"github.com/tsgonest/tskeys/internal/diagnostic"
	"github.com/tsgonest/tskeys/internal/flatten"
	"github.com/tsgonest/tskeys/internal/host"
	"github.com/tsgonest/tskeys/internal/logging"
	"github.com/tsgonest/tskeys/internal/rewrite"
	"github.com/tsgonest/tskeys/internal/scope"
	"github.com/tsgonest/tskeys/internal/typedesc"
)

// errReported is returned once the reason for failing has already been
// printed as diagnostics.
var errReported = errors.New("build failed")

// options are the command-line settings shared by build, watch and dump.
type options struct {
	Project string
	Config  string
	Strict  bool
	Quiet   bool
	Timing  bool
	Force   bool
	Verbose bool
	NoColor bool

	// Cwd defaults to the process working directory.
	Cwd string
	// FS defaults to the OS file system with bundled libs.
	FS vfs.FS

	Stdout io.Writer
	Stderr io.Writer
}

// TimingReport collects timing data for each build pipeline phase.
type TimingReport struct {
	TSConfig    time.Duration
	Program     time.Duration
	Diagnostics time.Duration
	Extract     time.Duration
	Expand      time.Duration
	Emit        time.Duration
	Total       time.Duration
}

// Print outputs the build timing breakdown.
func (t *TimingReport) Print(w io.Writer) {
	fmt.Fprintf(w, "\n--- timing ---\n")
	fmt.Fprintf(w, "  tsconfig:      %s\n", t.TSConfig.Round(time.Millisecond))
	fmt.Fprintf(w, "  program:       %s\n", t.Program.Round(time.Millisecond))
	fmt.Fprintf(w, "  diagnostics:   %s\n", t.Diagnostics.Round(time.Millisecond))
	fmt.Fprintf(w, "  extract:       %s\n", t.Extract.Round(time.Millisecond))
	fmt.Fprintf(w, "  expand:        %s\n", t.Expand.Round(time.Millisecond))
	fmt.Fprintf(w, "  emit:          %s\n", t.Emit.Round(time.Millisecond))
	fmt.Fprintf(w, "  total:         %s\n", t.Total.Round(time.Millisecond))
}

// ConfigResult holds the result of loading a tskeys config file.
type ConfigResult struct {
	Config *config.Config
	Path   string // resolved absolute path to config file (empty if none found)
}

// loadOrDiscoverConfig loads a tskeys config from the given path, or
// auto-discovers one in the working directory if configPath is empty.
// Without a config file the defaults apply.
func loadOrDiscoverConfig(configPath, cwd string) (*ConfigResult, error) {
	if configPath != "" {
		resolved := configPath
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(cwd, resolved)
		}
		cfg, err := config.Load(resolved)
		if err != nil {
			return nil, err
		}
		return &ConfigResult{Config: cfg, Path: resolved}, nil
	}

	if p := config.Discover(cwd); p != "" {
		cfg, err := config.Load(p)
		if err != nil {
			return nil, err
		}
		return &ConfigResult{Config: cfg, Path: p}, nil
	}

	cfg := config.DefaultConfig()
	return &ConfigResult{Config: &cfg}, nil
}

// session is one loaded, type-checked project with its marker calls
// extracted. After check returns, the checker is no longer needed.
type session struct {
	opts       *options
	cwd        string
	fs         vfs.FS
	cfg        *config.Config
	configPath string
	target     rewrite.Target

	tsconfigPath string
	parsed       *tsoptions.ParsedCommandLine
	program      *shimcompiler.Program
	scopes       *scope.Map
	files        []*rewrite.FileCalls // sorted by source file

	diags  *diagnostic.Collector
	timing TimingReport
}

// openSession is newSession followed by check.
func openSession(ctx context.Context, opts *options) (*session, error) {
	s, err := newSession(ctx, opts)
	if err != nil {
		return nil, err
	}
	return s, s.check(ctx)
}

// newSession loads the tskeys config and parses the tsconfig.
func newSession(ctx context.Context, opts *options) (*session, error) {
	cwd := opts.Cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Errorf("could not get working directory: %w", err)
		}
		cwd = wd
	}
	log := logging.From(ctx)

	cr, err := loadOrDiscoverConfig(opts.Config, cwd)
	if err != nil {
		return nil, err
	}
	if cr.Path != "" {
		log.InfoContext(ctx, "loaded config", "path", cr.Path)
	}
	cfg := cr.Config
	for _, w := range cfg.ValidateDetailed().Warnings {
		log.WarnContext(ctx, "config", "warning", w)
	}

	s := &session{
		opts:       opts,
		cwd:        cwd,
		fs:         opts.FS,
		cfg:        cfg,
		configPath: cr.Path,
		target:     rewrite.Target{Module: cfg.Module, Function: cfg.Function},
		diags:      diagnostic.NewCollector(opts.Strict || cfg.Strict, opts.Quiet),
	}
	if s.fs == nil {
		s.fs = compiler.CreateDefaultFS()
	}

	start := time.Now()
	s.tsconfigPath = tspath.ResolvePath(cwd, opts.Project)
	log.DebugContext(ctx, "parsing tsconfig", "project", opts.Project)
	parsed, cdiags, err := compiler.ParseTSConfig(s.fs, cwd, opts.Project, compiler.CreateDefaultHost(cwd, s.fs))
	if err != nil {
		return nil, err
	}
	if len(cdiags) > 0 {
		return nil, errors.Errorf("invalid tsconfig:\n%s", compiler.FormatDiagnostics(cdiags))
	}
	copts := parsed.CompilerOptions()
	if copts.RootDir == "" && copts.OutDir != "" {
		if inferred := rewrite.InferRootDir(parsed.FileNames()); inferred != "" {
			log.DebugContext(ctx, "inferred rootDir", "rootDir", inferred)
			copts.RootDir = inferred
		}
	}
	s.parsed = parsed
	s.timing.TSConfig = time.Since(start)
	return s, nil
}

// check creates and type-checks the program, then extracts every marker
// call. Type errors are added to the collector and abort with errReported.
func (s *session) check(ctx context.Context) error {
	log := logging.From(ctx)

	start := time.Now()
	program, pdiags, err := compiler.CreateProgramFromConfig(s.parsed, compiler.CreateDefaultHost(s.cwd, s.fs))
	if err != nil {
		return err
	}
	if len(pdiags) > 0 {
		return errors.Errorf("program errors:\n%s", compiler.FormatDiagnostics(pdiags))
	}
	s.program = program
	s.timing.Program = time.Since(start)

	start = time.Now()
	tsdiags := compiler.GatherDiagnostics(ctx, program)
	compiler.Report(s.diags, tsdiags, s.cwd)
	s.timing.Diagnostics = time.Since(start)
	if n := compiler.CountErrors(tsdiags); n > 0 {
		log.DebugContext(ctx, "type checking failed", "errors", n)
		return errReported
	}

	start = time.Now()
	if err := s.extract(ctx); err != nil {
		return err
	}
	s.timing.Extract = time.Since(start)
	return nil
}

// inputs lists every file a build reads besides the bundled libs.
func (s *session) inputs() []string {
	files := append([]string{s.tsconfigPath}, s.parsed.FileNames()...)
	if s.configPath != "" {
		files = append(files, tspath.NormalizePath(filepath.ToSlash(s.configPath)))
	}
	return files
}

// fingerprint hashes the inputs together with every setting that changes
// what a build emits or whether it fails.
func (s *session) fingerprint() (string, error) {
	settings, err := json.Marshal(struct {
		Version string         `json:"version"`
		Config  *config.Config `json:"config"`
		Strict  bool           `json:"strict"`
	}{version, s.cfg, s.opts.Strict}, json.Deterministic(true))
	if err != nil {
		return "", errors.Errorf("encoding build settings: %w", err)
	}
	return buildcache.Fingerprint(s.fs, settings, s.inputs()), nil
}

// outputs predicts the script emitted for every root file.
func (s *session) outputs() []string {
	copts := s.parsed.CompilerOptions()
	return slices.Sorted(maps.Keys(rewrite.OutputToSource(s.parsed.FileNames(), copts.RootDir, copts.OutDir)))
}

// extract builds the scope map and snapshots every marker call.
func (s *session) extract(ctx context.Context) error {
	checker, release := shimcompiler.Program_GetTypeChecker(s.program, ctx)
	if checker == nil {
		return errors.New("could not get type checker")
	}
	defer release()

	h := host.New(checker)
	sources := compiler.GetSourceFiles(s.program)

	var sopts []scope.Option
	if !s.fs.UseCaseSensitiveFileNames() {
		sopts = append(sopts, scope.WithCaseFolding())
	}
	s.scopes = h.BuildScopeMap(sources, sopts...)
	logging.From(ctx).DebugContext(ctx, "built scope map", "units", len(s.scopes.Units()), "names", s.scopes.Len())

	for _, sf := range sources {
		if !s.cfg.Matches(compiler.RelativePath(sf.FileName(), s.cwd)) {
			continue
		}
		if fc := rewrite.ExtractCalls(sf, h, s.target); fc != nil && len(fc.Calls) > 0 {
			s.files = append(s.files, fc)
		}
	}
	slices.SortFunc(s.files, func(a, b *rewrite.FileCalls) int {
		return cmp.Compare(a.SourceFile, b.SourceFile)
	})
	return nil
}

// expansion is the flattened output of one source file's calls, in call order.
type expansion struct {
	File    *rewrite.FileCalls
	Records [][]typedesc.PropertyRecord
}

// expand flattens every extracted call. Files are expanded concurrently,
// each with its own engine over the shared read-only scope map.
func (s *session) expand(ctx context.Context) ([]expansion, error) {
	start := time.Now()
	defer func() { s.timing.Expand = time.Since(start) }()

	out := make([]expansion, len(s.files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, fc := range s.files {
		g.Go(func() error {
			fctx := slogctx.Append(gctx, "file", compiler.RelativePath(fc.SourceFile, s.cwd))
			e := flatten.New(s.scopes, flatten.WithMaxDepth(s.cfg.MaxDepth))
			res := expansion{File: fc, Records: make([][]typedesc.PropertyRecord, len(fc.Calls))}
			for j, call := range fc.Calls {
				if err := fctx.Err(); err != nil {
					return err
				}
				before := len(e.Notes())
				res.Records[j] = e.FlattenType(call.Root)
				s.report(call, e.Notes()[before:])
				logging.From(fctx).DebugContext(fctx, "expanded call", "line", call.Line, "paths", len(res.Records[j]))
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Errorf("expanding calls: %w", err)
	}
	return out, nil
}

// report turns flattening notes of one call into diagnostics.
func (s *session) report(call rewrite.CallSite, notes []flatten.Note) {
	loc := diagnostic.Location{File: compiler.RelativePath(call.SourceFile, s.cwd), Line: call.Line}
	text := ""
	if call.Root != nil {
		text = call.Root.Text
	}
	for _, n := range notes {
		msg := fmt.Sprintf("keys<%s>(): %s", text, n)
		switch n.Kind {
		case flatten.NoteUnresolved:
			s.diags.WarnWithHint(diagnostic.CategoryUnresolvedReference, loc, msg,
				"only types declared in the program's own source files are expanded")
		case flatten.NoteCycle:
			s.diags.Warn(diagnostic.CategoryCycle, loc, msg)
		case flatten.NoteDepth:
			s.diags.WarnWithHint(diagnostic.CategoryDepthExceeded, loc, msg,
				fmt.Sprintf("raise maxDepth (currently %d) in the tskeys config", s.cfg.MaxDepth))
		}
	}
}

// printDiagnostics writes collected diagnostics and reports whether any is
// an error.
func (s *session) printDiagnostics() bool {
	if s == nil {
		return false
	}
	if text := s.diags.FormatAll(); text != "" {
		fmt.Fprint(s.opts.Stderr, text)
	}
	return s.diags.HasErrors()
}

// withLogging installs the command's logger on ctx.
func withLogging(ctx context.Context, opts *options) context.Context {
	return logging.Setup(ctx, opts.Stderr, logging.Options{
		Verbose: opts.Verbose,
		NoColor: opts.NoColor || !compiler.IsPrettyOutput(),
		Root:    opts.Cwd,
	})
}

// sourceFiles lists the source paths that have calls.
func sourceFiles(files []*rewrite.FileCalls) []string {
	out := make([]string, len(files))
	for i, fc := range files {
		out[i] = fc.SourceFile
	}
	return out
}
