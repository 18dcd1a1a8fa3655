package main

import (
	"context"
	"fmt"
	"time"

	"gitlab.com/tozd/go/errors"

	"github.com/tsgonest/tskeys/internal/buildcache"
	"github.com/tsgonest/tskeys/internal/compiler"
	"github.com/tsgonest/tskeys/internal/diagnostic"
	"github.com/tsgonest/tskeys/internal/literal"
	"github.com/tsgonest/tskeys/internal/logging"
	"github.com/tsgonest/tskeys/internal/rewrite"
)

// runBuild executes the build pipeline:
// config -> tsconfig -> cache check -> program -> diagnostics -> extract -> expand -> emit + rewrite.
func runBuild(ctx context.Context, opts *options) error {
	buildStart := time.Now()
	log := logging.From(ctx)

	s, err := newSession(ctx, opts)
	if err != nil {
		return err
	}

	cachePath := buildcache.CachePath(s.parsed.CompilerOptions().OutDir, s.tsconfigPath)
	fingerprint, err := s.fingerprint()
	if err != nil {
		return err
	}
	if !opts.Force && buildcache.Load(s.fs, cachePath).IsValid(s.fs, fingerprint) {
		log.InfoContext(ctx, "inputs unchanged", "cache", cachePath)
		fmt.Fprintln(opts.Stderr, "up to date")
		return nil
	}
	buildcache.Delete(s.fs, cachePath)

	if err := s.check(ctx); err != nil {
		if errors.Is(err, errReported) {
			s.printDiagnostics()
			fmt.Fprintf(opts.Stderr, "\n%s; nothing emitted\n", s.diags.Summary())
		}
		return err
	}

	expansions, err := s.expand(ctx)
	if err != nil {
		return err
	}

	rc := &rewrite.RewriteContext{
		Target:   s.target,
		Files:    make(map[string]*rewrite.FileCalls, len(expansions)),
		Literals: make(map[string][]string, len(expansions)),
		FS:       opts.FS,
	}
	mode := s.cfg.Mode()
	for _, ex := range expansions {
		lits := make([]string, len(ex.Records))
		for i, records := range ex.Records {
			lit, err := literal.Array(records, mode)
			if err != nil {
				return errors.Errorf("serializing %s: %w", ex.File.SourceFile, err)
			}
			lits[i] = lit
		}
		rc.Files[ex.File.SourceFile] = ex.File
		rc.Literals[ex.File.SourceFile] = lits
	}
	copts := s.parsed.CompilerOptions()
	rc.OutputToSource = rewrite.OutputToSource(sourceFiles(s.files), copts.RootDir, copts.OutDir)

	if s.diags.HasErrors() {
		s.printDiagnostics()
		fmt.Fprintf(opts.Stderr, "\n%s; nothing emitted\n", s.diags.Summary())
		return errReported
	}

	emitStart := time.Now()
	result := compiler.EmitProgram(ctx, s.program, rc.MakeWriteFile())
	s.timing.Emit = time.Since(emitStart)
	compiler.Report(s.diags, result.Diagnostics, s.cwd)
	if result.EmitSkipped {
		s.printDiagnostics()
		return errors.New("emit skipped")
	}

	for _, m := range rc.Mismatches() {
		s.diags.WarnWithHint(diagnostic.CategoryCallMismatch,
			diagnostic.Location{File: compiler.RelativePath(m.OutputFile, s.cwd)},
			fmt.Sprintf("replaced %d of %d keys() calls from %s", m.Replaced, m.Expected, compiler.RelativePath(m.SourceFile, s.cwd)),
			"call the marker directly; calls through other variables cannot be matched in the emitted code")
	}

	failed := s.printDiagnostics()
	stats := rc.Stats()
	log.DebugContext(ctx, "emitted", "rewritten", stats.FilesRewritten)
	fmt.Fprintf(opts.Stderr, "rewrote %d keys() call(s) in %d file(s)\n", stats.CallsReplaced, stats.FilesRewritten)
	if s.diags.ErrorCount() > 0 || s.diags.WarningCount() > 0 {
		fmt.Fprintln(opts.Stderr, s.diags.Summary())
	}

	s.timing.Total = time.Since(buildStart)
	if opts.Timing {
		s.timing.Print(opts.Stderr)
	}

	if failed {
		return errReported
	}
	if err := buildcache.Save(s.fs, cachePath, buildcache.New(fingerprint, s.outputs())); err != nil {
		log.WarnContext(ctx, "could not save build cache", "error", err)
	}
	return nil
}
