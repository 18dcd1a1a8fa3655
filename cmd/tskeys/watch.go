package main

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"gitlab.com/tozd/go/errors"

	"github.com/tsgonest/tskeys/internal/compiler"
	"github.com/tsgonest/tskeys/internal/config"
	"github.com/tsgonest/tskeys/internal/logging"
	"github.com/tsgonest/tskeys/internal/watcher"
)

// runWatch builds once and rebuilds whenever a selected source file, the
// tsconfig or a tskeys config file changes. It returns when ctx is done.
func runWatch(ctx context.Context, opts *options) error {
	log := logging.From(ctx)

	s, err := newSession(ctx, opts)
	if err != nil {
		return err
	}
	tsconfigRel := compiler.RelativePath(s.tsconfigPath, s.cwd)
	match := func(rel string) bool {
		return rel == tsconfigRel || slices.Contains(config.FileNames, rel) || s.cfg.Matches(rel)
	}
	var skip []string
	if outDir := s.parsed.CompilerOptions().OutDir; outDir != "" {
		skip = append(skip, filepath.FromSlash(outDir))
	}

	build := func(ctx context.Context) {
		err := runBuild(ctx, opts)
		switch {
		case err == nil:
		case errors.Is(err, errReported):
			fmt.Fprintln(opts.Stderr, "build failed; waiting for changes")
		default:
			fmt.Fprintf(opts.Stderr, "error: %v\n", err)
		}
	}

	w := watcher.New(s.cwd, match, watcher.WithSkipDirs(skip...), watcher.WithInitialRun())
	return w.Run(ctx, func(ctx context.Context, events []watcher.Event) {
		if events == nil {
			build(ctx)
			log.InfoContext(ctx, "watching for changes", "root", s.cwd)
			return
		}
		for _, e := range events {
			log.DebugContext(ctx, "changed", "path", e.Path, "op", e.Op)
		}
		log.InfoContext(ctx, "rebuilding", "changes", len(events))
		build(ctx)
	})
}
