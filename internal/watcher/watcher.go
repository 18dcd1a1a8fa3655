// Package watcher reports batches of source changes under a project root.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"gitlab.com/tozd/go/errors"
)

// Op is the kind of change.
type Op string

const (
	OpCreate Op = "create"
	OpWrite  Op = "write"
	OpRemove Op = "remove"
)

// Event represents a file change event.
type Event struct {
	Path string
	Op   Op
}

// DefaultDebounce is how long the tree must stay quiet before a batch is
// delivered.
const DefaultDebounce = 100 * time.Millisecond

// Watcher watches a directory tree for changes to matching files.
type Watcher struct {
	root     string
	match    func(rel string) bool
	debounce time.Duration
	skipDirs map[string]bool
	skipAbs  []string
	initial  bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period that ends a batch.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithInitialRun makes Run call onChange once with no events as soon as the
// tree is registered, so no change made after that call is missed.
func WithInitialRun() Option {
	return func(w *Watcher) { w.initial = true }
}

// WithSkipDirs skips directories. A relative name skips every directory of
// that name; an absolute path skips that directory only.
func WithSkipDirs(dirs ...string) Option {
	return func(w *Watcher) {
		for _, d := range dirs {
			if filepath.IsAbs(d) {
				w.skipAbs = append(w.skipAbs, filepath.Clean(d))
			} else {
				w.skipDirs[d] = true
			}
		}
	}
}

// New creates a watcher over root. match receives slash-separated paths
// relative to root and selects the files whose changes are reported.
func New(root string, match func(rel string) bool, opts ...Option) *Watcher {
	w := &Watcher{
		root:     filepath.Clean(root),
		match:    match,
		debounce: DefaultDebounce,
		skipDirs: map[string]bool{"node_modules": true, ".git": true},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done. Changes are collected until none has
// arrived for the debounce period and then passed to onChange, sorted by
// path, with one event per file. onChange runs on the watching goroutine;
// changes made meanwhile are delivered in the next batch.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, events []Event)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("creating file watcher: %w", err)
	}
	defer fw.Close()

	if _, err := w.addTree(fw, w.root); err != nil {
		return err
	}
	if w.initial {
		onChange(ctx, nil)
	}

	pending := map[string]Op{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			return errors.Errorf("watching %s: %w", w.root, err)

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.record(fw, ev, pending) {
				continue
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]Event, 0, len(pending))
			for p, op := range pending {
				batch = append(batch, Event{Path: p, Op: op})
			}
			clear(pending)
			slices.SortFunc(batch, func(a, b Event) int { return strings.Compare(a.Path, b.Path) })
			onChange(ctx, batch)
		}
	}
}

// record folds one notification into pending and reports whether it was
// relevant.
func (w *Watcher) record(fw *fsnotify.Watcher, ev fsnotify.Event, pending map[string]Op) bool {
	name := filepath.Clean(ev.Name)
	switch {
	case ev.Has(fsnotify.Create):
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			// Files created before the directory was added are reported here.
			created, _ := w.addTree(fw, name)
			for _, p := range created {
				pending[p] = OpCreate
			}
			return len(created) > 0
		}
		if !w.selected(name) {
			return false
		}
		if pending[name] != OpWrite {
			pending[name] = OpCreate
		}
	case ev.Has(fsnotify.Write):
		if !w.selected(name) {
			return false
		}
		if _, seen := pending[name]; !seen {
			pending[name] = OpWrite
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		if !w.selected(name) {
			return false
		}
		pending[name] = OpRemove
	default:
		return false
	}
	return true
}

// addTree registers dir and every directory below it, and returns the
// matching files already present.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Vanished while walking.
			return nil
		}
		if d.IsDir() {
			if p != w.root && w.skipped(p, d.Name()) {
				return filepath.SkipDir
			}
			if err := fw.Add(p); err != nil {
				return errors.Errorf("watching %s: %w", p, err)
			}
			return nil
		}
		if w.selected(p) {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

func (w *Watcher) skipped(dir, name string) bool {
	return w.skipDirs[name] || slices.Contains(w.skipAbs, dir)
}

func (w *Watcher) selected(p string) bool {
	rel, err := filepath.Rel(w.root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if w.skipDirs[part] {
			return false
		}
	}
	for _, d := range w.skipAbs {
		if p == d || strings.HasPrefix(p, d+string(filepath.Separator)) {
			return false
		}
	}
	return w.match(rel)
}
