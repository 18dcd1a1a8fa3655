// Package testutil builds typescript-go programs from in-memory TypeScript
// sources for tests.
package testutil

import (
	"io/fs"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/microsoft/typescript-go/shim/bundled"
	"github.com/microsoft/typescript-go/shim/tspath"
	"github.com/microsoft/typescript-go/shim/vfs"
	"github.com/microsoft/typescript-go/shim/vfs/osvfs"
)

// OverlayVFS wraps a base filesystem with in-memory virtual files.
// Virtual files take precedence over the underlying filesystem, and writes
// land in memory so emitted output never touches the disk.
type OverlayVFS struct {
	fs vfs.FS

	mu    sync.RWMutex
	files map[string]string
}

var _ vfs.FS = (*OverlayVFS)(nil)

func (o *OverlayVFS) lookup(path string) (string, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	src, ok := o.files[path]
	return src, ok
}

// Files returns a snapshot of every in-memory file, including written output.
func (o *OverlayVFS) Files() map[string]string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return maps.Clone(o.files)
}

func (o *OverlayVFS) UseCaseSensitiveFileNames() bool {
	return o.fs.UseCaseSensitiveFileNames()
}

func (o *OverlayVFS) FileExists(path string) bool {
	if _, ok := o.lookup(path); ok {
		return true
	}
	return o.fs.FileExists(path)
}

func (o *OverlayVFS) ReadFile(path string) (contents string, ok bool) {
	if src, ok := o.lookup(path); ok {
		return src, true
	}
	return o.fs.ReadFile(path)
}

func dirPrefix(path string) string {
	normalizedPath := tspath.NormalizePath(path)
	if !strings.HasSuffix(normalizedPath, "/") {
		normalizedPath += "/"
	}
	return normalizedPath
}

func (o *OverlayVFS) DirectoryExists(path string) bool {
	prefix := dirPrefix(path)
	o.mu.RLock()
	for virtualFilePath := range o.files {
		if strings.HasPrefix(virtualFilePath, prefix) {
			o.mu.RUnlock()
			return true
		}
	}
	o.mu.RUnlock()
	return o.fs.DirectoryExists(path)
}

func (o *OverlayVFS) GetAccessibleEntries(path string) (result vfs.Entries) {
	result = o.fs.GetAccessibleEntries(path)
	prefix := dirPrefix(path)

	seen := make(map[string]bool)
	o.mu.RLock()
	defer o.mu.RUnlock()
	for virtualFilePath := range o.files {
		withoutPrefix, found := strings.CutPrefix(virtualFilePath, prefix)
		if !found {
			continue
		}
		if before, _, ok := strings.Cut(withoutPrefix, "/"); ok {
			if !seen[before] {
				seen[before] = true
				result.Directories = append(result.Directories, before)
			}
		} else {
			result.Files = append(result.Files, withoutPrefix)
		}
	}
	return result
}

type overlayFileInfo struct {
	mode fs.FileMode
	name string
	size int64
}

var (
	_ fs.FileInfo = (*overlayFileInfo)(nil)
	_ fs.DirEntry = (*overlayFileInfo)(nil)
)

func (fi *overlayFileInfo) IsDir() bool                { return fi.mode.IsDir() }
func (fi *overlayFileInfo) ModTime() time.Time         { return time.Time{} }
func (fi *overlayFileInfo) Mode() fs.FileMode          { return fi.mode }
func (fi *overlayFileInfo) Name() string               { return fi.name }
func (fi *overlayFileInfo) Size() int64                { return fi.size }
func (fi *overlayFileInfo) Sys() any                   { return nil }
func (fi *overlayFileInfo) Info() (fs.FileInfo, error) { return fi, nil }
func (fi *overlayFileInfo) Type() fs.FileMode          { return fi.mode.Type() }

func (o *OverlayVFS) Stat(path string) vfs.FileInfo {
	if src, ok := o.lookup(path); ok {
		return &overlayFileInfo{
			name: path,
			size: int64(len(src)),
		}
	}
	return o.fs.Stat(path)
}

func (o *OverlayVFS) WalkDir(root string, walkFn vfs.WalkDirFunc) error {
	return o.fs.WalkDir(root, walkFn)
}

func (o *OverlayVFS) Realpath(path string) string {
	if _, ok := o.lookup(path); ok {
		return path
	}
	return o.fs.Realpath(path)
}

// WriteFile stores data in memory. The byte order mark flag is ignored.
func (o *OverlayVFS) WriteFile(path string, data string, writeByteOrderMark bool) error {
	o.mu.Lock()
	o.files[path] = data
	o.mu.Unlock()
	return nil
}

func (o *OverlayVFS) Remove(path string) error {
	o.mu.Lock()
	_, ok := o.files[path]
	delete(o.files, path)
	o.mu.Unlock()
	if ok {
		return nil
	}
	return o.fs.Remove(path)
}

func (o *OverlayVFS) Chtimes(path string, aTime time.Time, mTime time.Time) error {
	if _, ok := o.lookup(path); ok {
		return nil
	}
	return o.fs.Chtimes(path, aTime, mTime)
}

// NewOverlayVFS creates an OverlayVFS with the given virtual files on top of a base FS.
func NewOverlayVFS(baseFS vfs.FS, virtualFiles map[string]string) *OverlayVFS {
	files := maps.Clone(virtualFiles)
	if files == nil {
		files = make(map[string]string)
	}
	return &OverlayVFS{fs: baseFS, files: files}
}

// NewDefaultOverlayVFS creates an OverlayVFS with virtual files on top of the
// bundled OS filesystem (includes TypeScript lib files).
func NewDefaultOverlayVFS(virtualFiles map[string]string) *OverlayVFS {
	return NewOverlayVFS(bundled.WrapFS(osvfs.FS()), virtualFiles)
}
