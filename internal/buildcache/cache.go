// Package buildcache lets a build skip itself when nothing it reads has
// changed since the last successful build.
//
// A build reads the tskeys config, the tsconfig and every root source file.
// All of them, plus the command-line settings that change the output, are
// folded into one xxh3 fingerprint. The cache is valid only when the
// fingerprint matches and every output it recorded still exists. There is no
// partial invalidation: a change to any type can change the literal of any
// call that reaches it.
package buildcache

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/microsoft/typescript-go/shim/vfs"
	"github.com/zeebo/xxh3"
	"gitlab.com/tozd/go/errors"
)

// SchemaVersion is bumped when the cache format or the literal format changes.
const SchemaVersion = 1

// FileName is the cache file's name inside the output directory.
const FileName = ".tskeys-cache"

// Cache records what was true when the last build succeeded.
type Cache struct {
	// V must match SchemaVersion.
	V int `json:"v"`

	// Fingerprint is the hex xxh3 digest of every input, see Fingerprint.
	Fingerprint string `json:"fingerprint"`

	// Outputs lists emitted files that must still exist for the cache to
	// hold.
	Outputs []string `json:"outputs"`
}

// CachePath returns the cache file path. The cache lives in the output
// directory so that deleting it forces a fresh build. Without an output
// directory it sits next to the tsconfig: "tsconfig.build.json" becomes
// "tsconfig.build.tskeys-cache".
func CachePath(outDir string, tsconfigPath string) string {
	if outDir != "" {
		return path.Join(outDir, FileName)
	}
	dir, base := path.Split(tsconfigPath)
	return dir + strings.TrimSuffix(base, ".json") + ".tskeys-cache"
}

// Load reads a cache file. It returns nil when the file is missing or
// unreadable; callers treat nil as a miss.
func Load(fs vfs.FS, cachePath string) *Cache {
	data, ok := fs.ReadFile(cachePath)
	if !ok {
		return nil
	}
	var c Cache
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil
	}
	return &c
}

// Save writes the cache.
func Save(fs vfs.FS, cachePath string, cache *Cache) error {
	data, err := json.Marshal(cache, json.Deterministic(true))
	if err != nil {
		return errors.Errorf("marshaling cache: %w", err)
	}
	if err := fs.WriteFile(cachePath, string(data), false); err != nil {
		return errors.Errorf("writing cache %s: %w", cachePath, err)
	}
	return nil
}

// Delete removes the cache file. A missing file is not an error.
func Delete(fs vfs.FS, cachePath string) {
	if fs.FileExists(cachePath) {
		_ = fs.Remove(cachePath)
	}
}

// IsValid reports whether the cache lets the build be skipped: the schema
// version and fingerprint match and every recorded output still exists.
func (c *Cache) IsValid(fs vfs.FS, fingerprint string) bool {
	if c == nil || c.V != SchemaVersion || c.Fingerprint != fingerprint {
		return false
	}
	for _, p := range c.Outputs {
		if !fs.FileExists(p) {
			return false
		}
	}
	return true
}

// New creates a cache for a successful build.
func New(fingerprint string, outputs []string) *Cache {
	outputs = slices.Clone(outputs)
	slices.Sort(outputs)
	return &Cache{
		V:           SchemaVersion,
		Fingerprint: fingerprint,
		Outputs:     outputs,
	}
}

// Fingerprint hashes settings followed by the path and content of every
// file, in sorted path order. A file that cannot be read hashes differently
// from an empty one.
func Fingerprint(fs vfs.FS, settings []byte, files []string) string {
	files = slices.Clone(files)
	slices.Sort(files)

	h := xxh3.New()
	_, _ = h.Write(settings)
	for _, f := range files {
		_, _ = h.WriteString("\x00" + f + "\x00")
		if data, ok := fs.ReadFile(f); ok {
			_, _ = h.WriteString("+")
			_, _ = h.WriteString(data)
		} else {
			_, _ = h.WriteString("-")
		}
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
