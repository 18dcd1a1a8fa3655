package config

import (
	"path/filepath"
	"strings"
)

// Matches reports whether a source file is selected by the config's
// include and exclude patterns.
func (c *Config) Matches(filePath string) bool {
	return MatchesGlob(filePath, c.Include, c.Exclude)
}

// MatchesGlob checks if a file path matches any of the include patterns
// and does not match any of the exclude patterns.
func MatchesGlob(filePath string, includePatterns []string, excludePatterns []string) bool {
	if len(includePatterns) == 0 {
		return false
	}

	filePath = filepath.ToSlash(filePath)

	for _, pattern := range excludePatterns {
		if globMatch(filePath, filepath.ToSlash(pattern)) {
			return false
		}
	}
	for _, pattern := range includePatterns {
		if globMatch(filePath, filepath.ToSlash(pattern)) {
			return true
		}
	}
	return false
}

// globMatch matches a path against a glob pattern with ** support.
// Patterns match suffixes of the path: "src/**/*.ts" matches any file under
// a "src/" directory whose name matches "*.ts".
func globMatch(filePath, pattern string) bool {
	if matched, _ := filepath.Match(pattern, filePath); matched {
		return true
	}

	if !strings.Contains(pattern, "**") {
		// Without **, fall back to the basename.
		matched, _ := filepath.Match(filepath.Base(pattern), filepath.Base(filePath))
		return matched
	}

	prefix, suffix, _ := strings.Cut(pattern, "**")
	prefix = strings.TrimSuffix(prefix, "/")
	suffix = strings.TrimPrefix(suffix, "/")

	remaining := filePath
	if prefix != "" {
		searchStr := "/" + prefix + "/"
		idx := strings.Index("/"+filePath, searchStr)
		if idx < 0 {
			return false
		}
		remaining = filePath[idx+len(searchStr)-1:]
	}
	if suffix == "" {
		return true
	}
	if matched, _ := filepath.Match(suffix, filepath.Base(remaining)); matched {
		return true
	}
	matched, _ := filepath.Match(suffix, remaining)
	return matched
}
