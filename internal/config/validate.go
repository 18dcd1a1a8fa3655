package config

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tsgonest/tskeys/internal/literal"
)

// maxDepthCeiling is where a configured depth starts to look like a mistake.
const maxDepthCeiling = 64

// ValidationResult holds config validation results.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// ValidateDetailed performs thorough config validation with suggestions.
func (c *Config) ValidateDetailed() *ValidationResult {
	result := &ValidationResult{}

	if c.Module == "" {
		result.Errors = append(result.Errors, "module: must not be empty")
	} else if strings.HasSuffix(c.Module, ".ts") {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("module: %q looks like a file path; imports are matched by their written specifier, e.g. %q",
				c.Module, strings.TrimSuffix(c.Module, ".ts")))
	}

	if c.Function == "" {
		result.Errors = append(result.Errors, "function: must not be empty")
	} else if !isIdentifier(c.Function) {
		result.Errors = append(result.Errors,
			fmt.Sprintf("function: %q is not a valid identifier", c.Function))
	}

	if _, err := literal.ParseMode(c.Output); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("output: invalid value %q; must be %q or %q", c.Output, literal.ModeRecords, literal.ModePaths))
	}

	switch {
	case c.MaxDepth < 1:
		result.Errors = append(result.Errors, "maxDepth: must be at least 1")
	case c.MaxDepth > maxDepthCeiling:
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("maxDepth: %d is very deep; emitted arrays may grow large", c.MaxDepth))
	}

	if len(c.Include) == 0 {
		result.Errors = append(result.Errors, "include: at least one pattern required")
	}
	for _, pattern := range c.Include {
		if !strings.Contains(pattern, "*") && !strings.Contains(pattern, ".") {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("include: pattern %q doesn't contain a wildcard or extension; did you mean %q?", pattern, pattern+"/**/*.ts"))
		}
	}

	return result
}

// IsValid returns true if there are no errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return s != ""
}
