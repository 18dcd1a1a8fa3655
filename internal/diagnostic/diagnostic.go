// Package diagnostic collects the warnings and errors a build reports
// against user source: unresolved references, cycles, depth cut-offs and
// call sites that could not be rewritten.
package diagnostic

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// Category classifies diagnostics for filtering.
type Category string

const (
	CategoryUnresolvedReference Category = "unresolved-reference"
	CategoryCycle               Category = "cycle"
	CategoryDepthExceeded       Category = "depth-exceeded"
	CategoryConfigInvalid       Category = "config-invalid"
	CategoryCallMismatch        Category = "call-mismatch"
	CategoryCompile             Category = "compile"
)

// Location points at a position in a source file. Line and Column are
// 1-based; zero means unknown.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return ""
	}
	s := l.File
	if l.Line > 0 {
		s += fmt.Sprintf(":%d", l.Line)
		if l.Column > 0 {
			s += fmt.Sprintf(":%d", l.Column)
		}
	}
	return s
}

// Diagnostic represents a structured diagnostic message.
type Diagnostic struct {
	Severity Severity
	Category Category
	Location
	Message string
	Hint    string // optional suggestion for fixing the issue
}

// String formats the diagnostic for display.
func (d Diagnostic) String() string {
	var sb strings.Builder

	if loc := d.Location.String(); loc != "" {
		sb.WriteString(loc)
		sb.WriteString(" - ")
	}

	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")

	if d.Category != "" {
		sb.WriteString("[")
		sb.WriteString(string(d.Category))
		sb.WriteString("] ")
	}

	sb.WriteString(d.Message)

	if d.Hint != "" {
		sb.WriteString("\n  hint: ")
		sb.WriteString(d.Hint)
	}

	return sb.String()
}

// Collector collects diagnostics during a build. It is safe for concurrent
// use; files are expanded in parallel.
type Collector struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
	strict      bool // if true, warnings become errors
	quiet       bool // if true, suppress warnings
}

// NewCollector creates a new diagnostic collector.
func NewCollector(strict, quiet bool) *Collector {
	return &Collector{
		strict: strict,
		quiet:  quiet,
	}
}

func (c *Collector) add(d Diagnostic) {
	c.mu.Lock()
	c.diagnostics = append(c.diagnostics, d)
	c.mu.Unlock()
}

// Warn adds a warning diagnostic.
func (c *Collector) Warn(category Category, loc Location, message string) {
	c.WarnWithHint(category, loc, message, "")
}

// WarnWithHint adds a warning with a suggestion.
func (c *Collector) WarnWithHint(category Category, loc Location, message, hint string) {
	if c == nil {
		return
	}
	sev := SeverityWarning
	if c.strict {
		sev = SeverityError
	} else if c.quiet {
		return
	}
	c.add(Diagnostic{
		Severity: sev,
		Category: category,
		Location: loc,
		Message:  message,
		Hint:     hint,
	})
}

// Error adds an error diagnostic.
func (c *Collector) Error(category Category, loc Location, message string) {
	if c == nil {
		return
	}
	c.add(Diagnostic{
		Severity: SeverityError,
		Category: category,
		Location: loc,
		Message:  message,
	})
}

// Info adds an informational diagnostic.
func (c *Collector) Info(category Category, loc Location, message string) {
	if c == nil || c.quiet {
		return
	}
	c.add(Diagnostic{
		Severity: SeverityInfo,
		Category: category,
		Location: loc,
		Message:  message,
	})
}

// Diagnostics returns all collected diagnostics ordered by file, line and
// column. Diagnostics without a location come first.
func (c *Collector) Diagnostics() []Diagnostic {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	out := slices.Clone(c.diagnostics)
	c.mu.Unlock()
	slices.SortStableFunc(out, func(a, b Diagnostic) int {
		return cmp.Or(
			cmp.Compare(a.File, b.File),
			cmp.Compare(a.Line, b.Line),
			cmp.Compare(a.Column, b.Column),
		)
	})
	return out
}

func (c *Collector) count(sev Severity) int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, d := range c.diagnostics {
		if d.Severity == sev {
			count++
		}
	}
	return count
}

// HasErrors returns true if any error-level diagnostics exist.
func (c *Collector) HasErrors() bool {
	return c.ErrorCount() > 0
}

// ErrorCount returns the number of error diagnostics.
func (c *Collector) ErrorCount() int {
	return c.count(SeverityError)
}

// WarningCount returns the number of warning diagnostics.
func (c *Collector) WarningCount() int {
	return c.count(SeverityWarning)
}

// FormatAll formats all diagnostics as a multi-line string.
func (c *Collector) FormatAll() string {
	diags := c.Diagnostics()
	if len(diags) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, d := range diags {
		sb.WriteString(d.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Summary returns a summary line like "1 error(s), 2 warning(s)".
func (c *Collector) Summary() string {
	if c == nil {
		return ""
	}
	warnings := c.WarningCount()
	errors := c.ErrorCount()

	parts := []string{}
	if errors > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", errors))
	}
	if warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", warnings))
	}
	if len(parts) == 0 {
		return "no issues"
	}
	return strings.Join(parts, ", ")
}
