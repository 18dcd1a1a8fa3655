package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/microsoft/typescript-go/shim/ast"
	shimscanner "github.com/microsoft/typescript-go/shim/scanner"

	"github.com/tsgonest/tskeys/internal/diagnostic"
)

// tsgo's diagnostics.Category values, redeclared to avoid importing the
// internal diagnostics package.
const (
	categoryWarning    = 0
	categoryError      = 1
	categorySuggestion = 2
	categoryMessage    = 3
)

// IsPrettyOutput determines if we should use colored output.
// Mirrors tsgo's shouldBePretty logic: NO_COLOR, FORCE_COLOR, then isatty.
func IsPrettyOutput() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// IsError reports whether d is an error-category diagnostic.
func IsError(d *ast.Diagnostic) bool {
	return int(ast.Diagnostic_Category(d)) == categoryError
}

// CountErrors returns the number of error-category diagnostics.
func CountErrors(diags []*ast.Diagnostic) int {
	count := 0
	for _, d := range diags {
		if IsError(d) {
			count++
		}
	}
	return count
}

// Report adds tsgo diagnostics to c under diagnostic.CategoryCompile.
// Suggestions are dropped. File paths are made relative to cwd.
func Report(c *diagnostic.Collector, diags []*ast.Diagnostic, cwd string) {
	for _, d := range diags {
		loc := locationOf(d, cwd)
		msg := fmt.Sprintf("TS%d: %s", d.Code(), d.String())
		switch int(ast.Diagnostic_Category(d)) {
		case categoryError:
			c.Error(diagnostic.CategoryCompile, loc, msg)
		case categoryWarning:
			c.Warn(diagnostic.CategoryCompile, loc, msg)
		case categoryMessage:
			c.Info(diagnostic.CategoryCompile, loc, msg)
		case categorySuggestion:
		}
	}
}

func locationOf(d *ast.Diagnostic, cwd string) diagnostic.Location {
	if d.File() == nil {
		return diagnostic.Location{}
	}
	line, char := shimscanner.GetECMALineAndCharacterOfPosition(d.File(), d.Pos())
	return diagnostic.Location{
		File:   RelativePath(d.File().FileName(), cwd),
		Line:   line + 1,
		Column: char + 1,
	}
}

// RelativePath converts an absolute path to relative if possible.
func RelativePath(absPath string, cwd string) string {
	if cwd == "" {
		return absPath
	}
	rel, err := filepath.Rel(cwd, absPath)
	if err != nil {
		return absPath
	}
	return filepath.ToSlash(rel)
}
