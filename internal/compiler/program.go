package compiler

import (
	"context"
	"fmt"
	"strings"

	"github.com/microsoft/typescript-go/shim/ast"
	shimcompiler "github.com/microsoft/typescript-go/shim/compiler"
	"github.com/microsoft/typescript-go/shim/core"
	"github.com/microsoft/typescript-go/shim/tsoptions"
	"github.com/microsoft/typescript-go/shim/tspath"
	"github.com/microsoft/typescript-go/shim/vfs"
	"gitlab.com/tozd/go/errors"
)

// Diagnostic represents a tsconfig or program diagnostic message.
type Diagnostic struct {
	FilePath string
	Message  string
}

func (d Diagnostic) String() string {
	if d.FilePath != "" {
		return fmt.Sprintf("%s: %s", d.FilePath, d.Message)
	}
	return d.Message
}

// CreateProgramResult contains the program and the parsed tsconfig for downstream use.
type CreateProgramResult struct {
	Program      *shimcompiler.Program
	ParsedConfig *tsoptions.ParsedCommandLine
}

// ParseTSConfig parses a tsconfig.json file using tsgo's native JSONC parser.
// Comments, trailing commas and extends chains are handled by tsgo.
func ParseTSConfig(fs vfs.FS, cwd string, tsconfigPath string, host shimcompiler.CompilerHost) (*tsoptions.ParsedCommandLine, []Diagnostic, error) {
	resolvedConfigPath := tspath.ResolvePath(cwd, tsconfigPath)
	if !fs.FileExists(resolvedConfigPath) {
		return nil, nil, errors.Errorf("could not find tsconfig at %s", resolvedConfigPath)
	}

	configParseResult, diagnostics := tsoptions.GetParsedCommandLineOfConfigFile(resolvedConfigPath, &core.CompilerOptions{}, nil, host, nil)
	if len(diagnostics) > 0 {
		return nil, convertDiagnostics(diagnostics), nil
	}
	if configParseResult == nil {
		return nil, nil, errors.Errorf("failed to parse tsconfig at %s", resolvedConfigPath)
	}
	if len(configParseResult.Errors) > 0 {
		return nil, convertDiagnostics(configParseResult.Errors), nil
	}

	return configParseResult, nil, nil
}

// CreateProgramFromConfig creates a TypeScript program from an already-parsed
// tsconfig and binds its source files. The checker is single-threaded: the
// host adapter walks the program once before any concurrent work starts.
func CreateProgramFromConfig(parsedConfig *tsoptions.ParsedCommandLine, host shimcompiler.CompilerHost) (*shimcompiler.Program, []Diagnostic, error) {
	program := shimcompiler.NewProgram(shimcompiler.ProgramOptions{
		Config:                      parsedConfig,
		SingleThreaded:              core.TSTrue,
		Host:                        host,
		UseSourceOfProjectReference: true,
	})
	if program == nil {
		return nil, nil, errors.New("failed to create program")
	}

	if programDiags := program.GetProgramDiagnostics(); len(programDiags) > 0 {
		return nil, convertDiagnostics(programDiags), nil
	}

	program.BindSourceFiles()

	return program, nil, nil
}

// CreateProgram parses tsconfigPath and creates a program from it.
func CreateProgram(fs vfs.FS, cwd string, tsconfigPath string, host shimcompiler.CompilerHost) (*CreateProgramResult, []Diagnostic, error) {
	parsedConfig, diags, err := ParseTSConfig(fs, cwd, tsconfigPath, host)
	if err != nil || len(diags) > 0 {
		return nil, diags, err
	}

	program, programDiags, err := CreateProgramFromConfig(parsedConfig, host)
	if err != nil || len(programDiags) > 0 {
		return nil, programDiags, err
	}

	return &CreateProgramResult{
		Program:      program,
		ParsedConfig: parsedConfig,
	}, nil, nil
}

// EmitResult wraps tsgo's EmitResult.
type EmitResult struct {
	EmittedFiles []string
	Diagnostics  []*ast.Diagnostic
	EmitSkipped  bool
}

// EmitProgram writes the compiled JavaScript through writeFile, or through
// the host when writeFile is nil.
func EmitProgram(ctx context.Context, program *shimcompiler.Program, writeFile shimcompiler.WriteFile) *EmitResult {
	opts := shimcompiler.EmitOptions{}
	if writeFile != nil {
		opts.WriteFile = writeFile
	}
	result := program.Emit(ctx, opts)
	return &EmitResult{
		EmittedFiles: result.EmittedFiles,
		Diagnostics:  result.Diagnostics,
		EmitSkipped:  result.EmitSkipped,
	}
}

// GatherDiagnostics collects all diagnostics from a program using tsgo's
// GetDiagnosticsOfAnyProgram, the same cascade tsgo itself uses:
//
//	config → syntactic → program → bind → options → global → semantic → declaration
//
// Keys are only spliced into programs that type-check, so a build stops
// here when any of these is an error.
func GatherDiagnostics(ctx context.Context, program *shimcompiler.Program) []*ast.Diagnostic {
	return shimcompiler.GetDiagnosticsOfAnyProgram(
		ctx,
		program,
		nil,   // all files
		false, // skipNoEmitCheckForDtsDiagnostics
		func(ctx context.Context, file *ast.SourceFile) []*ast.Diagnostic {
			// BindSourceFiles already ran; the checker reports bind errors
			// with the semantic ones.
			return nil
		},
		func(ctx context.Context, file *ast.SourceFile) []*ast.Diagnostic {
			return shimcompiler.Program_GetSemanticDiagnostics(program, ctx, file)
		},
	)
}

// GetSourceFiles returns the source files from a program, excluding declaration files.
func GetSourceFiles(program *shimcompiler.Program) []*ast.SourceFile {
	var files []*ast.SourceFile
	for _, f := range program.GetSourceFiles() {
		if !f.IsDeclarationFile {
			files = append(files, f)
		}
	}
	return files
}

// convertDiagnostics converts tsgo diagnostics to our Diagnostic type.
func convertDiagnostics(tsdiags []*ast.Diagnostic) []Diagnostic {
	diags := make([]Diagnostic, len(tsdiags))
	for i, d := range tsdiags {
		var filePath string
		if d.File() != nil {
			filePath = d.File().FileName()
		}
		diags[i] = Diagnostic{
			FilePath: filePath,
			Message:  d.String(),
		}
	}
	return diags
}

// FormatDiagnostics formats diagnostics into human-readable lines.
func FormatDiagnostics(diags []Diagnostic) string {
	var sb strings.Builder
	for _, d := range diags {
		sb.WriteString(d.String())
		sb.WriteString("\n")
	}
	return sb.String()
}
