package main

import (
	"context"
	"fmt"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"gitlab.com/tozd/go/errors"

	"github.com/tsgonest/tskeys/internal/compiler"
	"github.com/tsgonest/tskeys/internal/typedesc"
)

// recordsDump is the JSON output structure of the dump command.
type recordsDump struct {
	Files []fileDump `json:"files"`
}

type fileDump struct {
	FileName string     `json:"fileName"`
	Calls    []callDump `json:"calls"`
}

type callDump struct {
	Line       int                       `json:"line"`
	TypeText   string                    `json:"type,omitempty"`
	Properties []typedesc.PropertyRecord `json:"properties"`
}

// runDump flattens every marker call and writes the records as JSON to
// stdout without emitting anything.
func runDump(ctx context.Context, opts *options) error {
	s, err := openSession(ctx, opts)
	if err != nil {
		if errors.Is(err, errReported) {
			s.printDiagnostics()
		}
		return err
	}

	expansions, err := s.expand(ctx)
	if err != nil {
		return err
	}

	out := recordsDump{Files: []fileDump{}}
	for _, ex := range expansions {
		fd := fileDump{FileName: compiler.RelativePath(ex.File.SourceFile, s.cwd)}
		for i, call := range ex.File.Calls {
			cd := callDump{Line: call.Line, Properties: ex.Records[i]}
			if call.Root != nil {
				cd.TypeText = call.Root.Text
			}
			fd.Calls = append(fd.Calls, cd)
		}
		out.Files = append(out.Files, fd)
	}

	if err := json.MarshalWrite(opts.Stdout, out, jsontext.WithIndent("  ")); err != nil {
		return errors.Errorf("encoding dump: %w", err)
	}
	fmt.Fprintln(opts.Stdout)

	if s.printDiagnostics() {
		return errReported
	}
	return nil
}
