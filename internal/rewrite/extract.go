// Package rewrite locates keys<T>() calls in source files and replaces them
// with literal arrays in the emitted JavaScript.
package rewrite

import (
	"sort"

	"github.com/microsoft/typescript-go/shim/ast"
	shimscanner "github.com/microsoft/typescript-go/shim/scanner"

	"github.com/tsgonest/tskeys/internal/host"
	"github.com/tsgonest/tskeys/internal/typedesc"
)

// Target names the marker function and the module it is imported from.
type Target struct {
	Module   string
	Function string
}

// CallSite is one located marker call with its type argument already
// snapshotted. Root is nil when the call has no type argument.
type CallSite struct {
	SourceFile string         `json:"sourceFile"`
	Pos        int            `json:"pos"`
	Line       int            `json:"line"`
	Root       *typedesc.Root `json:"root,omitempty"`
}

// Bindings are the local names under which a file imported the marker:
// Locals for `import { keys as k }`, Namespaces for `import * as tk`.
type Bindings struct {
	Locals     []string `json:"locals,omitempty"`
	Namespaces []string `json:"namespaces,omitempty"`
}

// Empty reports whether the file imports the marker at all.
func (b Bindings) Empty() bool {
	return len(b.Locals) == 0 && len(b.Namespaces) == 0
}

// FileCalls groups the call sites of one source file in source order.
type FileCalls struct {
	SourceFile string     `json:"sourceFile"`
	Bindings   Bindings   `json:"bindings"`
	Calls      []CallSite `json:"calls"`
}

// ExtractCalls finds marker calls in sf. It checks the file's imports of
// target.Module, walks the AST for calls through those bindings and
// snapshots each type argument through h.
//
// Returns nil if the file does not import the marker.
func ExtractCalls(sf *ast.SourceFile, h *host.Host, target Target) *FileCalls {
	bindings := findBindings(sf, target)
	if bindings.Empty() {
		return nil
	}

	locals := make(map[string]bool, len(bindings.Locals))
	for _, l := range bindings.Locals {
		locals[l] = true
	}
	namespaces := make(map[string]bool, len(bindings.Namespaces))
	for _, n := range bindings.Namespaces {
		namespaces[n] = true
	}

	fc := &FileCalls{SourceFile: sf.FileName(), Bindings: bindings}
	var walk func(node *ast.Node)
	walk = func(node *ast.Node) {
		if node == nil {
			return
		}
		if node.Kind == ast.KindCallExpression && isMarkerCall(node.AsCallExpression(), locals, namespaces, target.Function) {
			fc.Calls = append(fc.Calls, callSite(sf, node, h))
		}
		node.ForEachChild(func(child *ast.Node) bool {
			walk(child)
			return false
		})
	}
	walk(sf.AsNode())

	sort.SliceStable(fc.Calls, func(i, j int) bool {
		return fc.Calls[i].Pos < fc.Calls[j].Pos
	})
	return fc
}

func callSite(sf *ast.SourceFile, node *ast.Node, h *host.Host) CallSite {
	call := node.AsCallExpression()
	line, _ := shimscanner.GetECMALineAndCharacterOfPosition(sf, node.Pos())
	site := CallSite{
		SourceFile: sf.FileName(),
		Pos:        node.Pos(),
		Line:       line + 1,
	}
	if call.TypeArguments != nil && len(call.TypeArguments.Nodes) > 0 {
		site.Root = h.RootOf(call.TypeArguments.Nodes[0])
	}
	return site
}

func isMarkerCall(call *ast.CallExpression, locals, namespaces map[string]bool, function string) bool {
	callee := call.Expression
	switch callee.Kind {
	case ast.KindIdentifier:
		return locals[callee.AsIdentifier().Text]
	case ast.KindPropertyAccessExpression:
		pa := callee.AsPropertyAccessExpression()
		if pa.Expression.Kind != ast.KindIdentifier || pa.Name() == nil {
			return false
		}
		return namespaces[pa.Expression.AsIdentifier().Text] && pa.Name().Text() == function
	}
	return false
}

// findBindings scans top-level imports of target.Module.
func findBindings(sf *ast.SourceFile, target Target) Bindings {
	var b Bindings
	for _, stmt := range sf.Statements.Nodes {
		if stmt.Kind != ast.KindImportDeclaration {
			continue
		}
		decl := stmt.AsImportDeclaration()
		if decl.ModuleSpecifier == nil || decl.ModuleSpecifier.Kind != ast.KindStringLiteral {
			continue
		}
		if decl.ModuleSpecifier.AsStringLiteral().Text != target.Module {
			continue
		}
		if decl.ImportClause == nil {
			continue
		}
		clause := decl.ImportClause.AsImportClause()
		if clause.NamedBindings == nil {
			continue
		}
		switch clause.NamedBindings.Kind {
		case ast.KindNamedImports:
			named := clause.NamedBindings.AsNamedImports()
			if named.Elements == nil {
				continue
			}
			for _, elem := range named.Elements.Nodes {
				spec := elem.AsImportSpecifier()
				if spec.IsTypeOnly {
					continue
				}
				local := spec.Name().Text()
				original := local
				if spec.PropertyName != nil {
					original = spec.PropertyName.Text()
				}
				if original == target.Function {
					b.Locals = append(b.Locals, local)
				}
			}
		case ast.KindNamespaceImport:
			if name := clause.NamedBindings.Name(); name != nil {
				b.Namespaces = append(b.Namespaces, name.Text())
			}
		}
	}
	return b
}
