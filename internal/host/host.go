// Package host adapts the typescript-go checker and AST to the data model
// the flattening engine consumes.
//
// Everything the engine needs is snapshotted here into typedesc values, so
// once call sites are extracted and the scope map is built the checker is
// no longer consulted.
package host

import (
	"strings"

	"github.com/microsoft/typescript-go/shim/ast"
	shimchecker "github.com/microsoft/typescript-go/shim/checker"

	"github.com/tsgonest/tskeys/internal/typedesc"
)

// Host answers type queries for one program.
type Host struct {
	checker *shimchecker.Checker
}

// New creates a Host over checker.
func New(checker *shimchecker.Checker) *Host {
	return &Host{checker: checker}
}

// PropertiesOf returns the properties the checker reports for the type
// written at typeNode. Unions and intersections come back already reduced
// to their common or combined property set.
func (h *Host) PropertiesOf(typeNode *ast.Node) []typedesc.PropertySymbol {
	t := shimchecker.Checker_getTypeFromTypeNode(h.checker, typeNode)
	if t == nil {
		return nil
	}
	props := shimchecker.Checker_getPropertiesOfType(h.checker, t)
	out := make([]typedesc.PropertySymbol, 0, len(props))
	for _, p := range props {
		out = append(out, typedesc.PropertySymbol{
			Name:         p.Name,
			Declarations: h.DeclarationsOf(p),
		})
	}
	return out
}

// DeclarationsOf snapshots every declaration site of a property symbol, in
// the order the checker recorded them.
func (h *Host) DeclarationsOf(sym *ast.Symbol) []typedesc.PropertyDeclaration {
	if sym == nil {
		return nil
	}
	out := make([]typedesc.PropertyDeclaration, 0, len(sym.Declarations))
	for _, d := range sym.Declarations {
		decl := DeclaredTypeOf(d)
		decl.Name = sym.Name
		out = append(out, decl)
	}
	return out
}

// RootOf builds the flattening input for a call's type argument. A nil
// type argument yields a nil root.
func (h *Host) RootOf(typeNode *ast.Node) *typedesc.Root {
	if typeNode == nil {
		return nil
	}
	return &typedesc.Root{
		Text:       nodeText(typeNode),
		Properties: h.PropertiesOf(typeNode),
	}
}

// nodeText returns the source text of node without leading trivia.
func nodeText(node *ast.Node) string {
	sf := ast.GetSourceFileOfNode(node)
	if sf == nil {
		return ""
	}
	text := sf.Text()
	if node.Pos() < 0 || node.End() > len(text) || node.Pos() > node.End() {
		return ""
	}
	return strings.TrimSpace(text[node.Pos():node.End()])
}
