package host

import (
	"github.com/microsoft/typescript-go/shim/ast"

	"github.com/tsgonest/tskeys/internal/scope"
	"github.com/tsgonest/tskeys/internal/typedesc"
)

// isContainer reports whether node owns a table of local type names.
func isContainer(node *ast.Node) bool {
	switch node.Kind {
	case ast.KindBlock, ast.KindCaseBlock, ast.KindModuleBlock:
		return true
	}
	return false
}

func scopeID(unit string, container *ast.Node) typedesc.ScopeID {
	return typedesc.ScopeID{Unit: unit, Pos: container.End()}
}

func unitOf(node *ast.Node) string {
	if sf := ast.GetSourceFileOfNode(node); sf != nil {
		return sf.FileName()
	}
	return ""
}

// ScopeOf returns the scope a name written at node is looked up from: the
// nearest enclosing block or module body, else the unit's top level.
func ScopeOf(node *ast.Node) typedesc.ScopeID {
	unit := unitOf(node)
	for p := node.Parent; p != nil; p = p.Parent {
		if isContainer(p) {
			return scopeID(unit, p)
		}
	}
	return typedesc.ScopeID{Unit: unit}
}

// BuildScopeMap collects the type names declared in files: interfaces,
// type aliases, classes, enums and namespace members at every nesting
// level, plus imported names resolved through the checker.
func (h *Host) BuildScopeMap(files []*ast.SourceFile, opts ...scope.Option) *scope.Map {
	b := scope.NewBuilder(opts...)
	for _, sf := range files {
		c := &collector{
			host:     h,
			b:        b,
			unit:     sf.FileName(),
			declared: make(map[typedesc.ScopeID][]named),
		}
		top := typedesc.ScopeID{Unit: c.unit}
		b.AddUnit(c.unit)
		for _, stmt := range sf.Statements.Nodes {
			c.visit(stmt, top)
		}
	}
	return b.Build()
}

type named struct {
	name string
	t    typedesc.TypeExpression
}

type collector struct {
	host *Host
	b    *scope.Builder
	unit string
	// declared lists what each scope declared, for qualifying namespace
	// members into the enclosing scope.
	declared map[typedesc.ScopeID][]named
}

func (c *collector) declare(in typedesc.ScopeID, name string, t typedesc.TypeExpression) {
	if name == "" {
		return
	}
	c.b.Declare(in, name, t)
	c.declared[in] = append(c.declared[in], named{name: name, t: t})
}

func (c *collector) visit(node *ast.Node, in typedesc.ScopeID) {
	if node == nil {
		return
	}
	switch node.Kind {
	case ast.KindInterfaceDeclaration:
		iface := node.AsInterfaceDeclaration()
		t := typedesc.Object(membersOf(iface.Members, in)...)
		t.Bases = basesOf(iface.HeritageClauses, in)
		c.declare(in, declarationName(node), t)
		return
	case ast.KindTypeAliasDeclaration:
		c.declare(in, declarationName(node), TypeOf(node.AsTypeAliasDeclaration().Type, in))
		return
	case ast.KindEnumDeclaration:
		// Resolvable, but never expanded.
		c.declare(in, declarationName(node), typedesc.Unknown())
		return
	case ast.KindClassDeclaration:
		cls := node.AsClassDeclaration()
		t := typedesc.Object(membersOf(cls.Members, in)...)
		t.Bases = basesOf(cls.HeritageClauses, in)
		c.declare(in, declarationName(node), t)
		// Method bodies may declare local types.
	case ast.KindModuleDeclaration:
		c.namespace(node, in)
		return
	case ast.KindImportDeclaration:
		c.imports(node, in)
		return
	case ast.KindBlock, ast.KindCaseBlock:
		id := scopeID(c.unit, node)
		c.b.AddScope(id, in)
		in = id
	}
	node.ForEachChild(func(child *ast.Node) bool {
		c.visit(child, in)
		return false
	})
}

// namespace registers the members of namespace NS { ... } in its body's
// scope and as NS.Member in the enclosing one.
func (c *collector) namespace(node *ast.Node, in typedesc.ScopeID) {
	name := declarationName(node)
	for _, n := range c.namespaceBody(node, in) {
		c.declare(in, name+"."+n.name, n.t)
	}
}

func (c *collector) namespaceBody(node *ast.Node, in typedesc.ScopeID) []named {
	body := node.AsModuleDeclaration().Body
	if body == nil {
		return nil
	}
	switch body.Kind {
	case ast.KindModuleDeclaration:
		// namespace A.B { ... }
		inner := declarationName(body)
		var out []named
		for _, n := range c.namespaceBody(body, in) {
			out = append(out, named{name: inner + "." + n.name, t: n.t})
		}
		return out
	case ast.KindModuleBlock:
		id := scopeID(c.unit, body)
		c.b.AddScope(id, in)
		for _, stmt := range body.AsModuleBlock().Statements.Nodes {
			c.visit(stmt, id)
		}
		return c.declared[id]
	}
	return nil
}

func (c *collector) imports(node *ast.Node, in typedesc.ScopeID) {
	decl := node.AsImportDeclaration()
	if decl.ImportClause == nil {
		return
	}
	clause := decl.ImportClause.AsImportClause()
	if name := clause.Name(); name != nil {
		c.alias(in, name)
	}
	if clause.NamedBindings == nil {
		return
	}
	switch clause.NamedBindings.Kind {
	case ast.KindNamedImports:
		specs := clause.NamedBindings.AsNamedImports()
		if specs.Elements == nil {
			return
		}
		for _, elem := range specs.Elements.Nodes {
			c.alias(in, elem.AsImportSpecifier().Name())
		}
	case ast.KindNamespaceImport:
		c.alias(in, clause.NamedBindings.Name())
	}
}

// alias records an imported name as pointing at the unit and name the
// checker resolves it to. Imports of a whole module point at the unit.
func (c *collector) alias(in typedesc.ScopeID, nameNode *ast.Node) {
	if nameNode == nil || nameNode.Kind != ast.KindIdentifier {
		return
	}
	sym := c.host.checker.GetSymbolAtLocation(nameNode)
	if sym == nil || sym.Flags&ast.SymbolFlagsAlias == 0 {
		return
	}
	target := c.host.checker.GetAliasedSymbol(sym)
	if target == nil || len(target.Declarations) == 0 {
		return
	}
	decl := target.Declarations[0]
	sf := ast.GetSourceFileOfNode(decl)
	if sf == nil {
		return
	}
	a := scope.Alias{Unit: sf.FileName(), Name: target.Name}
	if decl.Kind == ast.KindSourceFile {
		a.Name = ""
	}
	c.b.DeclareAlias(in, nameNode.Text(), a)
}

// basesOf returns the extends clause of an interface or class as references.
func basesOf(clauses *ast.NodeList, in typedesc.ScopeID) []typedesc.TypeExpression {
	if clauses == nil {
		return nil
	}
	var bases []typedesc.TypeExpression
	for _, hc := range clauses.Nodes {
		clause := hc.AsHeritageClause()
		if clause.Token != ast.KindExtendsKeyword || clause.Types == nil {
			continue
		}
		for _, t := range clause.Types.Nodes {
			name := EntityName(t.AsExpressionWithTypeArguments().Expression)
			if name != "" {
				bases = append(bases, typedesc.Reference(name, in))
			}
		}
	}
	return bases
}
