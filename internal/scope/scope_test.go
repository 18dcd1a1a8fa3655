package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	td "github.com/tsgonest/tskeys/internal/typedesc"
)

func unit(name string) td.ScopeID { return td.ScopeID{Unit: name} }

func TestResolve_TopLevel(t *testing.T) {
	b := NewBuilder()
	b.Declare(unit("/p/a.ts"), "Foo", td.Object(td.Prop("a", false, td.Prim(td.PrimitiveString))))
	m := b.Build()

	e, ok := m.Resolve("Foo", unit("/p/a.ts"))
	require.True(t, ok)
	assert.Equal(t, "Foo", e.Name)
	require.Len(t, e.Decls, 1)
	assert.Equal(t, td.KindObject, e.Decls[0].Kind)
}

func TestResolve_NotFoundIsMiss(t *testing.T) {
	b := NewBuilder()
	b.AddUnit("/p/a.ts")
	m := b.Build()

	_, ok := m.Resolve("Missing", unit("/p/a.ts"))
	assert.False(t, ok)

	_, ok = m.Resolve("Foo", unit("/p/unknown.ts"))
	assert.False(t, ok)

	var nilMap *Map
	_, ok = nilMap.Resolve("Foo", unit("/p/a.ts"))
	assert.False(t, ok)
}

func TestResolve_LocalShadowsTopLevel(t *testing.T) {
	top := unit("/p/a.ts")
	outer := td.ScopeID{Unit: "/p/a.ts", Pos: 40}
	inner := td.ScopeID{Unit: "/p/a.ts", Pos: 90}

	b := NewBuilder()
	b.AddScope(outer, top)
	b.AddScope(inner, outer)
	b.Declare(top, "Foo", td.Prim(td.PrimitiveString))
	b.Declare(outer, "Foo", td.Prim(td.PrimitiveNumber))
	b.Declare(top, "Bar", td.Prim(td.PrimitiveBoolean))
	m := b.Build()

	e, ok := m.Resolve("Foo", inner)
	require.True(t, ok)
	assert.Equal(t, outer, e.Scope, "nearest enclosing local table wins")

	e, ok = m.Resolve("Bar", inner)
	require.True(t, ok)
	assert.Equal(t, top, e.Scope, "falls back to the unit's top level")

	e, ok = m.Resolve("Foo", top)
	require.True(t, ok)
	assert.Equal(t, td.PrimitiveString, e.Decls[0].Primitive, "locals are invisible from the top level")
}

func TestResolve_UnregisteredLocalScopeFallsBackToUnit(t *testing.T) {
	b := NewBuilder()
	b.Declare(unit("/p/a.ts"), "Foo", td.Object())
	m := b.Build()

	_, ok := m.Resolve("Foo", td.ScopeID{Unit: "/p/a.ts", Pos: 17})
	assert.True(t, ok)
}

func TestResolve_UsesOriginatingUnit(t *testing.T) {
	b := NewBuilder()
	b.Declare(unit("/p/a.ts"), "Foo", td.Prim(td.PrimitiveString))
	b.Declare(unit("/p/b.ts"), "Foo", td.Prim(td.PrimitiveNumber))
	m := b.Build()

	e, ok := m.Resolve("Foo", unit("/p/b.ts"))
	require.True(t, ok)
	assert.Equal(t, td.PrimitiveNumber, e.Decls[0].Primitive)
}

func TestResolve_FollowsImportAlias(t *testing.T) {
	b := NewBuilder()
	b.Declare(unit("/p/interface.ts"), "X", td.Object(td.Prop("a", false, td.Prim(td.PrimitiveString))))
	b.DeclareAlias(unit("/p/mid.ts"), "X", Alias{Unit: "/p/interface.ts", Name: "X"})
	b.DeclareAlias(unit("/p/main.ts"), "Y", Alias{Unit: "/p/mid.ts", Name: "X"})
	m := b.Build()

	e, ok := m.Resolve("Y", unit("/p/main.ts"))
	require.True(t, ok)
	assert.Equal(t, "X", e.Name)
	assert.Equal(t, unit("/p/interface.ts"), e.Scope)
}

func TestResolve_AliasCycleTerminates(t *testing.T) {
	b := NewBuilder()
	b.DeclareAlias(unit("/p/a.ts"), "X", Alias{Unit: "/p/b.ts", Name: "X"})
	b.DeclareAlias(unit("/p/b.ts"), "X", Alias{Unit: "/p/a.ts", Name: "X"})
	m := b.Build()

	_, ok := m.Resolve("X", unit("/p/a.ts"))
	assert.False(t, ok)
}

func TestResolve_QualifiedThroughImportedNamespace(t *testing.T) {
	b := NewBuilder()
	b.Declare(unit("/p/ns.ts"), "NS.Inner", td.Object(td.Prop("z", true, td.Prim(td.PrimitiveNumber))))
	b.DeclareAlias(unit("/p/main.ts"), "Models", Alias{Unit: "/p/ns.ts", Name: "NS"})
	m := b.Build()

	e, ok := m.Resolve("Models.Inner", unit("/p/main.ts"))
	require.True(t, ok)
	assert.Equal(t, "NS.Inner", e.Name)
}

func TestDeclare_MergesRepeatedDeclarations(t *testing.T) {
	b := NewBuilder()
	b.Declare(unit("/p/a.ts"), "Foo", td.Object(td.Prop("a", false, td.Prim(td.PrimitiveString))))
	b.Declare(unit("/p/a.ts"), "Foo", td.Object(td.Prop("b", false, td.Prim(td.PrimitiveNumber))))
	m := b.Build()

	e, ok := m.Lookup(unit("/p/a.ts"), "Foo")
	require.True(t, ok)
	require.Len(t, e.Decls, 2)
	assert.Equal(t, "a", e.Decls[0].Properties[0].Name)
	assert.Equal(t, "b", e.Decls[1].Properties[0].Name)
	assert.Equal(t, 1, m.Len())
}

func TestCaseFolding(t *testing.T) {
	b := NewBuilder(WithCaseFolding())
	b.Declare(unit("/P/Models.ts"), "Foo", td.Object())
	b.DeclareAlias(unit("/p/main.ts"), "Foo", Alias{Unit: "/p/MODELS.ts", Name: "Foo"})
	m := b.Build()

	_, ok := m.Resolve("Foo", unit("/p/models.TS"))
	assert.True(t, ok)

	e, ok := m.Resolve("Foo", unit("/p/Main.ts"))
	require.True(t, ok)
	assert.Equal(t, "/p/models.ts", e.Scope.Unit)
	assert.Equal(t, []string{"/p/main.ts", "/p/models.ts"}, m.Units())
}

func TestResolve_QualifiedThroughUnitImport(t *testing.T) {
	b := NewBuilder()
	b.Declare(unit("/p/models.ts"), "User", td.Object(td.Prop("id", false, td.Prim(td.PrimitiveNumber))))
	b.DeclareAlias(unit("/p/main.ts"), "M", Alias{Unit: "/p/models.ts"})
	m := b.Build()

	e, ok := m.Resolve("M.User", unit("/p/main.ts"))
	require.True(t, ok)
	assert.Equal(t, "User", e.Name)

	_, ok = m.Resolve("M", unit("/p/main.ts"))
	assert.False(t, ok, "a unit alias is not a type by itself")
}
