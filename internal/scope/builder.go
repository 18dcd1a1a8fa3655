package scope

import "github.com/tsgonest/tskeys/internal/typedesc"

// Option configures a Builder.
type Option func(*Builder)

// WithCaseFolding keys units by their case-folded path, for hosts whose
// file system does not distinguish case.
func WithCaseFolding() Option {
	return func(b *Builder) { b.fold = true }
}

// Builder collects declarations before freezing them into a Map. It is not
// safe for concurrent use.
type Builder struct {
	fold   bool
	tables map[typedesc.ScopeID]*table
}

// NewBuilder returns an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{tables: make(map[typedesc.ScopeID]*table)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddUnit registers the top-level table of unit. Declaring into a unit
// registers it implicitly; AddUnit exists for units that declare nothing.
func (b *Builder) AddUnit(unit string) {
	b.table(typedesc.ScopeID{Unit: unit})
}

// AddScope registers a nested scope whose enclosing scope is parent. The
// parent chain must end at the unit's top level; a top-level id is ignored.
func (b *Builder) AddScope(id, parent typedesc.ScopeID) {
	if id.IsTopLevel() {
		b.table(id)
		return
	}
	t := b.table(id)
	t.parent = b.table(parent)
}

// Declare records one declaration of name in scope in. Repeated
// declarations of the same name append to the entry in order.
func (b *Builder) Declare(in typedesc.ScopeID, name string, t typedesc.TypeExpression) {
	e := b.entry(in, name)
	e.Decls = append(e.Decls, t)
}

// DeclareAlias records name in scope in as an import of target.
func (b *Builder) DeclareAlias(in typedesc.ScopeID, name string, target Alias) {
	if b.fold {
		target.Unit = foldUnit(target.Unit)
	}
	e := b.entry(in, name)
	e.Alias = &target
}

// Build freezes the collected tables. The Builder must not be used after.
func (b *Builder) Build() *Map {
	m := &Map{tables: b.tables, fold: b.fold}
	b.tables = nil
	return m
}

func (b *Builder) entry(in typedesc.ScopeID, name string) *Entry {
	t := b.table(in)
	e, ok := t.names[name]
	if !ok {
		e = &Entry{Name: name, Scope: t.id}
		t.names[name] = e
	}
	return e
}

func (b *Builder) table(id typedesc.ScopeID) *table {
	if b.fold {
		id.Unit = foldUnit(id.Unit)
	}
	t, ok := b.tables[id]
	if !ok {
		t = newTable(id)
		b.tables[id] = t
	}
	return t
}
