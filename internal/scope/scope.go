// Package scope maps type names to their declarations, per compilation unit
// and per nested lexical scope.
//
// A Map is built once per compilation with a Builder and is read-only
// afterwards, so any number of expansions may resolve names concurrently.
package scope

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/tsgonest/tskeys/internal/typedesc"
)

// maxAliasHops bounds how many import aliases Resolve follows for one name.
const maxAliasHops = 8

// Alias points a locally imported name at the name it was exported under in
// another unit. An empty Name stands for the unit itself (import * as NS).
type Alias struct {
	Unit string `json:"unit"`
	Name string `json:"name"`
}

// Entry is everything one table knows about one name. Decls holds one
// expression per declaration site in source order; interfaces declared more
// than once in the same table merge into a single entry.
type Entry struct {
	Name  string                    `json:"name"`
	Scope typedesc.ScopeID          `json:"scope"`
	Decls []typedesc.TypeExpression `json:"decls,omitempty"`
	Alias *Alias                    `json:"alias,omitempty"`
}

type table struct {
	id     typedesc.ScopeID
	parent *table
	names  map[string]*Entry
}

func newTable(id typedesc.ScopeID) *table {
	return &table{id: id, names: make(map[string]*Entry)}
}

// Map is the read-only lookup structure produced by Builder.Build.
type Map struct {
	tables map[typedesc.ScopeID]*table
	fold   bool
}

// Resolve looks name up as written in scope from. It walks from's local
// tables outward and then falls back to the unit's top-level table. Import
// aliases are followed into the unit they point at. A miss is not an error:
// the caller treats the reference as opaque.
func (m *Map) Resolve(name string, from typedesc.ScopeID) (*Entry, bool) {
	if m == nil {
		return nil, false
	}
	return m.resolve(name, m.key(from), 0)
}

func (m *Map) resolve(name string, from typedesc.ScopeID, hops int) (*Entry, bool) {
	for ; hops <= maxAliasHops; hops++ {
		e, ok := m.find(name, from)
		if !ok {
			return m.resolveQualified(name, from, hops)
		}
		if len(e.Decls) > 0 || e.Alias == nil {
			return e, true
		}
		name = e.Alias.Name
		from = m.key(typedesc.ScopeID{Unit: e.Alias.Unit})
	}
	return nil, false
}

// resolveQualified handles NS.Name where NS is an imported alias: either of
// a namespace declared in another unit, or, when the alias has no name, of
// that whole unit.
func (m *Map) resolveQualified(name string, from typedesc.ScopeID, hops int) (*Entry, bool) {
	head, rest, ok := strings.Cut(name, ".")
	if !ok || hops >= maxAliasHops {
		return nil, false
	}
	e, ok := m.find(head, from)
	if !ok || e.Alias == nil {
		return nil, false
	}
	target := rest
	if e.Alias.Name != "" {
		target = e.Alias.Name + "." + rest
	}
	return m.resolve(target, m.key(typedesc.ScopeID{Unit: e.Alias.Unit}), hops+1)
}

func (m *Map) find(name string, from typedesc.ScopeID) (*Entry, bool) {
	t := m.tables[from]
	if t == nil {
		t = m.tables[from.TopLevel()]
	}
	for ; t != nil; t = t.parent {
		if e, ok := t.names[name]; ok {
			return e, true
		}
	}
	// Scopes registered without a parent chain still see their unit.
	if top := m.tables[from.TopLevel()]; top != nil {
		if e, ok := top.names[name]; ok {
			return e, true
		}
	}
	return nil, false
}

// Lookup returns the entry declared directly in scope id, without walking
// outward or following aliases.
func (m *Map) Lookup(id typedesc.ScopeID, name string) (*Entry, bool) {
	t := m.tables[m.key(id)]
	if t == nil {
		return nil, false
	}
	e, ok := t.names[name]
	return e, ok
}

// Units returns the (possibly folded) unit keys of the map, sorted.
func (m *Map) Units() []string {
	seen := make(map[string]bool)
	var units []string
	for id := range m.tables {
		if !seen[id.Unit] {
			seen[id.Unit] = true
			units = append(units, id.Unit)
		}
	}
	sort.Strings(units)
	return units
}

// Len returns the number of entries across all tables.
func (m *Map) Len() int {
	n := 0
	for _, t := range m.tables {
		n += len(t.names)
	}
	return n
}

func (m *Map) key(id typedesc.ScopeID) typedesc.ScopeID {
	if m.fold {
		id.Unit = foldUnit(id.Unit)
	}
	return id
}

// foldUnit builds a fresh Caser per call; Casers carry state and Resolve runs
// from several goroutines.
func foldUnit(unit string) string {
	return cases.Fold().String(unit)
}
