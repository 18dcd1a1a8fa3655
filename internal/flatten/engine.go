// Package flatten expands a type's properties into dotted property paths.
package flatten

import (
	"github.com/tsgonest/tskeys/internal/render"
	"github.com/tsgonest/tskeys/internal/scope"
	"github.com/tsgonest/tskeys/internal/typedesc"
)

// DefaultMaxDepth is the nesting depth past which properties are emitted
// as leaves.
const DefaultMaxDepth = 20

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth overrides DefaultMaxDepth. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// Engine expands property symbols against a read-only scope map.
//
// An Engine carries per-expansion state and is not safe for concurrent
// use. Run one Engine per goroutine; they may share the same Map.
type Engine struct {
	scopes   *scope.Map
	maxDepth int

	// expanding holds the named entries on the path from the root to the
	// property being expanded.
	expanding map[*scope.Entry]bool
	depth     int
	notes     []Note
}

// New returns an Engine resolving names through m. A nil map is valid:
// every named reference is then a leaf.
func New(m *scope.Map, opts ...Option) *Engine {
	e := &Engine{
		scopes:    m,
		maxDepth:  DefaultMaxDepth,
		expanding: make(map[*scope.Entry]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FlattenType expands every property of root, in order. A nil root, which
// is what a call without a type argument produces, yields an empty list.
func (e *Engine) FlattenType(root *typedesc.Root) []typedesc.PropertyRecord {
	out := make([]typedesc.PropertyRecord, 0)
	if root == nil {
		return out
	}
	for _, p := range root.Properties {
		out = append(out, e.Expand(p, "")...)
	}
	return out
}

// Expand returns the record for sym under prefix followed, depth first, by
// the records of its nested members.
func (e *Engine) Expand(sym typedesc.PropertySymbol, prefix string) []typedesc.PropertyRecord {
	path := join(prefix, sym.Name)
	out := []typedesc.PropertyRecord{{
		Path:     path,
		Optional: optional(sym.Declarations),
		Type:     typeString(sym.Declarations),
	}}

	decl, ok := expandable(sym.Declarations)
	if !ok {
		return out
	}
	if e.depth >= e.maxDepth {
		e.note(Note{Kind: NoteDepth, Path: path})
		return out
	}

	members, entries := e.members(decl, path)
	if len(members) == 0 {
		return out
	}
	for _, entry := range entries {
		e.expanding[entry] = true
	}
	e.depth++
	for _, m := range members {
		out = append(out, e.Expand(m, path)...)
	}
	e.depth--
	for _, entry := range entries {
		delete(e.expanding, entry)
	}
	return out
}

// members lists the properties t expands to, along with the named entries
// that had to be resolved to find them.
func (e *Engine) members(t typedesc.TypeExpression, path string) ([]typedesc.PropertySymbol, []*scope.Entry) {
	switch t.Kind {
	case typedesc.KindObject:
		return e.objectMembers(t, path)
	case typedesc.KindReference:
		return e.referenceMembers(t.Ref, path)
	default:
		return nil, nil
	}
}

func (e *Engine) objectMembers(t typedesc.TypeExpression, path string) ([]typedesc.PropertySymbol, []*scope.Entry) {
	if len(t.Bases) == 0 {
		return t.Properties, nil
	}
	own := make(map[string]bool, len(t.Properties))
	for _, p := range t.Properties {
		own[p.Name] = true
	}
	props := append([]typedesc.PropertySymbol(nil), t.Properties...)
	for _, base := range t.Bases {
		// Bases are held only while their members are collected. A member
		// typed with a base expands like any other reference.
		inherited, _ := e.members(base, path)
		for _, p := range inherited {
			if !own[p.Name] {
				props = append(props, p)
			}
		}
	}
	return typedesc.Merge(props...), nil
}

func (e *Engine) referenceMembers(ref *typedesc.Ref, path string) ([]typedesc.PropertySymbol, []*scope.Entry) {
	if ref == nil {
		return nil, nil
	}
	entry, ok := e.scopes.Resolve(ref.Name, ref.Scope)
	if !ok {
		e.note(Note{Kind: NoteUnresolved, Path: path, Name: ref.Name, Scope: ref.Scope})
		return nil, nil
	}
	if e.expanding[entry] {
		e.note(Note{Kind: NoteCycle, Path: path, Name: ref.Name, Scope: entry.Scope})
		return nil, nil
	}

	// Held while collecting so that bases or aliases looping back here stop.
	e.expanding[entry] = true
	defer delete(e.expanding, entry)

	var props []typedesc.PropertySymbol
	entries := []*scope.Entry{entry}
	for _, decl := range entry.Decls {
		if !decl.IsExpandable() {
			continue
		}
		m, via := e.members(decl, path)
		props = append(props, m...)
		entries = append(entries, via...)
	}
	return typedesc.Merge(props...), entries
}

func (e *Engine) note(n Note) {
	e.notes = append(e.notes, n)
}

// Notes returns the terminal states met since the Engine was created.
func (e *Engine) Notes() []Note {
	return e.notes
}

// optional is the AND of the declarations' markers. A symbol without
// declarations is required.
func optional(decls []typedesc.PropertyDeclaration) bool {
	if len(decls) == 0 {
		return false
	}
	for _, d := range decls {
		if !d.Optional {
			return false
		}
	}
	return true
}

func typeString(decls []typedesc.PropertyDeclaration) string {
	if len(decls) == 0 {
		return render.Type(typedesc.Unknown())
	}
	var parts []string
	for _, d := range decls {
		parts = append(parts, render.Alternatives(d.Type)...)
	}
	return render.Join(parts)
}

// expandable returns the first declared type that can have members.
func expandable(decls []typedesc.PropertyDeclaration) (typedesc.TypeExpression, bool) {
	for _, d := range decls {
		if d.Type.IsExpandable() {
			return d.Type, true
		}
	}
	return typedesc.TypeExpression{}, false
}

func join(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
