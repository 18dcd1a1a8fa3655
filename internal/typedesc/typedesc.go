// Package typedesc defines the vocabulary tskeys uses to describe declared
// property types independently of the TypeScript compiler. Values in this
// package are plain data: the host adapter snapshots checker state into them
// once, and everything downstream reads them without touching the checker.
package typedesc

// Kind identifies which variant of TypeExpression is populated.
type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindPrimitive    Kind = "primitive"
	KindArray        Kind = "array"        // T[] or Array<T>
	KindUnion        Kind = "union"        // A | B
	KindIntersection Kind = "intersection" // A & B, never expanded
	KindObject       Kind = "object"       // inline { ... } or an interface body
	KindReference    Kind = "reference"    // a name that needs scope lookup
)

// Primitive is the keyword behind a KindPrimitive expression.
type Primitive string

const (
	PrimitiveString   Primitive = "string"
	PrimitiveNumber   Primitive = "number"
	PrimitiveBoolean  Primitive = "boolean"
	PrimitiveFunction Primitive = "function"
	PrimitiveObject   Primitive = "object"
	PrimitiveAny      Primitive = "any"
	PrimitiveNull     Primitive = "null"
	PrimitiveKeyOf    Primitive = "keyof"
)

// ScopeID names a lexical scope. Unit is the source file path. Pos is the
// end offset of the block or module body that owns the scope, and 0 for the
// unit's top level.
type ScopeID struct {
	Unit string `json:"unit"`
	Pos  int    `json:"pos,omitempty"`
}

// TopLevel returns the scope of the unit that contains s.
func (s ScopeID) TopLevel() ScopeID {
	return ScopeID{Unit: s.Unit}
}

// IsTopLevel reports whether s is a unit's top-level scope.
func (s ScopeID) IsTopLevel() bool {
	return s.Pos == 0
}

// Ref is a type name as written at a use site together with the scope the
// name was written in.
type Ref struct {
	Name  string  `json:"name"`
	Scope ScopeID `json:"scope"`
}

// TypeExpression describes one declared type.
type TypeExpression struct {
	Kind Kind `json:"kind"`

	// Primitive is set when Kind == KindPrimitive.
	Primitive Primitive `json:"primitive,omitempty"`

	// Element is set when Kind == KindArray.
	Element *TypeExpression `json:"element,omitempty"`

	// Members holds the alternatives of a union or the parts of an intersection.
	Members []TypeExpression `json:"members,omitempty"`

	// Properties holds the members of an object shape, in declaration order.
	Properties []PropertySymbol `json:"properties,omitempty"`

	// Bases holds the references an interface extends. Only set on object shapes.
	Bases []TypeExpression `json:"bases,omitempty"`

	// Ref is set when Kind == KindReference.
	Ref *Ref `json:"ref,omitempty"`
}

// IsExpandable reports whether the expression can lead to child paths:
// an inline object shape, or a reference that may resolve to one.
func (t TypeExpression) IsExpandable() bool {
	return t.Kind == KindObject || t.Kind == KindReference
}

// PropertyDeclaration is one site where a property is declared.
type PropertyDeclaration struct {
	Name     string         `json:"name"`
	Optional bool           `json:"optional"`
	Type     TypeExpression `json:"type"`
}

// PropertySymbol is a property as the type system sees it. A property has
// more than one declaration when its owner merges several declared shapes.
// Declarations keep the order in which the host reported them.
type PropertySymbol struct {
	Name         string                `json:"name"`
	Declarations []PropertyDeclaration `json:"declarations"`
}

// PropertyRecord is one flattened path. The JSON field names are the ones
// spliced into emitted code.
type PropertyRecord struct {
	Path     string `json:"name"`
	Optional bool   `json:"optional"`
	Type     string `json:"type"`
}

// Root is the input of one flattening: the properties the host enumerated
// for a call's type argument. Text is the type argument as written.
type Root struct {
	Text       string           `json:"text"`
	Properties []PropertySymbol `json:"properties"`
}
