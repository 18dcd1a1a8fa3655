package typedesc

// Prim returns a primitive expression.
func Prim(p Primitive) TypeExpression {
	return TypeExpression{Kind: KindPrimitive, Primitive: p}
}

// ArrayOf returns an array of elem.
func ArrayOf(elem TypeExpression) TypeExpression {
	return TypeExpression{Kind: KindArray, Element: &elem}
}

// UnionOf returns a union of the given alternatives.
func UnionOf(members ...TypeExpression) TypeExpression {
	return TypeExpression{Kind: KindUnion, Members: members}
}

// IntersectionOf returns an intersection of the given parts.
func IntersectionOf(members ...TypeExpression) TypeExpression {
	return TypeExpression{Kind: KindIntersection, Members: members}
}

// Object returns an object shape with the given members.
func Object(props ...PropertySymbol) TypeExpression {
	return TypeExpression{Kind: KindObject, Properties: props}
}

// Reference returns a reference to name as written in scope.
func Reference(name string, scope ScopeID) TypeExpression {
	return TypeExpression{Kind: KindReference, Ref: &Ref{Name: name, Scope: scope}}
}

// Unknown returns the expression used for syntax tskeys does not model.
func Unknown() TypeExpression {
	return TypeExpression{Kind: KindUnknown}
}

// Prop returns a property with a single declaration.
func Prop(name string, optional bool, t TypeExpression) PropertySymbol {
	return PropertySymbol{
		Name:         name,
		Declarations: []PropertyDeclaration{{Name: name, Optional: optional, Type: t}},
	}
}

// Merge combines symbols that share a name into one symbol per name,
// keeping first-seen name order and concatenating declarations in order.
func Merge(symbols ...PropertySymbol) []PropertySymbol {
	index := make(map[string]int, len(symbols))
	var out []PropertySymbol
	for _, s := range symbols {
		if i, ok := index[s.Name]; ok {
			out[i].Declarations = append(out[i].Declarations, s.Declarations...)
			continue
		}
		index[s.Name] = len(out)
		decls := make([]PropertyDeclaration, len(s.Declarations))
		copy(decls, s.Declarations)
		out = append(out, PropertySymbol{Name: s.Name, Declarations: decls})
	}
	return out
}
