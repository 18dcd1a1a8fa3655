package host

import (
	"github.com/microsoft/typescript-go/shim/ast"

	"github.com/tsgonest/tskeys/internal/typedesc"
)

// DeclaredTypeOf snapshots one property declaration: its name, whether it
// carries a question token and its written type, resolved against the
// scope the declaration sits in.
func DeclaredTypeOf(decl *ast.Node) typedesc.PropertyDeclaration {
	return declared(decl, ScopeOf(decl))
}

func declared(decl *ast.Node, in typedesc.ScopeID) typedesc.PropertyDeclaration {
	out := typedesc.PropertyDeclaration{Name: declarationName(decl), Type: typedesc.Unknown()}
	switch decl.Kind {
	case ast.KindPropertySignature:
		p := decl.AsPropertySignatureDeclaration()
		out.Optional = isQuestion(p.PostfixToken)
		out.Type = TypeOf(p.Type, in)
	case ast.KindPropertyDeclaration:
		p := decl.AsPropertyDeclaration()
		out.Optional = isQuestion(p.PostfixToken)
		out.Type = TypeOf(p.Type, in)
	case ast.KindMethodSignature:
		m := decl.AsMethodSignatureDeclaration()
		out.Optional = isQuestion(m.PostfixToken)
		out.Type = typedesc.Prim(typedesc.PrimitiveFunction)
	case ast.KindMethodDeclaration:
		m := decl.AsMethodDeclaration()
		out.Optional = isQuestion(m.PostfixToken)
		out.Type = typedesc.Prim(typedesc.PrimitiveFunction)
	}
	return out
}

func isQuestion(token *ast.Node) bool {
	return token != nil && token.Kind == ast.KindQuestionToken
}

// TypeOf maps written type syntax onto a TypeExpression. Names are kept
// as references resolved later against scope in. A missing annotation is
// Unknown, which renders as any.
func TypeOf(node *ast.Node, in typedesc.ScopeID) typedesc.TypeExpression {
	if node == nil {
		return typedesc.Unknown()
	}
	switch node.Kind {
	case ast.KindStringKeyword:
		return typedesc.Prim(typedesc.PrimitiveString)
	case ast.KindNumberKeyword:
		return typedesc.Prim(typedesc.PrimitiveNumber)
	case ast.KindBooleanKeyword:
		return typedesc.Prim(typedesc.PrimitiveBoolean)
	case ast.KindObjectKeyword:
		return typedesc.Prim(typedesc.PrimitiveObject)
	case ast.KindAnyKeyword:
		return typedesc.Prim(typedesc.PrimitiveAny)
	case ast.KindNullKeyword:
		return typedesc.Prim(typedesc.PrimitiveNull)
	case ast.KindLiteralType:
		if lit := node.AsLiteralTypeNode().Literal; lit != nil && lit.Kind == ast.KindNullKeyword {
			return typedesc.Prim(typedesc.PrimitiveNull)
		}
		return typedesc.Unknown()
	case ast.KindFunctionType, ast.KindConstructorType:
		return typedesc.Prim(typedesc.PrimitiveFunction)
	case ast.KindTypeOperator:
		op := node.AsTypeOperatorNode()
		switch op.Operator {
		case ast.KindKeyOfKeyword:
			return typedesc.Prim(typedesc.PrimitiveKeyOf)
		case ast.KindReadonlyKeyword:
			return TypeOf(op.Type, in)
		}
		return typedesc.Unknown()
	case ast.KindArrayType:
		return typedesc.ArrayOf(TypeOf(node.AsArrayTypeNode().ElementType, in))
	case ast.KindUnionType:
		return typedesc.UnionOf(typesOf(node.AsUnionTypeNode().Types, in)...)
	case ast.KindIntersectionType:
		return typedesc.IntersectionOf(typesOf(node.AsIntersectionTypeNode().Types, in)...)
	case ast.KindParenthesizedType:
		return TypeOf(node.AsParenthesizedTypeNode().Type, in)
	case ast.KindTypeLiteral:
		return typedesc.Object(membersOf(node.AsTypeLiteralNode().Members, in)...)
	case ast.KindTypeReference:
		return referenceOf(node, in)
	}
	return typedesc.Unknown()
}

func referenceOf(node *ast.Node, in typedesc.ScopeID) typedesc.TypeExpression {
	ref := node.AsTypeReferenceNode()
	name := EntityName(ref.TypeName)
	if name == "" {
		return typedesc.Unknown()
	}
	if name == "Array" || name == "ReadonlyArray" {
		if ref.TypeArguments != nil && len(ref.TypeArguments.Nodes) == 1 {
			return typedesc.ArrayOf(TypeOf(ref.TypeArguments.Nodes[0], in))
		}
	}
	return typedesc.Reference(name, in)
}

func typesOf(list *ast.NodeList, in typedesc.ScopeID) []typedesc.TypeExpression {
	if list == nil {
		return nil
	}
	out := make([]typedesc.TypeExpression, 0, len(list.Nodes))
	for _, n := range list.Nodes {
		out = append(out, TypeOf(n, in))
	}
	return out
}

// membersOf snapshots the property-like members of an interface body, type
// literal or class body. Index, call and construct signatures, static
// members and accessors contribute no paths.
func membersOf(list *ast.NodeList, in typedesc.ScopeID) []typedesc.PropertySymbol {
	if list == nil {
		return nil
	}
	var props []typedesc.PropertySymbol
	for _, m := range list.Nodes {
		switch m.Kind {
		case ast.KindPropertySignature, ast.KindPropertyDeclaration,
			ast.KindMethodSignature, ast.KindMethodDeclaration:
		default:
			continue
		}
		if isStatic(m) {
			continue
		}
		decl := declared(m, in)
		if decl.Name == "" {
			continue
		}
		props = append(props, typedesc.PropertySymbol{
			Name:         decl.Name,
			Declarations: []typedesc.PropertyDeclaration{decl},
		})
	}
	// Overloaded methods declare the same name more than once.
	return typedesc.Merge(props...)
}

func isStatic(node *ast.Node) bool {
	mods := node.Modifiers()
	if mods == nil {
		return false
	}
	for _, m := range mods.Nodes {
		if m.Kind == ast.KindStaticKeyword {
			return true
		}
	}
	return false
}

// declarationName returns the written name of a declaration, or "" for
// computed and missing names.
func declarationName(decl *ast.Node) string {
	name := decl.Name()
	if name == nil {
		return ""
	}
	switch name.Kind {
	case ast.KindIdentifier, ast.KindStringLiteral, ast.KindNumericLiteral,
		ast.KindNoSubstitutionTemplateLiteral:
		return name.Text()
	}
	return ""
}

// EntityName renders an identifier, qualified name or property access
// chain as dotted text. Anything else yields "".
func EntityName(node *ast.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind {
	case ast.KindIdentifier:
		return node.Text()
	case ast.KindQualifiedName:
		q := node.AsQualifiedName()
		left := EntityName(q.Left)
		if left == "" || q.Right == nil {
			return ""
		}
		return left + "." + q.Right.Text()
	case ast.KindPropertyAccessExpression:
		pa := node.AsPropertyAccessExpression()
		left := EntityName(pa.Expression)
		if left == "" || pa.Name() == nil {
			return ""
		}
		return left + "." + pa.Name().Text()
	}
	return ""
}
