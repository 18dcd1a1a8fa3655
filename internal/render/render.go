// Package render turns declared types into the display strings tskeys
// attaches to each flattened path.
package render

import (
	"strings"

	"github.com/tsgonest/tskeys/internal/typedesc"
)

// Separator joins union alternatives.
const Separator = " | "

// fallback is rendered for anything without a dedicated rule. Object shapes
// and references land here too: expanding them is the engine's job.
const fallback = "any"

// Type renders a single declared type.
func Type(t typedesc.TypeExpression) string {
	return strings.Join(Alternatives(t), Separator)
}

// Alternatives renders t as its list of distinct alternatives. Only unions
// have more than one; nested unions are flattened and repeated alternatives
// are dropped, keeping the first occurrence.
func Alternatives(t typedesc.TypeExpression) []string {
	if t.Kind != typedesc.KindUnion {
		return []string{single(t)}
	}
	var parts []string
	for _, m := range t.Members {
		parts = append(parts, Alternatives(m)...)
	}
	return Dedup(parts)
}

func single(t typedesc.TypeExpression) string {
	switch t.Kind {
	case typedesc.KindPrimitive:
		return primitive(t.Primitive)
	case typedesc.KindArray:
		if t.Element == nil {
			return fallback + "[]"
		}
		elem := Alternatives(*t.Element)
		if len(elem) > 1 {
			return "(" + strings.Join(elem, Separator) + ")[]"
		}
		return elem[0] + "[]"
	case typedesc.KindUnion:
		return Type(t)
	default:
		return fallback
	}
}

func primitive(p typedesc.Primitive) string {
	switch p {
	case typedesc.PrimitiveString:
		return "string"
	case typedesc.PrimitiveNumber:
		return "number"
	case typedesc.PrimitiveBoolean:
		return "boolean"
	case typedesc.PrimitiveObject:
		return "object"
	case typedesc.PrimitiveNull:
		return "null"
	case typedesc.PrimitiveKeyOf:
		return "keyOf"
	default:
		// function, any and anything unrecognised
		return fallback
	}
}

// Join unions already-rendered alternatives.
func Join(parts []string) string {
	return strings.Join(Dedup(parts), Separator)
}

// Dedup removes exact duplicates, keeping first-seen order.
func Dedup(parts []string) []string {
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
