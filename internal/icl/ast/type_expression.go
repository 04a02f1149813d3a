package ast

import "github.com/ICL-System/ICL-Runtime/internal/icl/token"

// PrimitiveKind enumerates the scalar types a TypeExpression can carry
// (spec.md §3.2). Field-level refinement types (email, url, phone, ...)
// are deliberately out of this set; see SPEC_FULL.md §3.5.
type PrimitiveKind string

const (
	PrimitiveString  PrimitiveKind = "String"
	PrimitiveInteger PrimitiveKind = "Integer"
	PrimitiveFloat   PrimitiveKind = "Float"
	PrimitiveBoolean PrimitiveKind = "Boolean"
	PrimitiveIso8601 PrimitiveKind = "Iso8601"
	PrimitiveUuid    PrimitiveKind = "Uuid"
)

// TypeExpressionKind tags which variant of TypeExpression is populated.
type TypeExpressionKind int

const (
	TypeKindPrimitive TypeExpressionKind = iota
	TypeKindEnum
	TypeKindObject
	TypeKindArray
	TypeKindMap
)

// ObjectField is one named, typed member of a TypeKindObject expression.
type ObjectField struct {
	Name string
	Type *TypeExpression
}

// TypeExpression is the tagged union described in spec.md §3.2: a
// primitive, an enum of string variants, an object of named fields, an
// array of an element type, or a map of key/value types.
type TypeExpression struct {
	Kind TypeExpressionKind

	Primitive PrimitiveKind // valid when Kind == TypeKindPrimitive

	EnumValues []string // valid when Kind == TypeKindEnum; order preserved, sorted at normalization

	ObjectFields []*ObjectField // valid when Kind == TypeKindObject

	ElementType *TypeExpression // valid when Kind == TypeKindArray

	KeyType   *TypeExpression // valid when Kind == TypeKindMap
	ValueType *TypeExpression // valid when Kind == TypeKindMap

	Loc token.Span
}

func (t *TypeExpression) node()          {}
func (t *TypeExpression) Span() token.Span { return t.Loc }

// WellFormed reports whether the type expression satisfies spec.md §3.3:
// no empty Object, no empty Enum, no dangling Array/Map element type.
func (t *TypeExpression) WellFormed() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case TypeKindPrimitive:
		switch t.Primitive {
		case PrimitiveString, PrimitiveInteger, PrimitiveFloat, PrimitiveBoolean, PrimitiveIso8601, PrimitiveUuid:
			return true
		default:
			return false
		}
	case TypeKindEnum:
		return len(t.EnumValues) > 0
	case TypeKindObject:
		if len(t.ObjectFields) == 0 {
			return false
		}
		for _, f := range t.ObjectFields {
			if f.Type == nil || !f.Type.WellFormed() {
				return false
			}
		}
		return true
	case TypeKindArray:
		return t.ElementType != nil && t.ElementType.WellFormed()
	case TypeKindMap:
		return t.KeyType != nil && t.KeyType.WellFormed() && t.ValueType != nil && t.ValueType.WellFormed()
	default:
		return false
	}
}
