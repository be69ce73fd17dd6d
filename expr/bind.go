package expr

import (
	"fmt"

	"github.com/marmotdata/icecore/schema"
)

// Bind resolves every unbound Reference in p against sch, producing a
// tree of the same shape with BoundReference terms. It fails closed:
// an unknown field name is a validation error, not a silently
// AlwaysFalse predicate.
func Bind(p Predicate, sch *schema.Schema, caseSensitive bool) (Predicate, error) {
	switch v := p.(type) {
	case AlwaysTrue, AlwaysFalse:
		return p, nil
	case And:
		l, err := Bind(v.Left, sch, caseSensitive)
		if err != nil {
			return nil, err
		}
		r, err := Bind(v.Right, sch, caseSensitive)
		if err != nil {
			return nil, err
		}
		return NewAnd(l, r), nil
	case Or:
		l, err := Bind(v.Left, sch, caseSensitive)
		if err != nil {
			return nil, err
		}
		r, err := Bind(v.Right, sch, caseSensitive)
		if err != nil {
			return nil, err
		}
		return NewOr(l, r), nil
	case Not:
		c, err := Bind(v.Child, sch, caseSensitive)
		if err != nil {
			return nil, err
		}
		return NewNot(c), nil
	case UnaryPredicate:
		bound, err := bindTerm(v.Term, sch, caseSensitive)
		if err != nil {
			return nil, err
		}
		return UnaryPredicate{Op: v.Op, Term: bound}, nil
	case LiteralPredicate:
		bound, err := bindTerm(v.Term, sch, caseSensitive)
		if err != nil {
			return nil, err
		}
		lit, err := CoerceLiteral(v.Literal, bound.(BoundReference).Type)
		if err != nil {
			return nil, fmt.Errorf("expr: bind literal for %q: %w", bound.(BoundReference).Name, err)
		}
		return LiteralPredicate{Op: v.Op, Term: bound, Literal: lit}, nil
	case SetPredicate:
		bound, err := bindTerm(v.Term, sch, caseSensitive)
		if err != nil {
			return nil, err
		}
		fieldType := bound.(BoundReference).Type
		lits := make([]Literal, len(v.Literals))
		for i, l := range v.Literals {
			lit, err := CoerceLiteral(l, fieldType)
			if err != nil {
				return nil, fmt.Errorf("expr: bind literal for %q: %w", bound.(BoundReference).Name, err)
			}
			lits[i] = lit
		}
		return SetPredicate{Op: v.Op, Term: bound, Literals: lits}, nil
	default:
		return nil, fmt.Errorf("expr: unrecognized predicate node %T", p)
	}
}

func bindTerm(t Term, sch *schema.Schema, caseSensitive bool) (Term, error) {
	switch v := t.(type) {
	case BoundReference:
		return v, nil
	case Reference:
		field := sch.FindField(v.Name, caseSensitive)
		if field == nil {
			return nil, fmt.Errorf("expr: unknown field %q", v.Name)
		}
		return BoundReference{FieldID: field.ID, Name: field.Name, Type: field.Type}, nil
	default:
		return nil, fmt.Errorf("expr: unrecognized term %T", t)
	}
}

// IsBound reports whether every term in the tree is already a
// BoundReference.
func IsBound(p Predicate) bool {
	switch v := p.(type) {
	case AlwaysTrue, AlwaysFalse:
		return true
	case And:
		return IsBound(v.Left) && IsBound(v.Right)
	case Or:
		return IsBound(v.Left) && IsBound(v.Right)
	case Not:
		return IsBound(v.Child)
	case UnaryPredicate:
		_, ok := v.Term.(BoundReference)
		return ok
	case LiteralPredicate:
		_, ok := v.Term.(BoundReference)
		return ok
	case SetPredicate:
		_, ok := v.Term.(BoundReference)
		return ok
	default:
		return false
	}
}
