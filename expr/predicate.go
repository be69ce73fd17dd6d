package expr

// Op identifies the operator of a unary/literal/set predicate.
type Op string

const (
	OpIsNull    Op = "is_null"
	OpNotNull   Op = "not_null"
	OpIsNaN     Op = "is_nan"
	OpNotNaN    Op = "not_nan"
	OpEQ        Op = "eq"
	OpNE        Op = "not_eq"
	OpLT        Op = "lt"
	OpLTE       Op = "lt_eq"
	OpGT        Op = "gt"
	OpGTE       Op = "gt_eq"
	OpIn        Op = "in"
	OpNotIn     Op = "not_in"
)

// Predicate is the closed set of boolean expression nodes: the
// constants, the three connectives, and the three atomic predicate
// shapes (unary, single-literal, and set-valued). Every concrete type
// below is the only legal implementer; callers type-switch rather
// than extend the set.
type Predicate interface {
	isPredicate()
}

type AlwaysTrue struct{}
type AlwaysFalse struct{}

func (AlwaysTrue) isPredicate()  {}
func (AlwaysFalse) isPredicate() {}

type And struct{ Left, Right Predicate }
type Or struct{ Left, Right Predicate }
type Not struct{ Child Predicate }

func (And) isPredicate() {}
func (Or) isPredicate()  {}
func (Not) isPredicate() {}

// NewAnd builds a conjunction, folding constants where possible.
func NewAnd(l, r Predicate) Predicate {
	if isFalse(l) || isFalse(r) {
		return AlwaysFalse{}
	}
	if isTrue(l) {
		return r
	}
	if isTrue(r) {
		return l
	}
	return And{Left: l, Right: r}
}

// NewOr builds a disjunction, folding constants where possible.
func NewOr(l, r Predicate) Predicate {
	if isTrue(l) || isTrue(r) {
		return AlwaysTrue{}
	}
	if isFalse(l) {
		return r
	}
	if isFalse(r) {
		return l
	}
	return Or{Left: l, Right: r}
}

// NewNot negates p, folding constants and double negation.
func NewNot(p Predicate) Predicate {
	switch v := p.(type) {
	case AlwaysTrue:
		return AlwaysFalse{}
	case AlwaysFalse:
		return AlwaysTrue{}
	case Not:
		return v.Child
	default:
		return Not{Child: p}
	}
}

func isTrue(p Predicate) bool {
	_, ok := p.(AlwaysTrue)
	return ok
}

func isFalse(p Predicate) bool {
	_, ok := p.(AlwaysFalse)
	return ok
}

// Term is either an unbound Reference or a BoundReference, depending
// on whether the predicate tree has been bound against a schema.
type Term interface {
	isTerm()
}

func (Reference) isTerm()      {}
func (BoundReference) isTerm() {}

// UnaryPredicate is a null/NaN check with no literal operand.
type UnaryPredicate struct {
	Op   Op
	Term Term
}

func (UnaryPredicate) isPredicate() {}

// LiteralPredicate compares a term against a single literal.
type LiteralPredicate struct {
	Op      Op
	Term    Term
	Literal Literal
}

func (LiteralPredicate) isPredicate() {}

// SetPredicate compares a term against a set of literals (IN/NOT IN).
type SetPredicate struct {
	Op       Op
	Term     Term
	Literals []Literal
}

func (SetPredicate) isPredicate() {}

func IsNull(ref Term) Predicate  { return UnaryPredicate{Op: OpIsNull, Term: ref} }
func NotNull(ref Term) Predicate { return UnaryPredicate{Op: OpNotNull, Term: ref} }
func IsNaN(ref Term) Predicate   { return UnaryPredicate{Op: OpIsNaN, Term: ref} }
func NotNaN(ref Term) Predicate  { return UnaryPredicate{Op: OpNotNaN, Term: ref} }

func EqualTo(ref Term, l Literal) Predicate    { return LiteralPredicate{Op: OpEQ, Term: ref, Literal: l} }
func NotEqualTo(ref Term, l Literal) Predicate { return LiteralPredicate{Op: OpNE, Term: ref, Literal: l} }
func LessThan(ref Term, l Literal) Predicate   { return LiteralPredicate{Op: OpLT, Term: ref, Literal: l} }
func LessThanOrEqual(ref Term, l Literal) Predicate {
	return LiteralPredicate{Op: OpLTE, Term: ref, Literal: l}
}
func GreaterThan(ref Term, l Literal) Predicate {
	return LiteralPredicate{Op: OpGT, Term: ref, Literal: l}
}
func GreaterThanOrEqual(ref Term, l Literal) Predicate {
	return LiteralPredicate{Op: OpGTE, Term: ref, Literal: l}
}

func In(ref Term, ls ...Literal) Predicate    { return SetPredicate{Op: OpIn, Term: ref, Literals: ls} }
func NotIn(ref Term, ls ...Literal) Predicate { return SetPredicate{Op: OpNotIn, Term: ref, Literals: ls} }
