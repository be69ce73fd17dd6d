package expr

// PredicateVisitor folds a predicate tree into a result of type T,
// the boolean-expression counterpart to schema.Visitor.
type PredicateVisitor[T any] interface {
	AlwaysTrue() T
	AlwaysFalse() T
	And(left, right T) T
	Or(left, right T) T
	Not(child T) T
	Unary(p UnaryPredicate) T
	Literal(p LiteralPredicate) T
	Set(p SetPredicate) T
}

// VisitPredicate walks p bottom-up through v.
func VisitPredicate[T any](p Predicate, v PredicateVisitor[T]) T {
	switch n := p.(type) {
	case AlwaysTrue:
		return v.AlwaysTrue()
	case AlwaysFalse:
		return v.AlwaysFalse()
	case And:
		return v.And(VisitPredicate(n.Left, v), VisitPredicate(n.Right, v))
	case Or:
		return v.Or(VisitPredicate(n.Left, v), VisitPredicate(n.Right, v))
	case Not:
		return v.Not(VisitPredicate(n.Child, v))
	case UnaryPredicate:
		return v.Unary(n)
	case LiteralPredicate:
		return v.Literal(n)
	case SetPredicate:
		return v.Set(n)
	default:
		var zero T
		return zero
	}
}
