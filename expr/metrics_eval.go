package expr

import "fmt"

// FileStats exposes the per-column statistics a data or delete file
// carries (value/null/NaN counts and lower/upper bounds), keyed by
// stable field ID. Bound values are already decoded to the Go
// representation matching the column's schema type.
type FileStats interface {
	ValueCount(fieldID int) (int64, bool)
	NullCount(fieldID int) (int64, bool)
	NaNCount(fieldID int) (int64, bool)
	LowerBound(fieldID int) (any, bool)
	UpperBound(fieldID int) (any, bool)
}

// EvalMetrics is the inclusive metrics evaluator (4.B): it returns
// true when the file *may* contain a row matching p, given only
// column-level bounds. It never returns a false negative.
func EvalMetrics(p Predicate, stats FileStats) (bool, error) {
	v := &metricsVisitor{stats: stats}
	return VisitPredicate(PushDownNot(p), v), v.err
}

// PushDownNot rewrites p so that Not only ever wraps an atomic
// predicate, pushing negation through And/Or via De Morgan's laws and
// through comparison operators via their natural negation. Evaluators
// that can only reason about "may match" need this: the conservative
// complement of "may match p" is not "may not match p".
func PushDownNot(p Predicate) Predicate {
	switch n := p.(type) {
	case And:
		return NewAnd(PushDownNot(n.Left), PushDownNot(n.Right))
	case Or:
		return NewOr(PushDownNot(n.Left), PushDownNot(n.Right))
	case Not:
		return negate(n.Child)
	default:
		return p
	}
}

func negate(p Predicate) Predicate {
	switch n := p.(type) {
	case AlwaysTrue:
		return AlwaysFalse{}
	case AlwaysFalse:
		return AlwaysTrue{}
	case And:
		return NewOr(negate(n.Left), negate(n.Right))
	case Or:
		return NewAnd(negate(n.Left), negate(n.Right))
	case Not:
		return PushDownNot(n.Child)
	case UnaryPredicate:
		return UnaryPredicate{Op: negateUnaryOp(n.Op), Term: n.Term}
	case LiteralPredicate:
		return LiteralPredicate{Op: negateLiteralOp(n.Op), Term: n.Term, Literal: n.Literal}
	case SetPredicate:
		op := OpIn
		if n.Op == OpIn {
			op = OpNotIn
		}
		return SetPredicate{Op: op, Term: n.Term, Literals: n.Literals}
	default:
		return Not{Child: p}
	}
}

func negateUnaryOp(op Op) Op {
	switch op {
	case OpIsNull:
		return OpNotNull
	case OpNotNull:
		return OpIsNull
	case OpIsNaN:
		return OpNotNaN
	case OpNotNaN:
		return OpIsNaN
	default:
		return op
	}
}

func negateLiteralOp(op Op) Op {
	switch op {
	case OpEQ:
		return OpNE
	case OpNE:
		return OpEQ
	case OpLT:
		return OpGTE
	case OpLTE:
		return OpGT
	case OpGT:
		return OpLTE
	case OpGTE:
		return OpLT
	default:
		return op
	}
}

type metricsVisitor struct {
	stats FileStats
	err   error
}

func (v *metricsVisitor) fail(err error) bool {
	if v.err == nil {
		v.err = err
	}
	return true
}

func (v *metricsVisitor) AlwaysTrue() bool  { return true }
func (v *metricsVisitor) AlwaysFalse() bool { return false }
func (v *metricsVisitor) And(l, r bool) bool { return l && r }
func (v *metricsVisitor) Or(l, r bool) bool  { return l || r }
func (v *metricsVisitor) Not(_ bool) bool {
	// Negation cannot be evaluated conservatively against bounds
	// alone (the conservative complement of "may match" is not "may
	// not match"). EvalMetrics pushes NOT down first, so only a Not
	// that negate cannot rewrite reaches here.
	return true
}

func (v *metricsVisitor) fieldID(t Term) int {
	b, ok := t.(BoundReference)
	if !ok {
		v.fail(fmt.Errorf("expr: metrics evaluator requires a bound predicate"))
		return -1
	}
	return b.FieldID
}

func (v *metricsVisitor) Unary(p UnaryPredicate) bool {
	id := v.fieldID(p.Term)
	if v.err != nil {
		return true
	}
	valueCount, _ := v.stats.ValueCount(id)
	nullCount, hasNullCount := v.stats.NullCount(id)
	nanCount, hasNaNCount := v.stats.NaNCount(id)

	switch p.Op {
	case OpIsNull:
		if hasNullCount {
			return nullCount > 0
		}
		return true
	case OpNotNull:
		if hasNullCount {
			return nullCount < valueCount || valueCount == 0
		}
		return true
	case OpIsNaN:
		if hasNaNCount {
			return nanCount > 0
		}
		return true
	case OpNotNaN:
		if hasNaNCount {
			return nanCount < valueCount
		}
		return true
	default:
		return v.fail(fmt.Errorf("expr: unsupported unary op %q", p.Op))
	}
}

func (v *metricsVisitor) Literal(p LiteralPredicate) bool {
	id := v.fieldID(p.Term)
	if v.err != nil {
		return true
	}
	lower, hasLower := v.stats.LowerBound(id)
	upper, hasUpper := v.stats.UpperBound(id)
	lit := p.Literal.Value

	switch p.Op {
	case OpEQ:
		if hasLower {
			if c, ok := Compare(lower, lit); ok && c > 0 {
				return false
			}
		}
		if hasUpper {
			if c, ok := Compare(upper, lit); ok && c < 0 {
				return false
			}
		}
		return true
	case OpNE:
		return true
	case OpLT:
		if hasLower {
			if c, ok := Compare(lower, lit); ok && c >= 0 {
				return false
			}
		}
		return true
	case OpLTE:
		if hasLower {
			if c, ok := Compare(lower, lit); ok && c > 0 {
				return false
			}
		}
		return true
	case OpGT:
		if hasUpper {
			if c, ok := Compare(upper, lit); ok && c <= 0 {
				return false
			}
		}
		return true
	case OpGTE:
		if hasUpper {
			if c, ok := Compare(upper, lit); ok && c < 0 {
				return false
			}
		}
		return true
	default:
		return v.fail(fmt.Errorf("expr: unsupported literal op %q", p.Op))
	}
}

func (v *metricsVisitor) Set(p SetPredicate) bool {
	id := v.fieldID(p.Term)
	if v.err != nil {
		return true
	}
	if p.Op == OpNotIn {
		return true
	}
	lower, hasLower := v.stats.LowerBound(id)
	upper, hasUpper := v.stats.UpperBound(id)
	if !hasLower && !hasUpper {
		return true
	}
	for _, lit := range p.Literals {
		inRange := true
		if hasLower {
			if c, ok := Compare(lower, lit.Value); ok && c > 0 {
				inRange = false
			}
		}
		if inRange && hasUpper {
			if c, ok := Compare(upper, lit.Value); ok && c < 0 {
				inRange = false
			}
		}
		if inRange {
			return true
		}
	}
	return false
}
