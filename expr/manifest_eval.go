package expr

import "fmt"

// PartitionSummaries exposes the manifest-level per-partition-field
// summary (has-null, has-NaN, lower, upper) the manifest evaluator
// consults, keyed by partition field ID.
type PartitionSummaries interface {
	ContainsNull(partitionFieldID int) bool
	ContainsNaN(partitionFieldID int) (bool, bool)
	LowerBound(partitionFieldID int) (any, bool)
	UpperBound(partitionFieldID int) (any, bool)
}

// EvalManifest is the manifest evaluator (4.B): it evaluates the
// projected partition predicate against a manifest's per-field
// summaries, conservatively (may-match).
func EvalManifest(p Predicate, summaries PartitionSummaries) (bool, error) {
	v := &manifestVisitor{summaries: summaries}
	return VisitPredicate(PushDownNot(p), v), v.err
}

type manifestVisitor struct {
	summaries PartitionSummaries
	err       error
}

func (v *manifestVisitor) fail(err error) bool {
	if v.err == nil {
		v.err = err
	}
	return true
}

func (v *manifestVisitor) AlwaysTrue() bool   { return true }
func (v *manifestVisitor) AlwaysFalse() bool  { return false }
func (v *manifestVisitor) And(l, r bool) bool { return l && r }
func (v *manifestVisitor) Or(l, r bool) bool  { return l || r }
func (v *manifestVisitor) Not(_ bool) bool    { return true }

func (v *manifestVisitor) fieldID(t Term) int {
	b, ok := t.(BoundReference)
	if !ok {
		v.fail(fmt.Errorf("expr: manifest evaluator requires a bound predicate"))
		return -1
	}
	return b.FieldID
}

func (v *manifestVisitor) Unary(p UnaryPredicate) bool {
	id := v.fieldID(p.Term)
	if v.err != nil {
		return true
	}
	switch p.Op {
	case OpIsNull:
		return v.summaries.ContainsNull(id)
	case OpNotNull:
		return true
	case OpIsNaN:
		has, known := v.summaries.ContainsNaN(id)
		if !known {
			return true
		}
		return has
	case OpNotNaN:
		return true
	default:
		return v.fail(fmt.Errorf("expr: unsupported unary op %q", p.Op))
	}
}

func (v *manifestVisitor) Literal(p LiteralPredicate) bool {
	id := v.fieldID(p.Term)
	if v.err != nil {
		return true
	}
	lower, hasLower := v.summaries.LowerBound(id)
	upper, hasUpper := v.summaries.UpperBound(id)
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

func (v *manifestVisitor) Set(p SetPredicate) bool {
	id := v.fieldID(p.Term)
	if v.err != nil {
		return true
	}
	if p.Op == OpNotIn {
		return true
	}
	lower, hasLower := v.summaries.LowerBound(id)
	upper, hasUpper := v.summaries.UpperBound(id)
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
