package expr

import "fmt"

// PartitionTuple exposes the typed values of a partition tuple, keyed
// by partition field ID, for strict (exact) evaluation.
type PartitionTuple interface {
	Value(partitionFieldID int) (any, bool)
}

// EvalPartition is the strict partition evaluator (4.B): it evaluates
// a predicate already projected onto partition fields exactly against
// a typed partition tuple, not conservatively.
func EvalPartition(p Predicate, tuple PartitionTuple) (bool, error) {
	v := &partitionVisitor{tuple: tuple}
	return VisitPredicate(p, v), v.err
}

type partitionVisitor struct {
	tuple PartitionTuple
	err   error
}

func (v *partitionVisitor) fail(err error) bool {
	if v.err == nil {
		v.err = err
	}
	return false
}

func (v *partitionVisitor) AlwaysTrue() bool   { return true }
func (v *partitionVisitor) AlwaysFalse() bool  { return false }
func (v *partitionVisitor) And(l, r bool) bool { return l && r }
func (v *partitionVisitor) Or(l, r bool) bool  { return l || r }
func (v *partitionVisitor) Not(c bool) bool    { return !c }

func (v *partitionVisitor) value(t Term) (any, bool, bool) {
	b, ok := t.(BoundReference)
	if !ok {
		v.fail(fmt.Errorf("expr: partition evaluator requires a bound predicate"))
		return nil, false, false
	}
	val, present := v.tuple.Value(b.FieldID)
	return val, present, true
}

func (v *partitionVisitor) Unary(p UnaryPredicate) bool {
	val, present, ok := v.value(p.Term)
	if !ok {
		return false
	}
	isNull := !present || val == nil
	switch p.Op {
	case OpIsNull:
		return isNull
	case OpNotNull:
		return !isNull
	case OpIsNaN:
		return !isNull && IsFloatNaN(val)
	case OpNotNaN:
		return isNull || !IsFloatNaN(val)
	default:
		return v.fail(fmt.Errorf("expr: unsupported unary op %q", p.Op))
	}
}

func (v *partitionVisitor) Literal(p LiteralPredicate) bool {
	val, present, ok := v.value(p.Term)
	if !ok {
		return false
	}
	if !present || val == nil {
		return false
	}
	c, cmpOK := Compare(val, p.Literal.Value)
	if !cmpOK {
		return false
	}
	switch p.Op {
	case OpEQ:
		return c == 0
	case OpNE:
		return c != 0
	case OpLT:
		return c < 0
	case OpLTE:
		return c <= 0
	case OpGT:
		return c > 0
	case OpGTE:
		return c >= 0
	default:
		return v.fail(fmt.Errorf("expr: unsupported literal op %q", p.Op))
	}
}

func (v *partitionVisitor) Set(p SetPredicate) bool {
	val, present, ok := v.value(p.Term)
	if !ok {
		return false
	}
	if !present || val == nil {
		return false
	}
	found := false
	for _, lit := range p.Literals {
		if c, cmpOK := Compare(val, lit.Value); cmpOK && c == 0 {
			found = true
			break
		}
	}
	if p.Op == OpIn {
		return found
	}
	return !found
}
