package expr

import "github.com/marmotdata/icecore/partition"

// InclusiveProjection projects a bound row-level predicate through a
// partition spec, producing a conservative predicate over partition
// values: true wherever the row predicate might hold for some row in
// that partition. It may only widen the result set relative to
// evaluating the row predicate directly, never narrow it.
//
// Identity projects every comparison unchanged, rewritten in terms of
// the partition field. The other monotonic transforms (truncate,
// calendar units) keep equality and inclusive bounds, turn strict
// bounds (<, >) into inclusive ones and drop !=, because several
// source values share one partition value. Bucket preserves only
// equality and IN; void partition fields carry no information and are
// skipped. Anything else collapses to AlwaysTrue, the safe
// over-approximation.
func InclusiveProjection(p Predicate, spec *partition.Spec) Predicate {
	return projectNode(p, spec)
}

func projectNode(p Predicate, spec *partition.Spec) Predicate {
	switch n := p.(type) {
	case AlwaysTrue, AlwaysFalse:
		return p
	case And:
		return NewAnd(projectNode(n.Left, spec), projectNode(n.Right, spec))
	case Or:
		return NewOr(projectNode(n.Left, spec), projectNode(n.Right, spec))
	case Not:
		return projectNode(PushDownNot(n), spec)
	case UnaryPredicate:
		return projectUnary(n, spec)
	case LiteralPredicate:
		return projectLiteral(n, spec)
	case SetPredicate:
		return projectSet(n, spec)
	default:
		return AlwaysTrue{}
	}
}

func partitionFieldsFor(sourceID int, spec *partition.Spec) []*partition.Field {
	var out []*partition.Field
	for _, f := range spec.Fields {
		if f.SourceID == sourceID {
			if _, void := f.Transform.(partition.Void); void {
				continue
			}
			out = append(out, f)
		}
	}
	return out
}

func projectUnary(p UnaryPredicate, spec *partition.Spec) Predicate {
	bound, ok := p.Term.(BoundReference)
	if !ok {
		return AlwaysTrue{}
	}
	fields := partitionFieldsFor(bound.FieldID, spec)
	if len(fields) == 0 {
		return AlwaysTrue{}
	}
	var result Predicate = AlwaysTrue{}
	for _, pf := range fields {
		ref := BoundReference{FieldID: pf.FieldID, Name: pf.Name, Type: pf.Transform.ResultType(bound.Type)}
		switch p.Op {
		case OpIsNull, OpNotNull:
			result = NewAnd(result, UnaryPredicate{Op: p.Op, Term: ref})
		default:
			// IsNaN/NotNaN are not meaningful once a partition
			// transform has been applied; stay conservative.
			result = NewAnd(result, AlwaysTrue{})
		}
	}
	return result
}

func projectLiteral(p LiteralPredicate, spec *partition.Spec) Predicate {
	bound, ok := p.Term.(BoundReference)
	if !ok {
		return AlwaysTrue{}
	}
	fields := partitionFieldsFor(bound.FieldID, spec)
	if len(fields) == 0 {
		return AlwaysTrue{}
	}
	var result Predicate = AlwaysTrue{}
	for _, pf := range fields {
		ref := BoundReference{FieldID: pf.FieldID, Name: pf.Name, Type: pf.Transform.ResultType(bound.Type)}
		transformed, err := pf.Transform.Apply(p.Literal.Value)
		if err != nil {
			result = NewAnd(result, AlwaysTrue{})
			continue
		}
		lit := Literal{Type: ref.Type, Value: transformed}
		if _, exact := pf.Transform.(partition.Identity); exact {
			result = NewAnd(result, LiteralPredicate{Op: p.Op, Term: ref, Literal: lit})
			continue
		}
		if pf.Transform.Monotonic() {
			switch p.Op {
			case OpLT:
				result = NewAnd(result, LiteralPredicate{Op: OpLTE, Term: ref, Literal: lit})
			case OpGT:
				result = NewAnd(result, LiteralPredicate{Op: OpGTE, Term: ref, Literal: lit})
			case OpNE:
				result = NewAnd(result, AlwaysTrue{})
			default:
				result = NewAnd(result, LiteralPredicate{Op: p.Op, Term: ref, Literal: lit})
			}
			continue
		}
		// Non-monotonic transforms only preserve equality; range
		// comparisons fall back to AlwaysTrue.
		switch p.Op {
		case OpEQ:
			result = NewAnd(result, EqualTo(ref, lit))
		case OpNE:
			result = NewAnd(result, AlwaysTrue{})
		default:
			result = NewAnd(result, AlwaysTrue{})
		}
	}
	return result
}

func projectSet(p SetPredicate, spec *partition.Spec) Predicate {
	bound, ok := p.Term.(BoundReference)
	if !ok {
		return AlwaysTrue{}
	}
	fields := partitionFieldsFor(bound.FieldID, spec)
	if len(fields) == 0 {
		return AlwaysTrue{}
	}
	if p.Op == OpNotIn {
		return AlwaysTrue{}
	}
	var result Predicate = AlwaysTrue{}
	for _, pf := range fields {
		ref := BoundReference{FieldID: pf.FieldID, Name: pf.Name, Type: pf.Transform.ResultType(bound.Type)}
		lits := make([]Literal, 0, len(p.Literals))
		ok := true
		for _, l := range p.Literals {
			v, err := pf.Transform.Apply(l.Value)
			if err != nil {
				ok = false
				break
			}
			lits = append(lits, Literal{Type: ref.Type, Value: v})
		}
		if !ok {
			result = NewAnd(result, AlwaysTrue{})
			continue
		}
		result = NewAnd(result, SetPredicate{Op: OpIn, Term: ref, Literals: lits})
	}
	return result
}
