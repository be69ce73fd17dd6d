// Package expr implements the boolean predicate model: literals,
// references, the closed predicate tree, binding against a schema,
// a string DSL parser, inclusive projection through partition specs,
// and the metrics/manifest/partition evaluators the scan planner
// uses to prune files conservatively.
package expr

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marmotdata/icecore/schema"
)

// Literal is a typed constant value appearing in a predicate.
type Literal struct {
	Type  schema.Type
	Value any
}

func NewLiteral(t schema.Type, v any) Literal { return Literal{Type: t, Value: v} }

func Bool(v bool) Literal             { return Literal{Type: schema.Boolean(), Value: v} }
func Int32(v int32) Literal           { return Literal{Type: schema.Int(), Value: v} }
func Int64(v int64) Literal           { return Literal{Type: schema.Long(), Value: v} }
func Float32Lit(v float32) Literal    { return Literal{Type: schema.Float32(), Value: v} }
func Float64Lit(v float64) Literal    { return Literal{Type: schema.Float64(), Value: v} }
func Str(v string) Literal            { return Literal{Type: schema.String(), Value: v} }
func Bin(v []byte) Literal            { return Literal{Type: schema.Binary(), Value: v} }
func Dec(v decimal.Decimal, precision, scale int) Literal {
	return Literal{Type: schema.Decimal(precision, scale), Value: v}
}
func TimeVal(v time.Time) Literal { return Literal{Type: schema.Timestamp(), Value: v} }

// Compare orders two values of the same underlying representation,
// returning -1, 0, or 1. NaN compares as neither less, greater, nor
// equal to any float (including itself), matching IEEE semantics; in
// that case Compare returns 0 and ok is false so callers can special-
// case NaN explicitly (via IsNaN/NotNaN predicates).
func Compare(a, b any) (cmp int, ok bool) {
	switch av := a.(type) {
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if av == bv {
			return 0, true
		}
		if !av {
			return -1, true
		}
		return 1, true
	case int32:
		bv, ok := b.(int32)
		if !ok {
			return 0, false
		}
		return compareOrdered(av, bv), true
	case int64:
		bv, ok := b.(int64)
		if !ok {
			return 0, false
		}
		return compareOrdered(av, bv), true
	case float32:
		bv, ok := b.(float32)
		if !ok {
			return 0, false
		}
		if math.IsNaN(float64(av)) || math.IsNaN(float64(bv)) {
			return 0, false
		}
		return compareOrdered(av, bv), true
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		if math.IsNaN(av) || math.IsNaN(bv) {
			return 0, false
		}
		return compareOrdered(av, bv), true
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return compareOrdered(av, bv), true
	case decimal.Decimal:
		bv, ok := b.(decimal.Decimal)
		if !ok {
			return 0, false
		}
		return av.Cmp(bv), true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		if av.Before(bv) {
			return -1, true
		}
		if av.After(bv) {
			return 1, true
		}
		return 0, true
	case []byte:
		bv, ok := b.([]byte)
		if !ok {
			return 0, false
		}
		for i := 0; i < len(av) && i < len(bv); i++ {
			if av[i] != bv[i] {
				if av[i] < bv[i] {
					return -1, true
				}
				return 1, true
			}
		}
		return compareOrdered(len(av), len(bv)), true
	default:
		return 0, false
	}
}

func compareOrdered[T int | int32 | int64 | float32 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// IsFloatNaN reports whether v is a float32/float64 NaN.
func IsFloatNaN(v any) bool {
	switch n := v.(type) {
	case float32:
		return math.IsNaN(float64(n))
	case float64:
		return math.IsNaN(n)
	default:
		return false
	}
}

func (l Literal) String() string {
	return fmt.Sprintf("%v", l.Value)
}

// CoerceLiteral reconciles lit's Go value with target's primitive
// representation, mirroring pyiceberg's `literal.to(field.type)`:
// int64<->int32, float64<->float32, decimal rescaling, and string
// parsing into date/time/timestamp/uuid/fixed/binary. A literal built
// by the DSL parser or a bare constructor (Int64, Str, ...) carries
// whatever Go type produced it; this is where it is reconciled with
// the bound field's actual type before any evaluator compares it.
func CoerceLiteral(lit Literal, target schema.Type) (Literal, error) {
	prim, ok := target.(schema.PrimitiveType)
	if !ok {
		return Literal{}, fmt.Errorf("cannot bind a literal to non-primitive type %s", target)
	}
	v, err := coerceValue(lit.Value, prim)
	if err != nil {
		return Literal{}, err
	}
	return Literal{Type: prim, Value: v}, nil
}

func coerceValue(v any, target schema.PrimitiveType) (any, error) {
	switch target.Kind {
	case schema.KindBoolean:
		return coerceBool(v)
	case schema.KindInt:
		return coerceInt32(v)
	case schema.KindLong:
		return coerceInt64(v)
	case schema.KindFloat:
		return coerceFloat32(v)
	case schema.KindDouble:
		return coerceFloat64(v)
	case schema.KindDecimal:
		return coerceDecimal(v, target.Scale)
	case schema.KindDate:
		return coerceDate(v)
	case schema.KindTime:
		return coerceTimeOfDay(v)
	case schema.KindTimestamp, schema.KindTimestampTz:
		return coerceTimestamp(v)
	case schema.KindString:
		return coerceString(v)
	case schema.KindUUID:
		return coerceUUID(v)
	case schema.KindFixed, schema.KindBinary:
		return coerceBinary(v)
	default:
		return nil, fmt.Errorf("unsupported literal target type %s", target)
	}
}

func coerceBool(v any) (any, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(x)
		if err != nil {
			return nil, fmt.Errorf("invalid bool literal %q: %w", x, err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to bool", v)
	}
}

func coerceInt32(v any) (any, error) {
	switch x := v.(type) {
	case int32:
		return x, nil
	case int64:
		if x < math.MinInt32 || x > math.MaxInt32 {
			return nil, fmt.Errorf("literal %d overflows int32", x)
		}
		return int32(x), nil
	case string:
		n, err := strconv.ParseInt(x, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid int literal %q: %w", x, err)
		}
		return int32(n), nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to int", v)
	}
}

func coerceInt64(v any) (any, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int32:
		return int64(x), nil
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid long literal %q: %w", x, err)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to long", v)
	}
}

func coerceFloat32(v any) (any, error) {
	switch x := v.(type) {
	case float32:
		return x, nil
	case float64:
		return float32(x), nil
	case int64:
		return float32(x), nil
	case int32:
		return float32(x), nil
	case string:
		f, err := strconv.ParseFloat(x, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid float literal %q: %w", x, err)
		}
		return float32(f), nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to float", v)
	}
}

func coerceFloat64(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid double literal %q: %w", x, err)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to double", v)
	}
}

func coerceDecimal(v any, scale int) (any, error) {
	var d decimal.Decimal
	switch x := v.(type) {
	case decimal.Decimal:
		d = x
	case string:
		parsed, err := decimal.NewFromString(x)
		if err != nil {
			return nil, fmt.Errorf("invalid decimal literal %q: %w", x, err)
		}
		d = parsed
	case int64:
		d = decimal.NewFromInt(x)
	case int32:
		d = decimal.NewFromInt(int64(x))
	case float64:
		d = decimal.NewFromFloat(x)
	default:
		return nil, fmt.Errorf("cannot coerce %T to decimal", v)
	}
	return d.Round(int32(scale)), nil
}

func coerceDate(v any) (any, error) {
	switch x := v.(type) {
	case int32:
		return x, nil
	case string:
		t, err := time.Parse("2006-01-02", x)
		if err != nil {
			return nil, fmt.Errorf("invalid date literal %q: %w", x, err)
		}
		return int32(t.Unix() / 86400), nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to date", v)
	}
}

func coerceTimeOfDay(v any) (any, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case string:
		t, err := time.Parse("15:04:05.999999", x)
		if err != nil {
			t, err = time.Parse("15:04:05", x)
			if err != nil {
				return nil, fmt.Errorf("invalid time literal %q: %w", x, err)
			}
		}
		micros := int64(t.Hour())*3600e6 + int64(t.Minute())*60e6 + int64(t.Second())*1e6 + int64(t.Nanosecond())/1000
		return micros, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to time", v)
	}
}

func coerceTimestamp(v any) (any, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case int64:
		return time.UnixMicro(x).UTC(), nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, x)
		if err != nil {
			t, err = time.Parse("2006-01-02T15:04:05", x)
			if err != nil {
				return nil, fmt.Errorf("invalid timestamp literal %q: %w", x, err)
			}
		}
		return t.UTC(), nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to timestamp", v)
	}
}

func coerceString(v any) (any, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return nil, fmt.Errorf("cannot coerce %T to string", v)
}

func coerceUUID(v any) (any, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		id, err := uuid.Parse(x)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid literal %q: %w", x, err)
		}
		return append([]byte(nil), id[:]...), nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to uuid", v)
	}
}

func coerceBinary(v any) (any, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to binary", v)
	}
}
