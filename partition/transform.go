// Package partition models partition specs and the transforms that
// derive a partition value from a source column value.
package partition

import (
	"fmt"
	"strings"
	"time"

	"github.com/marmotdata/icecore/schema"
)

// Transform derives a partition value from a source field's value and
// describes how predicates on the source field project through it.
type Transform interface {
	Name() string
	// ResultType is the type of the value this transform produces.
	ResultType(source schema.Type) schema.Type
	// Apply computes the partition value for a single row value. A nil
	// input yields a nil output (nulls partition together).
	Apply(value any) (any, error)
	// Monotonic reports whether Apply preserves order of its input,
	// which lets range predicates be projected through the transform
	// (as inclusive bounds, since distinct inputs can share an output).
	Monotonic() bool
}

// Identity passes the source value through unchanged. It is
// monotonic, so predicates project through it exactly.
type Identity struct{}

func (Identity) Name() string                              { return "identity" }
func (Identity) ResultType(source schema.Type) schema.Type { return source }
func (Identity) Apply(value any) (any, error)               { return value, nil }
func (Identity) Monotonic() bool                            { return true }

// Void maps every value to nil. Used for partition evolution when a
// field is dropped from the partition spec but existing data files
// must keep a placeholder value in their partition tuple.
type Void struct{}

func (Void) Name() string                              { return "void" }
func (Void) ResultType(source schema.Type) schema.Type { return source }
func (Void) Apply(value any) (any, error)               { return nil, nil }
func (Void) Monotonic() bool                            { return false }

// Truncate truncates strings/binary to Width bytes, or rounds numeric
// values down to the nearest multiple of Width. It is monotonic for
// numeric sources (truncation preserves order) and for strings under
// byte-wise lexicographic comparison.
type Truncate struct {
	Width int
}

func (t Truncate) Name() string { return fmt.Sprintf("truncate[%d]", t.Width) }

func (t Truncate) ResultType(source schema.Type) schema.Type { return source }

func (t Truncate) Apply(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string:
		if len(v) <= t.Width {
			return v, nil
		}
		return v[:t.Width], nil
	case []byte:
		if len(v) <= t.Width {
			return v, nil
		}
		out := make([]byte, t.Width)
		copy(out, v)
		return out, nil
	case int32:
		return int32(truncateInt(int64(v), int64(t.Width))), nil
	case int64:
		return truncateInt(v, int64(t.Width)), nil
	default:
		return nil, fmt.Errorf("truncate: unsupported value type %T", value)
	}
}

func truncateInt(v, width int64) int64 {
	if width <= 0 {
		return v
	}
	r := v % width
	if r < 0 {
		r += width
	}
	return v - r
}

func (t Truncate) Monotonic() bool { return true }

// Bucket hashes a value into one of N buckets (Iceberg's
// murmur3-based bucketing). Hash bucketing is not order-preserving,
// so predicate projection through it is conservative
// (AlwaysTrue/residual) rather than an exact range rewrite.
type Bucket struct {
	N int
}

func (b Bucket) Name() string                              { return fmt.Sprintf("bucket[%d]", b.N) }
func (b Bucket) ResultType(source schema.Type) schema.Type { return schema.Int() }
func (b Bucket) Monotonic() bool                            { return false }

func (b Bucket) Apply(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	h, err := hashValue(value)
	if err != nil {
		return nil, err
	}
	bucket := int32(h&0x7fffffff) % int32(b.N)
	return bucket, nil
}

func hashValue(value any) (uint32, error) {
	switch v := value.(type) {
	case string:
		return murmur3_32([]byte(v)), nil
	case []byte:
		return murmur3_32(v), nil
	case int32:
		return murmur3_32(encodeLE64(int64(v))), nil
	case int64:
		return murmur3_32(encodeLE64(v)), nil
	default:
		return 0, fmt.Errorf("bucket: unsupported value type %T", value)
	}
}

// Year/Month/Day/Hour derive a calendar unit ordinal (since the Unix
// epoch) from a date/timestamp source. They are monotonic: later
// timestamps never produce an earlier ordinal.
type dateTransform struct{ unit string }

func (d dateTransform) Name() string                              { return d.unit }
func (d dateTransform) ResultType(source schema.Type) schema.Type { return schema.Int() }
func (d dateTransform) Monotonic() bool                            { return true }

// Apply accepts a decoded date (int32 days since the Unix epoch, per
// manifest.DecodeBound/expr.CoerceLiteral's KindDate representation)
// or a decoded timestamp (time.Time, their KindTimestamp/
// KindTimestampTz representation) and returns the ordinal number of
// the calendar unit elapsed since the epoch, the format's own
// encoding for year/month/day/hour partition values.
func (d dateTransform) Apply(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	var t time.Time
	switch v := value.(type) {
	case int32:
		t = time.Unix(int64(v)*86400, 0).UTC()
	case time.Time:
		t = v.UTC()
	default:
		return nil, fmt.Errorf("%s: unsupported value type %T", d.unit, value)
	}
	switch d.unit {
	case "year":
		return int32(t.Year() - 1970), nil
	case "month":
		return int32((t.Year()-1970)*12 + int(t.Month()) - 1), nil
	case "day":
		return int32(t.Unix() / 86400), nil
	case "hour":
		return int32(t.Unix() / 3600), nil
	default:
		return nil, fmt.Errorf("unknown calendar unit %q", d.unit)
	}
}

func Year() Transform  { return dateTransform{"year"} }
func Month() Transform { return dateTransform{"month"} }
func Day() Transform   { return dateTransform{"day"} }
func Hour() Transform  { return dateTransform{"hour"} }

// ParseTransform parses a transform's wire name (e.g. "identity",
// "bucket[16]", "truncate[4]", "year", "void") as used in partition
// spec JSON.
func ParseTransform(s string) (Transform, error) {
	switch {
	case s == "identity":
		return Identity{}, nil
	case s == "void":
		return Void{}, nil
	case s == "year":
		return Year(), nil
	case s == "month":
		return Month(), nil
	case s == "day":
		return Day(), nil
	case s == "hour":
		return Hour(), nil
	case strings.HasPrefix(s, "bucket[") && strings.HasSuffix(s, "]"):
		n, err := parseBracketedInt(s, "bucket")
		if err != nil {
			return nil, err
		}
		return Bucket{N: n}, nil
	case strings.HasPrefix(s, "truncate[") && strings.HasSuffix(s, "]"):
		n, err := parseBracketedInt(s, "truncate")
		if err != nil {
			return nil, err
		}
		return Truncate{Width: n}, nil
	default:
		return nil, fmt.Errorf("unknown partition transform %q", s)
	}
}

func parseBracketedInt(s, prefix string) (int, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(s, prefix+"["), "]")
	var n int
	if _, err := fmt.Sscanf(inner, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid %s argument %q: %w", prefix, s, err)
	}
	return n, nil
}
