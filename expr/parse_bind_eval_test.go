package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmotdata/icecore/schema"
)

// TestParseBindEval_IntColumn reproduces the path that used to panic:
// the DSL parser always produces an int64 number literal, but an
// "int" column's file bounds are int32 (manifest.DecodeBound's
// representation). Without Bind coercing the literal to the column's
// actual width, EvalMetrics' Compare(int32, int64) type-asserted the
// wrong width and panicked instead of returning a result.
func TestParseBindEval_IntColumn(t *testing.T) {
	sch := schema.NewSchema(0, &schema.StructType{Fields: []*schema.NestedField{
		{ID: 1, Name: "id", Type: schema.Int(), Required: true},
	}})
	stats := fakeStats{
		valueCounts: map[int]int64{1: 10},
		lowers:      map[int]any{1: int32(0)},
		uppers:      map[int]any{1: int32(9)},
	}

	pred, err := ParsePredicate("id > 4")
	require.NoError(t, err)

	bound, err := Bind(pred, sch, true)
	require.NoError(t, err)

	lp, ok := bound.(LiteralPredicate)
	require.True(t, ok)
	assert.IsType(t, int32(0), lp.Literal.Value)

	match, err := EvalMetrics(bound, stats)
	require.NoError(t, err)
	assert.True(t, match)

	pred2, err := ParsePredicate("id > 100")
	require.NoError(t, err)
	bound2, err := Bind(pred2, sch, true)
	require.NoError(t, err)
	match2, err := EvalMetrics(bound2, stats)
	require.NoError(t, err)
	assert.False(t, match2)
}

// TestParseBindEval_FloatColumn covers the same width-mismatch shape
// for a "float" column: the parser produces a float64 literal, which
// Bind must narrow to float32 before it reaches bounds decoded as
// float32.
func TestParseBindEval_FloatColumn(t *testing.T) {
	sch := schema.NewSchema(0, &schema.StructType{Fields: []*schema.NestedField{
		{ID: 1, Name: "price", Type: schema.Float32(), Required: true},
	}})
	stats := fakeStats{
		valueCounts: map[int]int64{1: 10},
		lowers:      map[int]any{1: float32(1.5)},
		uppers:      map[int]any{1: float32(9.5)},
	}

	pred, err := ParsePredicate("price < 2.0")
	require.NoError(t, err)

	bound, err := Bind(pred, sch, true)
	require.NoError(t, err)

	lp, ok := bound.(LiteralPredicate)
	require.True(t, ok)
	assert.IsType(t, float32(0), lp.Literal.Value)

	match, err := EvalMetrics(bound, stats)
	require.NoError(t, err)
	assert.True(t, match)
}

// TestParseBindEval_InList covers SetPredicate coercion: the parser
// produces int64 literals for an IN list against an int32 column.
func TestParseBindEval_InList(t *testing.T) {
	sch := schema.NewSchema(0, &schema.StructType{Fields: []*schema.NestedField{
		{ID: 1, Name: "id", Type: schema.Int(), Required: true},
	}})
	stats := fakeStats{
		valueCounts: map[int]int64{1: 10},
		lowers:      map[int]any{1: int32(0)},
		uppers:      map[int]any{1: int32(9)},
	}

	pred, err := ParsePredicate("id IN (3, 100)")
	require.NoError(t, err)
	bound, err := Bind(pred, sch, true)
	require.NoError(t, err)

	sp, ok := bound.(SetPredicate)
	require.True(t, ok)
	for _, lit := range sp.Literals {
		assert.IsType(t, int32(0), lit.Value)
	}

	match, err := EvalMetrics(bound, stats)
	require.NoError(t, err)
	assert.True(t, match)
}
