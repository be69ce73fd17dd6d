package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmotdata/icecore/schema"
)

// fakeStats is a minimal FileStats backed by maps, enough to exercise
// every branch of the inclusive metrics evaluator without a real
// manifest entry.
type fakeStats struct {
	valueCounts map[int]int64
	nullCounts  map[int]int64
	nanCounts   map[int]int64
	lowers      map[int]any
	uppers      map[int]any
}

func (f fakeStats) ValueCount(id int) (int64, bool) { v, ok := f.valueCounts[id]; return v, ok }
func (f fakeStats) NullCount(id int) (int64, bool)  { v, ok := f.nullCounts[id]; return v, ok }
func (f fakeStats) NaNCount(id int) (int64, bool)   { v, ok := f.nanCounts[id]; return v, ok }
func (f fakeStats) LowerBound(id int) (any, bool)   { v, ok := f.lowers[id]; return v, ok }
func (f fakeStats) UpperBound(id int) (any, bool)   { v, ok := f.uppers[id]; return v, ok }

const idCol = 1

func idRef() BoundReference {
	return BoundReference{FieldID: idCol, Name: "id", Type: schema.Int()}
}

func TestEvalMetrics_Literal(t *testing.T) {
	stats := fakeStats{
		valueCounts: map[int]int64{idCol: 10},
		lowers:      map[int]any{idCol: int32(0)},
		uppers:      map[int]any{idCol: int32(9)},
	}

	tests := []struct {
		name string
		pred Predicate
		want bool
	}{
		{"eq in range", EqualTo(idRef(), Int32(5)), true},
		{"eq above range", EqualTo(idRef(), Int32(100)), false},
		{"eq below range", EqualTo(idRef(), Int32(-1)), false},
		{"gt within bounds", GreaterThan(idRef(), Int32(4)), true},
		{"gt excludes when upper not greater", GreaterThan(idRef(), Int32(9)), false},
		{"lt within bounds", LessThan(idRef(), Int32(5)), true},
		{"lt excludes when lower not less", LessThan(idRef(), Int32(0)), false},
		{"in set hits range", In(idRef(), Int32(3), Int32(100)), true},
		{"in set all outside range", In(idRef(), Int32(100), Int32(200)), false},
		{"not eq conservative true", NotEqualTo(idRef(), Int32(5)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvalMetrics(tt.pred, stats)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalMetrics_IsNull(t *testing.T) {
	withNulls := fakeStats{valueCounts: map[int]int64{idCol: 10}, nullCounts: map[int]int64{idCol: 2}}
	noNulls := fakeStats{valueCounts: map[int]int64{idCol: 10}, nullCounts: map[int]int64{idCol: 0}}

	got, err := EvalMetrics(IsNull(idRef()), withNulls)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = EvalMetrics(IsNull(idRef()), noNulls)
	require.NoError(t, err)
	assert.False(t, got)

	got, err = EvalMetrics(NotNull(idRef()), noNulls)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvalMetrics_MissingBoundsIsConservative(t *testing.T) {
	stats := fakeStats{}
	got, err := EvalMetrics(EqualTo(idRef(), Int32(5)), stats)
	require.NoError(t, err)
	assert.True(t, got, "missing bounds must never prune a file")
}

func TestEvalMetrics_AndOrPushDownNot(t *testing.T) {
	stats := fakeStats{
		valueCounts: map[int]int64{idCol: 10},
		lowers:      map[int]any{idCol: int32(0)},
		uppers:      map[int]any{idCol: int32(9)},
	}

	and := NewAnd(GreaterThan(idRef(), Int32(4)), LessThan(idRef(), Int32(100)))
	got, err := EvalMetrics(and, stats)
	require.NoError(t, err)
	assert.True(t, got)

	notOutside := Not{Child: GreaterThanOrEqual(idRef(), Int32(0))}
	got, err = EvalMetrics(notOutside, stats)
	require.NoError(t, err)
	assert.False(t, got, "NOT(id >= 0) rewrites to id < 0, which the [0,9] bounds rule out")
}

func TestPushDownNot_DeMorgan(t *testing.T) {
	p := Not{Child: NewAnd(EqualTo(idRef(), Int32(1)), EqualTo(idRef(), Int32(2)))}
	rewritten := PushDownNot(p)
	or, ok := rewritten.(Or)
	require.True(t, ok, "NOT(A AND B) must rewrite to (NOT A) OR (NOT B)")
	_, ok = or.Left.(LiteralPredicate)
	assert.True(t, ok)
}
