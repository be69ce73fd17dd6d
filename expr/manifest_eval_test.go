package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSummaries is a minimal PartitionSummaries backed by maps.
type fakeSummaries struct {
	nulls   map[int]bool
	nans    map[int]bool
	nansOK  map[int]bool
	lowers  map[int]any
	uppers  map[int]any
}

func (f fakeSummaries) ContainsNull(id int) bool { return f.nulls[id] }
func (f fakeSummaries) ContainsNaN(id int) (bool, bool) {
	ok, known := f.nansOK[id]
	return f.nans[id], ok && known
}
func (f fakeSummaries) LowerBound(id int) (any, bool) { v, ok := f.lowers[id]; return v, ok }
func (f fakeSummaries) UpperBound(id int) (any, bool) { v, ok := f.uppers[id]; return v, ok }

func TestEvalManifest_Literal(t *testing.T) {
	summaries := fakeSummaries{
		lowers: map[int]any{idCol: int32(0)},
		uppers: map[int]any{idCol: int32(9)},
	}

	tests := []struct {
		name string
		pred Predicate
		want bool
	}{
		{"eq within range may match", EqualTo(idRef(), Int32(5)), true},
		{"eq above range cannot match", EqualTo(idRef(), Int32(100)), false},
		{"eq below range cannot match", EqualTo(idRef(), Int32(-1)), false},
		{"gt excludes when upper not greater", GreaterThan(idRef(), Int32(9)), false},
		{"gt may match", GreaterThan(idRef(), Int32(4)), true},
		{"lt excludes when lower not less", LessThan(idRef(), Int32(0)), false},
		{"in hits range", In(idRef(), Int32(3), Int32(200)), true},
		{"in all outside range", In(idRef(), Int32(100), Int32(200)), false},
		{"not_in always may match", NotIn(idRef(), Int32(5)), true},
		{"not_eq always may match", NotEqualTo(idRef(), Int32(5)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvalManifest(tt.pred, summaries)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalManifest_MissingBoundsIsConservative(t *testing.T) {
	got, err := EvalManifest(EqualTo(idRef(), Int32(5)), fakeSummaries{})
	require.NoError(t, err)
	assert.True(t, got, "missing summaries must never prune a manifest")
}

func TestEvalManifest_IsNull(t *testing.T) {
	withNulls := fakeSummaries{nulls: map[int]bool{idCol: true}}
	noNulls := fakeSummaries{nulls: map[int]bool{idCol: false}}

	got, err := EvalManifest(IsNull(idRef()), withNulls)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = EvalManifest(IsNull(idRef()), noNulls)
	require.NoError(t, err)
	assert.False(t, got)

	got, err = EvalManifest(NotNull(idRef()), noNulls)
	require.NoError(t, err)
	assert.True(t, got, "not_null is always conservatively true for a manifest summary")
}

func TestEvalManifest_NotPushedDown(t *testing.T) {
	summaries := fakeSummaries{
		lowers: map[int]any{idCol: int32(0)},
		uppers: map[int]any{idCol: int32(9)},
	}
	// NOT(id > 9) rewrites via De Morgan to (id <= 9), which the [0,9]
	// bounds allow, so the manifest may still match.
	p := NewNot(GreaterThan(idRef(), Int32(9)))
	got, err := EvalManifest(p, summaries)
	require.NoError(t, err)
	assert.True(t, got)
}
