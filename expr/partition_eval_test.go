package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTuple is a minimal PartitionTuple backed by a map.
type fakeTuple struct {
	values map[int]any
}

func (f fakeTuple) Value(id int) (any, bool) {
	v, ok := f.values[id]
	return v, ok
}

func TestEvalPartition_Literal(t *testing.T) {
	tuple := fakeTuple{values: map[int]any{idCol: int32(5)}}

	tests := []struct {
		name string
		pred Predicate
		want bool
	}{
		{"eq match", EqualTo(idRef(), Int32(5)), true},
		{"eq mismatch", EqualTo(idRef(), Int32(6)), false},
		{"ne match", NotEqualTo(idRef(), Int32(6)), true},
		{"lt true", LessThan(idRef(), Int32(6)), true},
		{"lt false", LessThan(idRef(), Int32(5)), false},
		{"gte true", GreaterThanOrEqual(idRef(), Int32(5)), true},
		{"in hit", In(idRef(), Int32(1), Int32(5)), true},
		{"not in hit", NotIn(idRef(), Int32(1), Int32(5)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvalPartition(tt.pred, tuple)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalPartition_NullValue(t *testing.T) {
	tuple := fakeTuple{values: map[int]any{idCol: nil}}

	got, err := EvalPartition(IsNull(idRef()), tuple)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = EvalPartition(EqualTo(idRef(), Int32(5)), tuple)
	require.NoError(t, err)
	assert.False(t, got, "a null partition value can never equal a literal")
}

func TestEvalPartition_AbsentValue(t *testing.T) {
	tuple := fakeTuple{values: map[int]any{}}

	got, err := EvalPartition(IsNull(idRef()), tuple)
	require.NoError(t, err)
	assert.True(t, got, "an absent partition value is treated as null")
}

func TestEvalPartition_AndOr(t *testing.T) {
	tuple := fakeTuple{values: map[int]any{idCol: int32(5)}}

	and := NewAnd(GreaterThan(idRef(), Int32(0)), LessThan(idRef(), Int32(10)))
	got, err := EvalPartition(and, tuple)
	require.NoError(t, err)
	assert.True(t, got)

	or := NewOr(EqualTo(idRef(), Int32(1)), EqualTo(idRef(), Int32(5)))
	got, err = EvalPartition(or, tuple)
	require.NoError(t, err)
	assert.True(t, got)
}
