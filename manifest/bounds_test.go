package manifest

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmotdata/icecore/schema"
)

func le32(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func le64(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}

func TestDecodeBound_Int(t *testing.T) {
	v, err := DecodeBound(schema.Int(), le32(-42))
	require.NoError(t, err)
	assert.Equal(t, int32(-42), v)
}

func TestDecodeBound_Long(t *testing.T) {
	v, err := DecodeBound(schema.Long(), le64(1<<40))
	require.NoError(t, err)
	assert.Equal(t, int64(1<<40), v)
}

func TestDecodeBound_Float(t *testing.T) {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(3.5))
	v, err := DecodeBound(schema.Float32(), b)
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), v)
}

func TestDecodeBound_Timestamp(t *testing.T) {
	want := time.UnixMicro(1_700_000_000_000_000).UTC()
	v, err := DecodeBound(schema.Timestamp(), le64(1_700_000_000_000_000))
	require.NoError(t, err)
	assert.True(t, want.Equal(v.(time.Time)))
}

func TestDecodeBound_String(t *testing.T) {
	v, err := DecodeBound(schema.String(), []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}

func TestDecodeBound_DecimalPositiveAndNegative(t *testing.T) {
	typ := schema.Decimal(10, 2)

	// 12345 unscaled, scale 2 -> 123.45, encoded as two's-complement big-endian.
	v, err := DecodeBound(typ, []byte{0x30, 0x39})
	require.NoError(t, err)
	assert.True(t, v.(decimal.Decimal).Equal(decimal.New(12345, -2)))

	// -1 unscaled, one byte two's complement is 0xFF.
	v, err = DecodeBound(typ, []byte{0xFF})
	require.NoError(t, err)
	assert.True(t, v.(decimal.Decimal).Equal(decimal.New(-1, -2)))
}

func TestDecodeBound_ShortDataIsError(t *testing.T) {
	_, err := DecodeBound(schema.Int(), []byte{0x01})
	assert.Error(t, err)
}

func TestDecodeBound_NonPrimitiveIsError(t *testing.T) {
	_, err := DecodeBound(&schema.StructType{}, []byte{0x01})
	assert.Error(t, err)
}
