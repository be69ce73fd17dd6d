package manifest

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marmotdata/icecore/schema"
)

// DecodeBound decodes a manifest entry's single-value serialized
// lower/upper bound into the Go representation matching t, the
// representation expr.Compare and the evaluators operate on.
func DecodeBound(t schema.Type, data []byte) (any, error) {
	prim, ok := t.(schema.PrimitiveType)
	if !ok {
		return nil, fmt.Errorf("manifest: cannot decode bound for non-primitive type %s", t)
	}
	switch prim.Kind {
	case schema.KindBoolean:
		if len(data) < 1 {
			return nil, fmt.Errorf("manifest: short boolean bound")
		}
		return data[0] != 0, nil
	case schema.KindInt, schema.KindDate:
		if len(data) < 4 {
			return nil, fmt.Errorf("manifest: short int bound")
		}
		return int32(binary.LittleEndian.Uint32(data)), nil
	case schema.KindLong, schema.KindTime, schema.KindTimestamp, schema.KindTimestampTz:
		if len(data) < 8 {
			return nil, fmt.Errorf("manifest: short long bound")
		}
		v := int64(binary.LittleEndian.Uint64(data))
		if prim.Kind == schema.KindTimestamp || prim.Kind == schema.KindTimestampTz {
			return time.UnixMicro(v).UTC(), nil
		}
		return v, nil
	case schema.KindFloat:
		if len(data) < 4 {
			return nil, fmt.Errorf("manifest: short float bound")
		}
		return math.Float32frombits(binary.LittleEndian.Uint32(data)), nil
	case schema.KindDouble:
		if len(data) < 8 {
			return nil, fmt.Errorf("manifest: short double bound")
		}
		return math.Float64frombits(binary.LittleEndian.Uint64(data)), nil
	case schema.KindString:
		return string(data), nil
	case schema.KindUUID, schema.KindFixed, schema.KindBinary:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	case schema.KindDecimal:
		unscaled := new(big.Int).SetBytes(data)
		if len(data) > 0 && data[0]&0x80 != 0 {
			// Two's complement negative: subtract 2^(8*len(data)).
			full := new(big.Int).Lsh(big.NewInt(1), uint(8*len(data)))
			unscaled.Sub(unscaled, full)
		}
		return decimal.NewFromBigInt(unscaled, int32(-prim.Scale)), nil
	default:
		return nil, fmt.Errorf("manifest: unsupported bound type %s", t)
	}
}
