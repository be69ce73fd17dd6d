// Package arrowschema converts a schema.Schema into an Arrow schema,
// the boundary the core hands off to the out-of-scope columnar reader
// (spec.md §1 "format conversion to columnar result tables").
package arrowschema

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/marmotdata/icecore/schema"
)

// Convert maps sch's root struct to an *arrow.Schema, one arrow.Field
// per top-level column. Field IDs are preserved as Arrow field
// metadata ("PARQUET:field_id") so a downstream Parquet reader can
// still match columns by stable ID rather than position.
func Convert(sch *schema.Schema) (*arrow.Schema, error) {
	fields, err := structFields(sch.Root)
	if err != nil {
		return nil, err
	}
	return arrow.NewSchema(fields, nil), nil
}

func structFields(s *schema.StructType) ([]arrow.Field, error) {
	fields := make([]arrow.Field, len(s.Fields))
	for i, f := range s.Fields {
		af, err := convertField(f)
		if err != nil {
			return nil, err
		}
		fields[i] = af
	}
	return fields, nil
}

func convertField(f *schema.NestedField) (arrow.Field, error) {
	dt, err := convertType(f.Type)
	if err != nil {
		return arrow.Field{}, fmt.Errorf("arrowschema: field %q: %w", f.Name, err)
	}
	return arrow.Field{
		Name:     f.Name,
		Type:     dt,
		Nullable: !f.Required,
		Metadata: arrow.NewMetadata([]string{"PARQUET:field_id"}, []string{fmt.Sprint(f.ID)}),
	}, nil
}

func convertType(t schema.Type) (arrow.DataType, error) {
	switch v := t.(type) {
	case schema.PrimitiveType:
		return convertPrimitive(v)
	case *schema.StructType:
		fields, err := structFields(v)
		if err != nil {
			return nil, err
		}
		return arrow.StructOf(fields...), nil
	case *schema.ListType:
		elemField, err := convertField(v.ElementField())
		if err != nil {
			return nil, err
		}
		return arrow.ListOfField(elemField), nil
	case *schema.MapType:
		keyType, err := convertType(v.Key)
		if err != nil {
			return nil, err
		}
		valType, err := convertType(v.Value)
		if err != nil {
			return nil, err
		}
		return arrow.MapOf(keyType, valType), nil
	default:
		return nil, fmt.Errorf("arrowschema: unsupported type %T", t)
	}
}

func convertPrimitive(p schema.PrimitiveType) (arrow.DataType, error) {
	switch p.Kind {
	case schema.KindBoolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case schema.KindInt:
		return arrow.PrimitiveTypes.Int32, nil
	case schema.KindLong:
		return arrow.PrimitiveTypes.Int64, nil
	case schema.KindFloat:
		return arrow.PrimitiveTypes.Float32, nil
	case schema.KindDouble:
		return arrow.PrimitiveTypes.Float64, nil
	case schema.KindDecimal:
		return &arrow.Decimal128Type{Precision: int32(p.Precision), Scale: int32(p.Scale)}, nil
	case schema.KindDate:
		return arrow.FixedWidthTypes.Date32, nil
	case schema.KindTime:
		return arrow.FixedWidthTypes.Time64us, nil
	case schema.KindTimestamp:
		return &arrow.TimestampType{Unit: arrow.Microsecond}, nil
	case schema.KindTimestampTz:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}, nil
	case schema.KindString:
		return arrow.BinaryTypes.String, nil
	case schema.KindUUID:
		return &arrow.FixedSizeBinaryType{ByteWidth: 16}, nil
	case schema.KindFixed:
		return &arrow.FixedSizeBinaryType{ByteWidth: p.Length}, nil
	case schema.KindBinary:
		return arrow.BinaryTypes.Binary, nil
	default:
		return nil, fmt.Errorf("arrowschema: unsupported primitive kind %q", p.Kind)
	}
}
