package partition

import "github.com/marmotdata/icecore/schema"

// Field is one column of a partition spec: the source field it
// derives from, the transform applied, the stable partition field
// ID, and the name used in partition value maps.
type Field struct {
	SourceID      int
	FieldID       int
	Name          string
	Transform     Transform
}

// Spec is a versioned partition spec. Specs are addressed by ID and
// never mutated once a data file references them.
type Spec struct {
	ID     int
	Fields []*Field
}

// Unpartitioned returns the spec used for tables with no partitioning.
func Unpartitioned() *Spec {
	return &Spec{ID: 0, Fields: nil}
}

// FieldByID returns the partition field with the given stable ID.
func (s *Spec) FieldByID(id int) *Field {
	for _, f := range s.Fields {
		if f.FieldID == id {
			return f
		}
	}
	return nil
}

// PartitionType builds the struct type of a partition tuple produced
// by this spec, given the table schema the source fields resolve
// against.
func (s *Spec) PartitionType(tableSchema *schema.Schema) *schema.StructType {
	fields := make([]*schema.NestedField, len(s.Fields))
	for i, pf := range s.Fields {
		src := tableSchema.FindFieldByID(pf.SourceID)
		var srcType schema.Type = schema.String()
		if src != nil {
			srcType = src.Type
		}
		fields[i] = &schema.NestedField{
			ID:       pf.FieldID,
			Name:     pf.Name,
			Type:     pf.Transform.ResultType(srcType),
			Required: false,
		}
	}
	return &schema.StructType{Fields: fields}
}

// IsUnpartitioned reports whether the spec has no partition fields.
func (s *Spec) IsUnpartitioned() bool { return len(s.Fields) == 0 }
