// Package schema models the nested, field-ID-stable schema tree used
// throughout icecore: primitive and nested types, fields, and the
// schema itself.
package schema

import "fmt"

// Kind identifies a primitive type.
type Kind string

const (
	KindBoolean     Kind = "boolean"
	KindInt         Kind = "int"
	KindLong        Kind = "long"
	KindFloat       Kind = "float"
	KindDouble      Kind = "double"
	KindDecimal     Kind = "decimal"
	KindDate        Kind = "date"
	KindTime        Kind = "time"
	KindTimestamp   Kind = "timestamp"
	KindTimestampTz Kind = "timestamptz"
	KindString      Kind = "string"
	KindUUID        Kind = "uuid"
	KindFixed       Kind = "fixed"
	KindBinary      Kind = "binary"
)

// Type is implemented by every primitive and nested type.
type Type interface {
	String() string
	IsStruct() bool
	isType()
}

// PrimitiveType is a scalar type. Decimal carries precision/scale,
// fixed carries a byte length; all other kinds ignore those fields.
type PrimitiveType struct {
	Kind      Kind
	Precision int
	Scale     int
	Length    int
}

func (p PrimitiveType) isType() {}

func (p PrimitiveType) IsStruct() bool { return false }

func (p PrimitiveType) String() string {
	switch p.Kind {
	case KindDecimal:
		return fmt.Sprintf("decimal(%d,%d)", p.Precision, p.Scale)
	case KindFixed:
		return fmt.Sprintf("fixed(%d)", p.Length)
	default:
		return string(p.Kind)
	}
}

func Boolean() PrimitiveType   { return PrimitiveType{Kind: KindBoolean} }
func Int() PrimitiveType       { return PrimitiveType{Kind: KindInt} }
func Long() PrimitiveType      { return PrimitiveType{Kind: KindLong} }
func Float32() PrimitiveType { return PrimitiveType{Kind: KindFloat} }
func Float64() PrimitiveType { return PrimitiveType{Kind: KindDouble} }
func Decimal(precision, scale int) PrimitiveType {
	return PrimitiveType{Kind: KindDecimal, Precision: precision, Scale: scale}
}
func Date() PrimitiveType        { return PrimitiveType{Kind: KindDate} }
func Time() PrimitiveType        { return PrimitiveType{Kind: KindTime} }
func Timestamp() PrimitiveType   { return PrimitiveType{Kind: KindTimestamp} }
func TimestampTz() PrimitiveType { return PrimitiveType{Kind: KindTimestampTz} }
func String() PrimitiveType      { return PrimitiveType{Kind: KindString} }
func UUID() PrimitiveType        { return PrimitiveType{Kind: KindUUID} }
func Fixed(length int) PrimitiveType {
	return PrimitiveType{Kind: KindFixed, Length: length}
}
func Binary() PrimitiveType { return PrimitiveType{Kind: KindBinary} }

// IsNumeric reports whether the primitive participates in safe
// promotions and ordered comparisons the way numeric types do.
func (p PrimitiveType) IsNumeric() bool {
	switch p.Kind {
	case KindInt, KindLong, KindFloat, KindDouble, KindDecimal:
		return true
	default:
		return false
	}
}

// NestedField is one field in a struct, list element, or map
// key/value. ID is stable across renames and reorders.
type NestedField struct {
	ID       int
	Name     string
	Type     Type
	Required bool
	Doc      string
}

func (f *NestedField) Optional() bool { return !f.Required }

// StructType is an ordered, named collection of fields.
type StructType struct {
	Fields []*NestedField
}

func (s *StructType) isType()       {}
func (s *StructType) IsStruct() bool { return true }

func (s *StructType) String() string {
	return fmt.Sprintf("struct<%d fields>", len(s.Fields))
}

// FieldByID returns the direct child field with the given ID, or nil.
func (s *StructType) FieldByID(id int) *NestedField {
	for _, f := range s.Fields {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// ListType describes a homogeneous list; the element is itself a
// field so it carries its own ID and requiredness.
type ListType struct {
	ElementID       int
	Element         Type
	ElementRequired bool
}

func (l *ListType) isType()       {}
func (l *ListType) IsStruct() bool { return false }
func (l *ListType) String() string { return fmt.Sprintf("list<%s>", l.Element) }

// ElementField materializes the list element as a NestedField so it
// can be walked uniformly by FindField / visitors.
func (l *ListType) ElementField() *NestedField {
	return &NestedField{ID: l.ElementID, Name: "element", Type: l.Element, Required: l.ElementRequired}
}

// MapType describes key/value pairs; keys are always required and
// immutable (never addressable by dotted path, never alterable by
// the schema-evolution builder).
type MapType struct {
	KeyID         int
	Key           Type
	ValueID       int
	Value         Type
	ValueRequired bool
}

func (m *MapType) isType()       {}
func (m *MapType) IsStruct() bool { return false }
func (m *MapType) String() string { return fmt.Sprintf("map<%s,%s>", m.Key, m.Value) }

func (m *MapType) KeyField() *NestedField {
	return &NestedField{ID: m.KeyID, Name: "key", Type: m.Key, Required: true}
}

func (m *MapType) ValueField() *NestedField {
	return &NestedField{ID: m.ValueID, Name: "value", Type: m.Value, Required: m.ValueRequired}
}
