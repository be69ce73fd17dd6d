package schema

import "strings"

// Schema is a versioned, field-ID-stable row type: a root struct plus
// the subset of its leaf field IDs that together identify a row.
type Schema struct {
	ID                 int
	Root               *StructType
	IdentifierFieldIDs map[int]struct{}
}

// NewSchema builds a schema from a root struct and an optional set of
// identifier field IDs.
func NewSchema(id int, root *StructType, identifierFieldIDs ...int) *Schema {
	ids := make(map[int]struct{}, len(identifierFieldIDs))
	for _, i := range identifierFieldIDs {
		ids[i] = struct{}{}
	}
	return &Schema{ID: id, Root: root, IdentifierFieldIDs: ids}
}

// AsStruct returns the schema's row type as a StructType.
func (s *Schema) AsStruct() *StructType { return s.Root }

// HighestFieldID returns the largest field ID present anywhere in the
// schema tree, used as the starting point for allocating new IDs.
func (s *Schema) HighestFieldID() int {
	max := 0
	Visit(s.Root, maxIDVisitor{&max})
	return max
}

type maxIDVisitor struct{ max *int }

func (v maxIDVisitor) Schema(_ *Schema, result int) int { return result }
func (v maxIDVisitor) Struct(_ *StructType, fieldResults []int) int {
	r := 0
	for _, f := range fieldResults {
		if f > r {
			r = f
		}
	}
	return r
}
func (v maxIDVisitor) Field(field *NestedField, fieldResult int) int {
	if field.ID > *v.max {
		*v.max = field.ID
	}
	if fieldResult > *v.max {
		*v.max = fieldResult
	}
	return *v.max
}
func (v maxIDVisitor) List(list *ListType, elemResult int) int {
	if list.ElementID > *v.max {
		*v.max = list.ElementID
	}
	return elemResult
}
func (v maxIDVisitor) Map(m *MapType, keyResult, valResult int) int {
	if m.KeyID > *v.max {
		*v.max = m.KeyID
	}
	if m.ValueID > *v.max {
		*v.max = m.ValueID
	}
	return valResult
}
func (v maxIDVisitor) Primitive(_ PrimitiveType) int { return *v.max }

// FindField resolves a dotted path (e.g. "address.city") to the field
// at the end of it. When caseSensitive is false, name segments are
// compared case-insensithvely.
func (s *Schema) FindField(name string, caseSensitive bool) *NestedField {
	parts := strings.Split(name, ".")
	cur := s.Root
	var field *NestedField
	for i, part := range parts {
		if cur == nil {
			return nil
		}
		field = findInStruct(cur, part, caseSensitive)
		if field == nil {
			return nil
		}
		if i == len(parts)-1 {
			return field
		}
		cur = structOf(field.Type)
	}
	return field
}

// FindFieldByID looks up a field anywhere in the tree by stable ID.
func (s *Schema) FindFieldByID(id int) *NestedField {
	var found *NestedField
	Visit(s.Root, findIDVisitor{id, &found})
	return found
}

type findIDVisitor struct {
	id    int
	found **NestedField
}

func (v findIDVisitor) Schema(_ *Schema, result bool) bool { return result }
func (v findIDVisitor) Struct(_ *StructType, fieldResults []bool) bool {
	for _, r := range fieldResults {
		if r {
			return true
		}
	}
	return false
}
func (v findIDVisitor) Field(field *NestedField, fieldResult bool) bool {
	if field.ID == v.id {
		*v.found = field
		return true
	}
	return fieldResult
}
func (v findIDVisitor) List(list *ListType, elemResult bool) bool {
	if list.ElementID == v.id {
		*v.found = list.ElementField()
		return true
	}
	return elemResult
}
func (v findIDVisitor) Map(m *MapType, keyResult, valResult bool) bool {
	if m.KeyID == v.id {
		*v.found = m.KeyField()
		return true
	}
	if m.ValueID == v.id {
		*v.found = m.ValueField()
		return true
	}
	return keyResult || valResult
}
func (v findIDVisitor) Primitive(_ PrimitiveType) bool { return false }

func findInStruct(s *StructType, name string, caseSensitive bool) *NestedField {
	for _, f := range s.Fields {
		if caseSensitive {
			if f.Name == name {
				return f
			}
		} else if strings.EqualFold(f.Name, name) {
			return f
		}
	}
	return nil
}

func structOf(t Type) *StructType {
	if st, ok := t.(*StructType); ok {
		return st
	}
	return nil
}
