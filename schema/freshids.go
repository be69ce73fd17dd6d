package schema

// AssignTypeIDs returns a copy of t with every nested field assigned a
// new ID drawn from next, preserving structure; old2new collects the
// old->new ID translation as a side effect (pass a non-nil map to
// observe it, e.g. to translate identifier-field IDs afterward). It is
// the shared allocator behind AssignFreshIDs and the schema-evolution
// builder's add_column, which grafts a user-provided type into the
// schema's own ID space.
func AssignTypeIDs(t Type, next func() int, old2new map[int]int) Type {
	var assign func(t Type) Type
	assign = func(t Type) Type {
		switch n := t.(type) {
		case *StructType:
			fields := make([]*NestedField, len(n.Fields))
			for i, f := range n.Fields {
				id := next()
				if old2new != nil {
					old2new[f.ID] = id
				}
				fields[i] = &NestedField{
					ID:       id,
					Name:     f.Name,
					Type:     assign(f.Type),
					Required: f.Required,
					Doc:      f.Doc,
				}
			}
			return &StructType{Fields: fields}
		case *ListType:
			elemID := next()
			if old2new != nil {
				old2new[n.ElementID] = elemID
			}
			return &ListType{ElementID: elemID, Element: assign(n.Element), ElementRequired: n.ElementRequired}
		case *MapType:
			keyID := next()
			if old2new != nil {
				old2new[n.KeyID] = keyID
			}
			valID := next()
			if old2new != nil {
				old2new[n.ValueID] = valID
			}
			return &MapType{KeyID: keyID, Key: assign(n.Key), ValueID: valID, Value: assign(n.Value), ValueRequired: n.ValueRequired}
		default:
			return t
		}
	}
	return assign(t)
}

// AssignFreshIDs returns a copy of src with every field assigned a
// new, densely increasing ID starting at 1, preserving structure and
// the identifier-field set (translated to the new IDs). It is used
// when adopting an externally authored schema (e.g. from a Parquet or
// Avro file) into a table that owns its own field-ID numbering.
func AssignFreshIDs(src *Schema) *Schema {
	next := 1
	old2new := map[int]int{}
	counter := func() int {
		id := next
		next++
		return id
	}

	newRoot := AssignTypeIDs(src.Root, counter, old2new).(*StructType)

	newIdentifiers := make([]int, 0, len(src.IdentifierFieldIDs))
	for oldID := range src.IdentifierFieldIDs {
		if newID, ok := old2new[oldID]; ok {
			newIdentifiers = append(newIdentifiers, newID)
		}
	}
	return NewSchema(src.ID, newRoot, newIdentifiers...)
}
