package schema

import "fmt"

// Select builds the projected schema for a set of dotted field paths
// ("*" or a nil/empty list selects every field), by field-ID
// intersection with sch — the projection a scan attaches to its
// tasks without changing the schema evaluators bind against.
func Select(sch *Schema, paths []string, caseSensitive bool) (*Schema, error) {
	if len(paths) == 0 {
		return sch, nil
	}
	for _, p := range paths {
		if p == "*" {
			return sch, nil
		}
	}

	keep := map[int]bool{}
	for _, p := range paths {
		f := sch.FindField(p, caseSensitive)
		if f == nil {
			return nil, fmt.Errorf("schema: unknown projected field %q", p)
		}
		keep[f.ID] = true
	}

	root := filterStruct(sch.Root, keep)
	return NewSchema(sch.ID, root, identifierIDsIn(sch, keep)...), nil
}

func filterStruct(s *StructType, keep map[int]bool) *StructType {
	var fields []*NestedField
	for _, f := range s.Fields {
		if !keep[f.ID] {
			if st, ok := f.Type.(*StructType); ok {
				if sub := filterStruct(st, keep); len(sub.Fields) > 0 {
					fields = append(fields, &NestedField{ID: f.ID, Name: f.Name, Type: sub, Required: f.Required, Doc: f.Doc})
				}
			}
			continue
		}
		fields = append(fields, &NestedField{ID: f.ID, Name: f.Name, Type: f.Type, Required: f.Required, Doc: f.Doc})
	}
	return &StructType{Fields: fields}
}

func identifierIDsIn(sch *Schema, keep map[int]bool) []int {
	var ids []int
	for id := range sch.IdentifierFieldIDs {
		if keep[id] {
			ids = append(ids, id)
		}
	}
	return ids
}
