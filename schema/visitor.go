package schema

// Visitor folds a schema tree bottom-up into a result of type T,
// mirroring pyiceberg's visitor-based schema traversal.
type Visitor[T any] interface {
	Struct(s *StructType, fieldResults []T) T
	Field(field *NestedField, fieldResult T) T
	List(list *ListType, elementResult T) T
	Map(m *MapType, keyResult, valueResult T) T
	Primitive(p PrimitiveType) T
}

// Visit walks t bottom-up, invoking the matching Visitor method for
// every node and threading results upward.
func Visit[T any](t Type, v Visitor[T]) T {
	switch n := t.(type) {
	case *StructType:
		results := make([]T, len(n.Fields))
		for i, f := range n.Fields {
			results[i] = v.Field(f, Visit(f.Type, v))
		}
		return v.Struct(n, results)
	case *ListType:
		elem := v.Field(n.ElementField(), Visit(n.Element, v))
		return v.List(n, elem)
	case *MapType:
		key := v.Field(n.KeyField(), Visit(n.Key, v))
		val := v.Field(n.ValueField(), Visit(n.Value, v))
		return v.Map(n, key, val)
	case PrimitiveType:
		return v.Primitive(n)
	default:
		var zero T
		return zero
	}
}

// VisitSchema visits the schema's root struct, then folds the result
// through the visitor's Schema-level combinator when present.
func VisitSchema[T any](s *Schema, v SchemaVisitor[T]) T {
	return v.Schema(s, Visit(s.Root, v))
}

// SchemaVisitor extends Visitor with a schema-level combinator for
// algorithms that need the owning Schema (e.g. to consult
// IdentifierFieldIDs) rather than just its root struct.
type SchemaVisitor[T any] interface {
	Visitor[T]
	Schema(s *Schema, structResult T) T
}
