package expr

import "github.com/marmotdata/icecore/schema"

// Reference is an unbound, by-name column reference as it appears in
// a freshly parsed or hand-built predicate.
type Reference struct {
	Name string
}

// BoundReference is a reference resolved against a schema: it carries
// the stable field ID and the field's type so evaluators never need
// to re-resolve names.
type BoundReference struct {
	FieldID int
	Name    string
	Type    schema.Type
}
