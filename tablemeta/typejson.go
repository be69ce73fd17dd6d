package tablemeta

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/marmotdata/icecore/schema"
)

// typeToWire renders a schema.Type as the table-format's JSON type
// representation: a bare string for primitives ("int", "string",
// "decimal(9,2)", "fixed[16]", …) or a nested object for struct/list/
// map, matching spec.md §6's hyphenated-wire-name convention.
func typeToWire(t schema.Type) (any, error) {
	switch n := t.(type) {
	case schema.PrimitiveType:
		switch n.Kind {
		case schema.KindDecimal:
			return fmt.Sprintf("decimal(%d,%d)", n.Precision, n.Scale), nil
		case schema.KindFixed:
			return fmt.Sprintf("fixed[%d]", n.Length), nil
		default:
			return string(n.Kind), nil
		}
	case *schema.StructType:
		fields := make([]any, len(n.Fields))
		for i, f := range n.Fields {
			wt, err := typeToWire(f.Type)
			if err != nil {
				return nil, err
			}
			m := map[string]any{
				"id":       f.ID,
				"name":     f.Name,
				"required": f.Required,
				"type":     wt,
			}
			if f.Doc != "" {
				m["doc"] = f.Doc
			}
			fields[i] = m
		}
		return map[string]any{"type": "struct", "fields": fields}, nil
	case *schema.ListType:
		wt, err := typeToWire(n.Element)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"type":             "list",
			"element-id":       n.ElementID,
			"element":          wt,
			"element-required": n.ElementRequired,
		}, nil
	case *schema.MapType:
		kt, err := typeToWire(n.Key)
		if err != nil {
			return nil, err
		}
		vt, err := typeToWire(n.Value)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"type":           "map",
			"key-id":         n.KeyID,
			"key":            kt,
			"value-id":       n.ValueID,
			"value":          vt,
			"value-required": n.ValueRequired,
		}, nil
	default:
		return nil, fmt.Errorf("tablemeta: unrecognized type %T", t)
	}
}

func wireToType(v any) (schema.Type, error) {
	switch n := v.(type) {
	case string:
		return parsePrimitiveWire(n)
	case map[string]any:
		kind, _ := n["type"].(string)
		switch kind {
		case "struct":
			rawFields, _ := n["fields"].([]any)
			fields := make([]*schema.NestedField, len(rawFields))
			for i, rf := range rawFields {
				fm, ok := rf.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("tablemeta: malformed struct field at index %d", i)
				}
				ft, err := wireToType(fm["type"])
				if err != nil {
					return nil, err
				}
				doc, _ := fm["doc"].(string)
				fields[i] = &schema.NestedField{
					ID:       int(asFloat(fm["id"])),
					Name:     asString(fm["name"]),
					Type:     ft,
					Required: asBool(fm["required"]),
					Doc:      doc,
				}
			}
			return &schema.StructType{Fields: fields}, nil
		case "list":
			et, err := wireToType(n["element"])
			if err != nil {
				return nil, err
			}
			return &schema.ListType{
				ElementID:       int(asFloat(n["element-id"])),
				Element:         et,
				ElementRequired: asBool(n["element-required"]),
			}, nil
		case "map":
			kt, err := wireToType(n["key"])
			if err != nil {
				return nil, err
			}
			vt, err := wireToType(n["value"])
			if err != nil {
				return nil, err
			}
			return &schema.MapType{
				KeyID:         int(asFloat(n["key-id"])),
				Key:           kt,
				ValueID:       int(asFloat(n["value-id"])),
				Value:         vt,
				ValueRequired: asBool(n["value-required"]),
			}, nil
		default:
			return nil, fmt.Errorf("tablemeta: unrecognized nested type %q", kind)
		}
	default:
		return nil, fmt.Errorf("tablemeta: unrecognized type encoding %T", v)
	}
}

func parsePrimitiveWire(s string) (schema.Type, error) {
	switch {
	case strings.HasPrefix(s, "decimal(") && strings.HasSuffix(s, ")"):
		inner := strings.TrimSuffix(strings.TrimPrefix(s, "decimal("), ")")
		parts := strings.SplitN(inner, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("tablemeta: invalid decimal type %q", s)
		}
		p, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		sc, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("tablemeta: invalid decimal type %q", s)
		}
		return schema.Decimal(p, sc), nil
	case strings.HasPrefix(s, "fixed[") && strings.HasSuffix(s, "]"):
		inner := strings.TrimSuffix(strings.TrimPrefix(s, "fixed["), "]")
		n, err := strconv.Atoi(inner)
		if err != nil {
			return nil, fmt.Errorf("tablemeta: invalid fixed type %q", s)
		}
		return schema.Fixed(n), nil
	default:
		return schema.PrimitiveType{Kind: schema.Kind(s)}, nil
	}
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}
func asString(v any) string {
	s, _ := v.(string)
	return s
}
func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}
