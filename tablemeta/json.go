package tablemeta

import (
	"encoding/json"
	"fmt"

	"github.com/marmotdata/icecore/partition"
	"github.com/marmotdata/icecore/schema"
)

// MarshalJSON renders the metadata document with the format's
// hyphenated wire names (spec.md §6: "format-version",
// "last-column-id", "current-schema-id", "default-spec-id",
// "default-sort-order-id", "snapshots", "refs", "snapshot-log",
// "properties").
func (m *TableMetadata) MarshalJSON() ([]byte, error) {
	schemas := make([]any, len(m.Schemas))
	for i, s := range m.Schemas {
		ws, err := schemaToWire(s)
		if err != nil {
			return nil, err
		}
		schemas[i] = ws
	}

	specs := make([]any, len(m.PartitionSpecs))
	for i, p := range m.PartitionSpecs {
		specs[i] = specToWire(p)
	}

	orders := make([]any, len(m.SortOrders))
	for i, o := range m.SortOrders {
		orders[i] = sortOrderToWire(o)
	}

	snapshots := make([]any, len(m.Snapshots))
	for i, s := range m.Snapshots {
		snapshots[i] = snapshotToWire(s)
	}

	refs := map[string]any{}
	for name, r := range m.Refs {
		refs[name] = refToWire(r)
	}

	doc := map[string]any{
		"format-version":        m.FormatVersion,
		"table-uuid":            m.TableUUID,
		"location":              m.Location,
		"last-column-id":        m.LastColumnID,
		"last-updated-ms":       m.LastUpdatedMs,
		"schemas":               schemas,
		"current-schema-id":     m.CurrentSchemaID,
		"partition-specs":       specs,
		"default-spec-id":       m.DefaultSpecID,
		"last-partition-id":     m.LastPartitionID,
		"sort-orders":           orders,
		"default-sort-order-id": m.DefaultSortOrderID,
		"snapshots":             snapshots,
		"refs":                  refs,
		"properties":            m.Properties,
	}
	if m.CurrentSnapshotID != nil {
		doc["current-snapshot-id"] = *m.CurrentSnapshotID
	}
	logEntries := make([]any, len(m.SnapshotLog))
	for i, e := range m.SnapshotLog {
		logEntries[i] = map[string]any{"snapshot-id": e.SnapshotID, "timestamp-ms": e.TimestampMs}
	}
	doc["snapshot-log"] = logEntries

	return json.Marshal(doc)
}

// UnmarshalJSON parses a metadata document produced by MarshalJSON
// (or a conforming external writer).
func (m *TableMetadata) UnmarshalJSON(data []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("tablemeta: parse metadata JSON: %w", err)
	}

	m.FormatVersion = int(asFloat(doc["format-version"]))
	m.TableUUID = asString(doc["table-uuid"])
	m.Location = asString(doc["location"])
	m.LastColumnID = int(asFloat(doc["last-column-id"]))
	m.LastUpdatedMs = int64(asFloat(doc["last-updated-ms"]))
	m.CurrentSchemaID = int(asFloat(doc["current-schema-id"]))
	m.DefaultSpecID = int(asFloat(doc["default-spec-id"]))
	m.LastPartitionID = int(asFloat(doc["last-partition-id"]))
	m.DefaultSortOrderID = int(asFloat(doc["default-sort-order-id"]))
	m.Properties = toStringMap(doc["properties"])

	for _, raw := range asSlice(doc["schemas"]) {
		sm, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		s, err := schemaFromWire(sm)
		if err != nil {
			return err
		}
		m.Schemas = append(m.Schemas, s)
	}

	for _, raw := range asSlice(doc["partition-specs"]) {
		sm, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		m.PartitionSpecs = append(m.PartitionSpecs, specFromWire(sm))
	}

	for _, raw := range asSlice(doc["sort-orders"]) {
		sm, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		m.SortOrders = append(m.SortOrders, sortOrderFromWire(sm))
	}

	for _, raw := range asSlice(doc["snapshots"]) {
		sm, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		m.Snapshots = append(m.Snapshots, snapshotFromWire(sm))
	}

	m.Refs = map[string]*Ref{}
	if refsMap, ok := doc["refs"].(map[string]any); ok {
		for name, raw := range refsMap {
			rm, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			m.Refs[name] = refFromWire(name, rm)
		}
	}

	if v, ok := doc["current-snapshot-id"]; ok {
		id := int64(asFloat(v))
		m.CurrentSnapshotID = &id
	}

	for _, raw := range asSlice(doc["snapshot-log"]) {
		lm, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		m.SnapshotLog = append(m.SnapshotLog, SnapshotLogEntry{
			SnapshotID:  int64(asFloat(lm["snapshot-id"])),
			TimestampMs: int64(asFloat(lm["timestamp-ms"])),
		})
	}

	return nil
}

func schemaToWire(s *schema.Schema) (map[string]any, error) {
	wt, err := typeToWire(s.Root)
	if err != nil {
		return nil, err
	}
	structWire := wt.(map[string]any)
	ids := make([]int, 0, len(s.IdentifierFieldIDs))
	for id := range s.IdentifierFieldIDs {
		ids = append(ids, id)
	}
	structWire["schema-id"] = s.ID
	structWire["identifier-field-ids"] = ids
	return structWire, nil
}

func schemaFromWire(m map[string]any) (*schema.Schema, error) {
	t, err := wireToType(m)
	if err != nil {
		return nil, err
	}
	root, ok := t.(*schema.StructType)
	if !ok {
		return nil, fmt.Errorf("tablemeta: schema root is not a struct")
	}
	var ids []int
	for _, v := range asSlice(m["identifier-field-ids"]) {
		ids = append(ids, int(asFloat(v)))
	}
	return schema.NewSchema(int(asFloat(m["schema-id"])), root, ids...), nil
}

func specToWire(p *partition.Spec) map[string]any {
	fields := make([]any, len(p.Fields))
	for i, f := range p.Fields {
		fields[i] = map[string]any{
			"source-id": f.SourceID,
			"field-id":  f.FieldID,
			"name":      f.Name,
			"transform": f.Transform.Name(),
		}
	}
	return map[string]any{"spec-id": p.ID, "fields": fields}
}

func specFromWire(m map[string]any) *partition.Spec {
	var fields []*partition.Field
	for _, raw := range asSlice(m["fields"]) {
		fm, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		tr, err := partition.ParseTransform(asString(fm["transform"]))
		if err != nil {
			tr = partition.Identity{}
		}
		fields = append(fields, &partition.Field{
			SourceID:  int(asFloat(fm["source-id"])),
			FieldID:   int(asFloat(fm["field-id"])),
			Name:      asString(fm["name"]),
			Transform: tr,
		})
	}
	return &partition.Spec{ID: int(asFloat(m["spec-id"])), Fields: fields}
}

func sortOrderToWire(o *SortOrder) map[string]any {
	fields := make([]any, len(o.Fields))
	for i, f := range o.Fields {
		fields[i] = map[string]any{
			"source-id": f.SourceID,
			"transform": f.Transform.Name(),
			"direction": f.Direction,
			"null-order": f.NullOrder,
		}
	}
	return map[string]any{"order-id": o.OrderID, "fields": fields}
}

func sortOrderFromWire(m map[string]any) *SortOrder {
	var fields []SortField
	for _, raw := range asSlice(m["fields"]) {
		fm, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		tr, err := partition.ParseTransform(asString(fm["transform"]))
		if err != nil {
			tr = partition.Identity{}
		}
		fields = append(fields, SortField{
			SourceID:  int(asFloat(fm["source-id"])),
			Transform: tr,
			Direction: asString(fm["direction"]),
			NullOrder: asString(fm["null-order"]),
		})
	}
	return &SortOrder{OrderID: int(asFloat(m["order-id"])), Fields: fields}
}

func snapshotToWire(s *Snapshot) map[string]any {
	m := map[string]any{
		"snapshot-id":       s.SnapshotID,
		"sequence-number":   s.SequenceNumber,
		"manifest-list":     s.ManifestListURI,
		"summary":           s.Summary,
		"timestamp-ms":      s.TimestampMs,
	}
	if s.ParentSnapshotID != nil {
		m["parent-snapshot-id"] = *s.ParentSnapshotID
	}
	if s.SchemaID != nil {
		m["schema-id"] = *s.SchemaID
	}
	return m
}

func snapshotFromWire(m map[string]any) *Snapshot {
	s := &Snapshot{
		SnapshotID:      int64(asFloat(m["snapshot-id"])),
		SequenceNumber:  int64(asFloat(m["sequence-number"])),
		ManifestListURI: asString(m["manifest-list"]),
		Summary:         toStringMap(m["summary"]),
		TimestampMs:     int64(asFloat(m["timestamp-ms"])),
	}
	if v, ok := m["parent-snapshot-id"]; ok {
		id := int64(asFloat(v))
		s.ParentSnapshotID = &id
	}
	if v, ok := m["schema-id"]; ok {
		id := int(asFloat(v))
		s.SchemaID = &id
	}
	return s
}

func refToWire(r *Ref) map[string]any {
	m := map[string]any{
		"snapshot-id": r.SnapshotID,
		"type":        string(r.Type),
	}
	if r.MaxRefAgeMs != nil {
		m["max-ref-age-ms"] = *r.MaxRefAgeMs
	}
	if r.MaxSnapshotAgeMs != nil {
		m["max-snapshot-age-ms"] = *r.MaxSnapshotAgeMs
	}
	if r.MinSnapshotsToKeep != nil {
		m["min-snapshots-to-keep"] = *r.MinSnapshotsToKeep
	}
	return m
}

func refFromWire(name string, m map[string]any) *Ref {
	r := &Ref{
		Name:       name,
		Type:       RefType(asString(m["type"])),
		SnapshotID: int64(asFloat(m["snapshot-id"])),
	}
	if v, ok := m["max-ref-age-ms"]; ok {
		n := int64(asFloat(v))
		r.MaxRefAgeMs = &n
	}
	if v, ok := m["max-snapshot-age-ms"]; ok {
		n := int64(asFloat(v))
		r.MaxSnapshotAgeMs = &n
	}
	if v, ok := m["min-snapshots-to-keep"]; ok {
		n := int(asFloat(v))
		r.MinSnapshotsToKeep = &n
	}
	return r
}

// The exported *ToWire/*FromWireAny functions below let the catalog
// package embed one schema/spec/sort-order/snapshot inside a single
// TableUpdate's JSON body without duplicating this file's wire
// encoding.

func SchemaToWire(s *schema.Schema) (any, error) { return schemaToWire(s) }

func SchemaFromWireAny(v any) (*schema.Schema, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("tablemeta: schema wire value is not an object")
	}
	return schemaFromWire(m)
}

func SpecToWire(p *partition.Spec) any { return specToWire(p) }

func SpecFromWireAny(v any) (*partition.Spec, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("tablemeta: partition spec wire value is not an object")
	}
	return specFromWire(m), nil
}

func SortOrderToWire(o *SortOrder) any { return sortOrderToWire(o) }

func SortOrderFromWireAny(v any) (*SortOrder, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("tablemeta: sort order wire value is not an object")
	}
	return sortOrderFromWire(m), nil
}

func SnapshotToWire(s *Snapshot) any { return snapshotToWire(s) }

func SnapshotFromWireAny(v any) (*Snapshot, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("tablemeta: snapshot wire value is not an object")
	}
	return snapshotFromWire(m), nil
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func toStringMap(v any) map[string]string {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}
