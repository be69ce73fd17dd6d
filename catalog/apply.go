package catalog

import (
	"fmt"

	"github.com/marmotdata/icecore/partition"
	"github.com/marmotdata/icecore/schema"
	"github.com/marmotdata/icecore/tablemeta"
)

// CheckAll runs every requirement against the catalog's current state
// and fails closed on the first violation, enforcing the commit's
// optimistic-concurrency preconditions before any update is applied.
func CheckAll(reqs []TableRequirement, s *CurrentState) error {
	for _, r := range reqs {
		if err := r.Check(s); err != nil {
			return err
		}
	}
	return nil
}

// StateOf builds the CurrentState a commit's requirements are checked
// against from a loaded table's metadata.
func StateOf(meta *tablemeta.TableMetadata) *CurrentState {
	if meta == nil {
		return &CurrentState{Exists: false}
	}
	refs := make(map[string]int64, len(meta.Refs))
	for name, r := range meta.Refs {
		refs[name] = r.SnapshotID
	}
	return &CurrentState{
		Exists:              true,
		TableUUID:           meta.TableUUID,
		CurrentSchemaID:     meta.CurrentSchemaID,
		LastAssignedFieldID: meta.LastColumnID,
		DefaultSpecID:       meta.DefaultSpecID,
		LastAssignedPartID:  meta.LastPartitionID,
		DefaultSortOrderID:  meta.DefaultSortOrderID,
		RefSnapshotIDs:      refs,
	}
}

// ApplyUpdates returns a new TableMetadata with each update applied in
// order, the way a REST catalog server applies a commit's update list
// server-side (spec.md §4.F). Non-REST catalogs (catalog/glue) that
// have no such server component call this client-side before writing
// the resulting metadata document and swapping the catalog's pointer.
func ApplyUpdates(meta *tablemeta.TableMetadata, updates []TableUpdate) (*tablemeta.TableMetadata, error) {
	next := *meta
	next.Schemas = append([]*schema.Schema(nil), meta.Schemas...)
	next.PartitionSpecs = append([]*partition.Spec(nil), meta.PartitionSpecs...)
	next.SortOrders = append([]*tablemeta.SortOrder(nil), meta.SortOrders...)
	next.Snapshots = append([]*tablemeta.Snapshot(nil), meta.Snapshots...)
	next.SnapshotLog = append([]tablemeta.SnapshotLogEntry(nil), meta.SnapshotLog...)
	next.Refs = map[string]*tablemeta.Ref{}
	for k, v := range meta.Refs {
		r := *v
		next.Refs[k] = &r
	}
	next.Properties = map[string]string{}
	for k, v := range meta.Properties {
		next.Properties[k] = v
	}

	var lastAddedSchema *schema.Schema
	for _, u := range updates {
		switch v := u.(type) {
		case AssignUUID:
			next.TableUUID = v.UUID
		case UpgradeFormatVersion:
			if v.FormatVersion < next.FormatVersion {
				return nil, fmt.Errorf("catalog: cannot downgrade format version %d -> %d", next.FormatVersion, v.FormatVersion)
			}
			next.FormatVersion = v.FormatVersion
		case AddSchema:
			if v.LastColumnID != nil && *v.LastColumnID > next.LastColumnID {
				next.LastColumnID = *v.LastColumnID
			}
			next.Schemas = append(next.Schemas, v.Schema)
			lastAddedSchema = v.Schema
		case SetCurrentSchema:
			schemaID := v.SchemaID
			if schemaID == -1 {
				if lastAddedSchema == nil {
					return nil, fmt.Errorf("catalog: set-current-schema -1 without a schema added in this commit")
				}
				schemaID = lastAddedSchema.ID
			}
			found := false
			for _, s := range next.Schemas {
				if s.ID == schemaID {
					found = true
					break
				}
			}
			if !found {
				return nil, fmt.Errorf("catalog: set-current-schema references unknown schema %d", schemaID)
			}
			next.CurrentSchemaID = schemaID
		case AddPartitionSpec:
			next.PartitionSpecs = append(next.PartitionSpecs, v.Spec)
		case SetDefaultSpec:
			next.DefaultSpecID = v.SpecID
		case AddSortOrder:
			next.SortOrders = append(next.SortOrders, v.SortOrder)
		case SetDefaultSortOrder:
			next.DefaultSortOrderID = v.SortOrderID
		case AddSnapshot:
			next.Snapshots = append(next.Snapshots, v.Snapshot)
			next.SnapshotLog = append(next.SnapshotLog, tablemeta.SnapshotLogEntry{
				SnapshotID:  v.Snapshot.SnapshotID,
				TimestampMs: v.Snapshot.TimestampMs,
			})
		case SetSnapshotRef:
			next.Refs[v.RefName] = &tablemeta.Ref{
				Name: v.RefName, Type: tablemeta.RefType(v.Type), SnapshotID: v.SnapshotID,
				MaxRefAgeMs: v.MaxRefAgeMs, MaxSnapshotAgeMs: v.MaxSnapshotAgeMs, MinSnapshotsToKeep: v.MinSnapshotsToKeep,
			}
			if v.RefName == "main" {
				id := v.SnapshotID
				next.CurrentSnapshotID = &id
			}
		case RemoveSnapshots:
			remove := map[int64]bool{}
			for _, id := range v.SnapshotIDs {
				remove[id] = true
			}
			kept := next.Snapshots[:0:0]
			for _, s := range next.Snapshots {
				if !remove[s.SnapshotID] {
					kept = append(kept, s)
				}
			}
			next.Snapshots = kept
		case RemoveSnapshotRef:
			delete(next.Refs, v.RefName)
		case SetProperties:
			for k, val := range v.Updates {
				next.Properties[k] = val
			}
		case RemoveProperties:
			for _, k := range v.Removals {
				delete(next.Properties, k)
			}
		case SetLocation:
			next.Location = v.Location
		default:
			return nil, fmt.Errorf("catalog: unhandled update type %T", u)
		}
	}
	return &next, nil
}
