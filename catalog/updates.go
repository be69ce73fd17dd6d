package catalog

import (
	"encoding/json"
	"fmt"

	"github.com/marmotdata/icecore/partition"
	"github.com/marmotdata/icecore/schema"
	"github.com/marmotdata/icecore/tablemeta"
)

// TableUpdate is one change in a commit's update list (spec.md §4.F
// "Catalog commit"). The set is closed: a catalog client only ever
// needs to switch on the concrete types below, never on an open string
// tag.
type TableUpdate interface {
	Action() string
	isTableUpdate()
}

type AssignUUID struct{ UUID string }

func (AssignUUID) Action() string { return "assign-uuid" }
func (AssignUUID) isTableUpdate() {}

type UpgradeFormatVersion struct{ FormatVersion int }

func (UpgradeFormatVersion) Action() string { return "upgrade-format-version" }
func (UpgradeFormatVersion) isTableUpdate() {}

type AddSchema struct {
	Schema       *schema.Schema
	LastColumnID *int
}

func (AddSchema) Action() string { return "add-schema" }
func (AddSchema) isTableUpdate() {}

type SetCurrentSchema struct{ SchemaID int }

func (SetCurrentSchema) Action() string { return "set-current-schema" }
func (SetCurrentSchema) isTableUpdate() {}

type AddPartitionSpec struct{ Spec *partition.Spec }

func (AddPartitionSpec) Action() string { return "add-spec" }
func (AddPartitionSpec) isTableUpdate() {}

type SetDefaultSpec struct{ SpecID int }

func (SetDefaultSpec) Action() string { return "set-default-spec" }
func (SetDefaultSpec) isTableUpdate() {}

type AddSortOrder struct{ SortOrder *tablemeta.SortOrder }

func (AddSortOrder) Action() string { return "add-sort-order" }
func (AddSortOrder) isTableUpdate() {}

type SetDefaultSortOrder struct{ SortOrderID int }

func (SetDefaultSortOrder) Action() string { return "set-default-sort-order" }
func (SetDefaultSortOrder) isTableUpdate() {}

type AddSnapshot struct{ Snapshot *tablemeta.Snapshot }

func (AddSnapshot) Action() string { return "add-snapshot" }
func (AddSnapshot) isTableUpdate() {}

type SetSnapshotRef struct {
	RefName            string
	SnapshotID         int64
	Type               string
	MaxRefAgeMs        *int64
	MaxSnapshotAgeMs   *int64
	MinSnapshotsToKeep *int
}

func (SetSnapshotRef) Action() string { return "set-snapshot-ref" }
func (SetSnapshotRef) isTableUpdate() {}

type RemoveSnapshots struct{ SnapshotIDs []int64 }

func (RemoveSnapshots) Action() string { return "remove-snapshots" }
func (RemoveSnapshots) isTableUpdate() {}

type RemoveSnapshotRef struct{ RefName string }

func (RemoveSnapshotRef) Action() string { return "remove-snapshot-ref" }
func (RemoveSnapshotRef) isTableUpdate() {}

type SetProperties struct{ Updates map[string]string }

func (SetProperties) Action() string { return "set-properties" }
func (SetProperties) isTableUpdate() {}

type RemoveProperties struct{ Removals []string }

func (RemoveProperties) Action() string { return "remove-properties" }
func (RemoveProperties) isTableUpdate() {}

type SetLocation struct{ Location string }

func (SetLocation) Action() string { return "set-location" }
func (SetLocation) isTableUpdate() {}

// updateWire is the flat JSON envelope every update marshals to/from,
// discriminated on "action" the way the REST catalog protocol encodes
// this list (see spec.md §6 and the teacher's own flat request/response
// JSON structs in internal/plugin/providers/iceberg/rest.go).
type updateWire struct {
	Action string `json:"action"`

	UUID               string            `json:"uuid,omitempty"`
	FormatVersion      int               `json:"format-version,omitempty"`
	Schema             any               `json:"schema,omitempty"`
	LastColumnID       *int              `json:"last-column-id,omitempty"`
	SchemaID           int               `json:"schema-id,omitempty"`
	Spec               any               `json:"spec,omitempty"`
	SpecID             int               `json:"spec-id,omitempty"`
	SortOrder          any               `json:"sort-order,omitempty"`
	SortOrderID        int               `json:"sort-order-id,omitempty"`
	Snapshot           any               `json:"snapshot,omitempty"`
	RefName            string            `json:"ref-name,omitempty"`
	SnapshotID         int64             `json:"snapshot-id,omitempty"`
	Type               string            `json:"type,omitempty"`
	MaxRefAgeMs        *int64            `json:"max-ref-age-ms,omitempty"`
	MaxSnapshotAgeMs   *int64            `json:"max-snapshot-age-ms,omitempty"`
	MinSnapshotsToKeep *int              `json:"min-snapshots-to-keep,omitempty"`
	SnapshotIDs        []int64           `json:"snapshot-ids,omitempty"`
	Updates            map[string]string `json:"updates,omitempty"`
	Removals           []string          `json:"removals,omitempty"`
	Location           string            `json:"location,omitempty"`
}

func marshalUpdate(u TableUpdate) ([]byte, error) {
	w := updateWire{Action: u.Action()}
	switch v := u.(type) {
	case AssignUUID:
		w.UUID = v.UUID
	case UpgradeFormatVersion:
		w.FormatVersion = v.FormatVersion
	case AddSchema:
		ws, err := tablemeta.SchemaToWire(v.Schema)
		if err != nil {
			return nil, fmt.Errorf("catalog: encode add-schema update: %w", err)
		}
		w.Schema, w.LastColumnID = ws, v.LastColumnID
	case SetCurrentSchema:
		w.SchemaID = v.SchemaID
	case AddPartitionSpec:
		w.Spec = tablemeta.SpecToWire(v.Spec)
	case SetDefaultSpec:
		w.SpecID = v.SpecID
	case AddSortOrder:
		w.SortOrder = tablemeta.SortOrderToWire(v.SortOrder)
	case SetDefaultSortOrder:
		w.SortOrderID = v.SortOrderID
	case AddSnapshot:
		w.Snapshot = tablemeta.SnapshotToWire(v.Snapshot)
	case SetSnapshotRef:
		w.RefName, w.SnapshotID, w.Type = v.RefName, v.SnapshotID, v.Type
		w.MaxRefAgeMs, w.MaxSnapshotAgeMs, w.MinSnapshotsToKeep = v.MaxRefAgeMs, v.MaxSnapshotAgeMs, v.MinSnapshotsToKeep
	case RemoveSnapshots:
		w.SnapshotIDs = v.SnapshotIDs
	case RemoveSnapshotRef:
		w.RefName = v.RefName
	case SetProperties:
		w.Updates = v.Updates
	case RemoveProperties:
		w.Removals = v.Removals
	case SetLocation:
		w.Location = v.Location
	default:
		return nil, fmt.Errorf("catalog: unknown update type %T", u)
	}
	return json.Marshal(w)
}

func unmarshalUpdate(data []byte) (TableUpdate, error) {
	var w updateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	switch w.Action {
	case "assign-uuid":
		return AssignUUID{UUID: w.UUID}, nil
	case "upgrade-format-version":
		return UpgradeFormatVersion{FormatVersion: w.FormatVersion}, nil
	case "add-schema":
		s, err := tablemeta.SchemaFromWireAny(w.Schema)
		if err != nil {
			return nil, fmt.Errorf("catalog: decode add-schema update: %w", err)
		}
		return AddSchema{Schema: s, LastColumnID: w.LastColumnID}, nil
	case "set-current-schema":
		return SetCurrentSchema{SchemaID: w.SchemaID}, nil
	case "add-spec":
		spec, err := tablemeta.SpecFromWireAny(w.Spec)
		if err != nil {
			return nil, fmt.Errorf("catalog: decode add-spec update: %w", err)
		}
		return AddPartitionSpec{Spec: spec}, nil
	case "set-default-spec":
		return SetDefaultSpec{SpecID: w.SpecID}, nil
	case "add-sort-order":
		so, err := tablemeta.SortOrderFromWireAny(w.SortOrder)
		if err != nil {
			return nil, fmt.Errorf("catalog: decode add-sort-order update: %w", err)
		}
		return AddSortOrder{SortOrder: so}, nil
	case "set-default-sort-order":
		return SetDefaultSortOrder{SortOrderID: w.SortOrderID}, nil
	case "add-snapshot":
		snap, err := tablemeta.SnapshotFromWireAny(w.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("catalog: decode add-snapshot update: %w", err)
		}
		return AddSnapshot{Snapshot: snap}, nil
	case "set-snapshot-ref":
		return SetSnapshotRef{
			RefName: w.RefName, SnapshotID: w.SnapshotID, Type: w.Type,
			MaxRefAgeMs: w.MaxRefAgeMs, MaxSnapshotAgeMs: w.MaxSnapshotAgeMs, MinSnapshotsToKeep: w.MinSnapshotsToKeep,
		}, nil
	case "remove-snapshots":
		return RemoveSnapshots{SnapshotIDs: w.SnapshotIDs}, nil
	case "remove-snapshot-ref":
		return RemoveSnapshotRef{RefName: w.RefName}, nil
	case "set-properties":
		return SetProperties{Updates: w.Updates}, nil
	case "remove-properties":
		return RemoveProperties{Removals: w.Removals}, nil
	case "set-location":
		return SetLocation{Location: w.Location}, nil
	default:
		return nil, fmt.Errorf("catalog: unknown update action %q", w.Action)
	}
}
