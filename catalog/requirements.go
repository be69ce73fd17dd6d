package catalog

import (
	"encoding/json"
	"fmt"
)

// TableRequirement is an optimistic-concurrency precondition a commit
// asserts against the catalog's current metadata before applying its
// updates (spec.md §4.F). Like TableUpdate, the set is closed.
type TableRequirement interface {
	Type() string
	Check(current *CurrentState) error
	isTableRequirement()
}

// CurrentState is the slice of catalog-side metadata a requirement
// checks against. It mirrors only the fields requirements need, so a
// catalog client can build one from whatever it already loaded without
// constructing a full tablemeta.TableMetadata.
type CurrentState struct {
	Exists                bool
	TableUUID             string
	CurrentSchemaID       int
	LastAssignedFieldID   int
	DefaultSpecID         int
	LastAssignedPartID    int
	DefaultSortOrderID    int
	RefSnapshotIDs        map[string]int64
}

type AssertCreate struct{}

func (AssertCreate) Type() string { return "assert-create" }
func (AssertCreate) isTableRequirement() {}
func (r AssertCreate) Check(s *CurrentState) error {
	if s.Exists {
		return fmt.Errorf("catalog: table already exists")
	}
	return nil
}

type AssertTableUUID struct{ UUID string }

func (AssertTableUUID) Type() string { return "assert-table-uuid" }
func (AssertTableUUID) isTableRequirement() {}
func (r AssertTableUUID) Check(s *CurrentState) error {
	if !s.Exists {
		return fmt.Errorf("catalog: table does not exist")
	}
	if s.TableUUID != r.UUID {
		return fmt.Errorf("catalog: table UUID %s does not match expected %s", s.TableUUID, r.UUID)
	}
	return nil
}

// AssertRefSnapshotID asserts that the named ref currently points at
// SnapshotID. A nil SnapshotID asserts the ref does not exist yet.
type AssertRefSnapshotID struct {
	RefName    string
	SnapshotID *int64
}

func (AssertRefSnapshotID) Type() string { return "assert-ref-snapshot-id" }
func (AssertRefSnapshotID) isTableRequirement() {}
func (r AssertRefSnapshotID) Check(s *CurrentState) error {
	current, ok := s.RefSnapshotIDs[r.RefName]
	if r.SnapshotID == nil {
		if ok {
			return fmt.Errorf("catalog: ref %q already exists", r.RefName)
		}
		return nil
	}
	if !ok {
		return fmt.Errorf("catalog: ref %q does not exist", r.RefName)
	}
	if current != *r.SnapshotID {
		return fmt.Errorf("catalog: ref %q points at %d, expected %d", r.RefName, current, *r.SnapshotID)
	}
	return nil
}

type AssertLastAssignedFieldID struct{ LastAssignedFieldID int }

func (AssertLastAssignedFieldID) Type() string { return "assert-last-assigned-field-id" }
func (AssertLastAssignedFieldID) isTableRequirement() {}
func (r AssertLastAssignedFieldID) Check(s *CurrentState) error {
	if s.LastAssignedFieldID != r.LastAssignedFieldID {
		return fmt.Errorf("catalog: last assigned field id %d does not match expected %d", s.LastAssignedFieldID, r.LastAssignedFieldID)
	}
	return nil
}

type AssertCurrentSchemaID struct{ SchemaID int }

func (AssertCurrentSchemaID) Type() string { return "assert-current-schema-id" }
func (AssertCurrentSchemaID) isTableRequirement() {}
func (r AssertCurrentSchemaID) Check(s *CurrentState) error {
	if s.CurrentSchemaID != r.SchemaID {
		return fmt.Errorf("catalog: current schema id %d does not match expected %d", s.CurrentSchemaID, r.SchemaID)
	}
	return nil
}

type AssertLastAssignedPartitionID struct{ LastAssignedPartitionID int }

func (AssertLastAssignedPartitionID) Type() string { return "assert-last-assigned-partition-id" }
func (AssertLastAssignedPartitionID) isTableRequirement() {}
func (r AssertLastAssignedPartitionID) Check(s *CurrentState) error {
	if s.LastAssignedPartID != r.LastAssignedPartitionID {
		return fmt.Errorf("catalog: last assigned partition id %d does not match expected %d", s.LastAssignedPartID, r.LastAssignedPartitionID)
	}
	return nil
}

type AssertDefaultSpecID struct{ SpecID int }

func (AssertDefaultSpecID) Type() string { return "assert-default-spec-id" }
func (AssertDefaultSpecID) isTableRequirement() {}
func (r AssertDefaultSpecID) Check(s *CurrentState) error {
	if s.DefaultSpecID != r.SpecID {
		return fmt.Errorf("catalog: default spec id %d does not match expected %d", s.DefaultSpecID, r.SpecID)
	}
	return nil
}

type AssertDefaultSortOrderID struct{ SortOrderID int }

func (AssertDefaultSortOrderID) Type() string { return "assert-default-sort-order-id" }
func (AssertDefaultSortOrderID) isTableRequirement() {}
func (r AssertDefaultSortOrderID) Check(s *CurrentState) error {
	if s.DefaultSortOrderID != r.SortOrderID {
		return fmt.Errorf("catalog: default sort order id %d does not match expected %d", s.DefaultSortOrderID, r.SortOrderID)
	}
	return nil
}

type requirementWire struct {
	Type                    string `json:"type"`
	UUID                    string `json:"uuid,omitempty"`
	Ref                     string `json:"ref,omitempty"`
	SnapshotID              *int64 `json:"snapshot-id,omitempty"`
	LastAssignedFieldID     int    `json:"last-assigned-field-id,omitempty"`
	CurrentSchemaID         int    `json:"current-schema-id,omitempty"`
	LastAssignedPartitionID int    `json:"last-assigned-partition-id,omitempty"`
	DefaultSpecID           int    `json:"default-spec-id,omitempty"`
	DefaultSortOrderID      int    `json:"default-sort-order-id,omitempty"`
}

func marshalRequirement(r TableRequirement) ([]byte, error) {
	w := requirementWire{Type: r.Type()}
	switch v := r.(type) {
	case AssertCreate:
	case AssertTableUUID:
		w.UUID = v.UUID
	case AssertRefSnapshotID:
		w.Ref, w.SnapshotID = v.RefName, v.SnapshotID
	case AssertLastAssignedFieldID:
		w.LastAssignedFieldID = v.LastAssignedFieldID
	case AssertCurrentSchemaID:
		w.CurrentSchemaID = v.SchemaID
	case AssertLastAssignedPartitionID:
		w.LastAssignedPartitionID = v.LastAssignedPartitionID
	case AssertDefaultSpecID:
		w.DefaultSpecID = v.SpecID
	case AssertDefaultSortOrderID:
		w.DefaultSortOrderID = v.SortOrderID
	default:
		return nil, fmt.Errorf("catalog: unknown requirement type %T", r)
	}
	return json.Marshal(w)
}

func unmarshalRequirement(data []byte) (TableRequirement, error) {
	var w requirementWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	switch w.Type {
	case "assert-create":
		return AssertCreate{}, nil
	case "assert-table-uuid":
		return AssertTableUUID{UUID: w.UUID}, nil
	case "assert-ref-snapshot-id":
		return AssertRefSnapshotID{RefName: w.Ref, SnapshotID: w.SnapshotID}, nil
	case "assert-last-assigned-field-id":
		return AssertLastAssignedFieldID{LastAssignedFieldID: w.LastAssignedFieldID}, nil
	case "assert-current-schema-id":
		return AssertCurrentSchemaID{SchemaID: w.CurrentSchemaID}, nil
	case "assert-last-assigned-partition-id":
		return AssertLastAssignedPartitionID{LastAssignedPartitionID: w.LastAssignedPartitionID}, nil
	case "assert-default-spec-id":
		return AssertDefaultSpecID{SpecID: w.DefaultSpecID}, nil
	case "assert-default-sort-order-id":
		return AssertDefaultSortOrderID{SortOrderID: w.DefaultSortOrderID}, nil
	default:
		return nil, fmt.Errorf("catalog: unknown requirement type %q", w.Type)
	}
}
