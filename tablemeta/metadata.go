// Package tablemeta models TableMetadata and its constituents:
// snapshots, refs, sort orders, and the partition specs a table has
// accumulated over its lifetime.
package tablemeta

import (
	"fmt"

	"github.com/marmotdata/icecore/partition"
	"github.com/marmotdata/icecore/schema"
)

// Snapshot is one point in a table's linear (or branching) history.
type Snapshot struct {
	SnapshotID       int64
	ParentSnapshotID *int64
	SequenceNumber   int64
	SchemaID         *int
	ManifestListURI  string
	Summary          map[string]string
	TimestampMs      int64
}

// RefType distinguishes a branch (mutable, retains history) from a
// tag (immutable pointer to one snapshot).
type RefType string

const (
	RefBranch RefType = "branch"
	RefTag    RefType = "tag"
)

// Ref is a named pointer into snapshot history.
type Ref struct {
	Name                    string
	Type                    RefType
	SnapshotID              int64
	MaxRefAgeMs             *int64
	MaxSnapshotAgeMs        *int64
	MinSnapshotsToKeep      *int
}

// SortField is one column of a sort order.
type SortField struct {
	SourceID  int
	Transform partition.Transform
	Direction string // "asc" | "desc"
	NullOrder string // "nulls-first" | "nulls-last"
}

// SortOrder is a versioned, immutable-once-written sort specification.
type SortOrder struct {
	OrderID int
	Fields  []SortField
}

// Unsorted returns the sentinel sort order ID 0 used for unsorted
// tables.
func Unsorted() *SortOrder { return &SortOrder{OrderID: 0} }

// TableMetadata is the durably persisted, append-only-history
// document describing a table: its UUID, accumulated schemas and
// specs, snapshot history, refs, and properties.
type TableMetadata struct {
	FormatVersion     int
	TableUUID         string
	Location          string
	LastColumnID      int
	LastUpdatedMs     int64

	Schemas          []*schema.Schema
	CurrentSchemaID  int

	PartitionSpecs   []*partition.Spec
	DefaultSpecID    int
	LastPartitionID  int

	SortOrders        []*SortOrder
	DefaultSortOrderID int

	Snapshots        []*Snapshot
	CurrentSnapshotID *int64
	Refs             map[string]*Ref
	SnapshotLog      []SnapshotLogEntry

	Properties map[string]string
}

type SnapshotLogEntry struct {
	SnapshotID  int64
	TimestampMs int64
}

// CurrentSchema returns the schema named by CurrentSchemaID.
func (m *TableMetadata) CurrentSchema() (*schema.Schema, error) {
	return m.SchemaByID(m.CurrentSchemaID)
}

func (m *TableMetadata) SchemaByID(id int) (*schema.Schema, error) {
	for _, s := range m.Schemas {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("tablemeta: no schema with id %d", id)
}

func (m *TableMetadata) SpecByID(id int) (*partition.Spec, error) {
	for _, p := range m.PartitionSpecs {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("tablemeta: no partition spec with id %d", id)
}

func (m *TableMetadata) DefaultSpec() (*partition.Spec, error) {
	return m.SpecByID(m.DefaultSpecID)
}

// SnapshotByID looks up a snapshot by its numeric ID.
func (m *TableMetadata) SnapshotByID(id int64) (*Snapshot, error) {
	for _, s := range m.Snapshots {
		if s.SnapshotID == id {
			return s, nil
		}
	}
	return nil, fmt.Errorf("tablemeta: no snapshot with id %d", id)
}

// SnapshotByRef resolves a ref name ("main", "stage", …) to its
// current snapshot.
func (m *TableMetadata) SnapshotByRef(name string) (*Snapshot, error) {
	ref, ok := m.Refs[name]
	if !ok {
		return nil, fmt.Errorf("tablemeta: no ref named %q", name)
	}
	return m.SnapshotByID(ref.SnapshotID)
}

// CurrentSnapshot returns the snapshot CurrentSnapshotID points to,
// or nil for a table with no snapshots yet.
func (m *TableMetadata) CurrentSnapshot() (*Snapshot, error) {
	if m.CurrentSnapshotID == nil {
		return nil, nil
	}
	return m.SnapshotByID(*m.CurrentSnapshotID)
}
