package scan

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmotdata/icecore/expr"
	"github.com/marmotdata/icecore/manifest"
	"github.com/marmotdata/icecore/partition"
	"github.com/marmotdata/icecore/schema"
	"github.com/marmotdata/icecore/tablemeta"
)

func int32Bound(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

func strBound(s string) []byte { return []byte(s) }

func testSchema() *schema.Schema {
	root := &schema.StructType{Fields: []*schema.NestedField{
		{ID: 1, Name: "id", Type: schema.Int(), Required: true},
		{ID: 2, Name: "data", Type: schema.String(), Required: false},
	}}
	return schema.NewSchema(0, root)
}

// fakeReader is an in-memory manifest.Reader backed by maps keyed by
// URI/manifest path, enough to drive the planner end to end without
// touching storage.
type fakeReader struct {
	lists     map[string][]*manifest.File
	manifests map[string][]*manifest.ManifestEntry
}

func (r *fakeReader) ReadManifestList(ctx context.Context, uri string) ([]*manifest.File, error) {
	return r.lists[uri], nil
}

func (r *fakeReader) OpenManifest(ctx context.Context, m *manifest.File, discardDeleted bool) (manifest.EntryIterator, error) {
	entries := r.manifests[m.ManifestPath]
	if discardDeleted {
		var kept []*manifest.ManifestEntry
		for _, e := range entries {
			if e.Status != manifest.EntryDeleted {
				kept = append(kept, e)
			}
		}
		entries = kept
	}
	return &fakeIterator{entries: entries, idx: -1}, nil
}

type fakeIterator struct {
	entries []*manifest.ManifestEntry
	idx     int
}

func (it *fakeIterator) Next() bool {
	it.idx++
	return it.idx < len(it.entries)
}
func (it *fakeIterator) Entry() *manifest.ManifestEntry { return it.entries[it.idx] }
func (it *fakeIterator) Err() error                     { return nil }
func (it *fakeIterator) Close() error                    { return nil }

func baseMeta(sch *schema.Schema, spec *partition.Spec, snap *tablemeta.Snapshot) *tablemeta.TableMetadata {
	return &tablemeta.TableMetadata{
		FormatVersion:     2,
		Schemas:           []*schema.Schema{sch},
		CurrentSchemaID:   sch.ID,
		PartitionSpecs:    []*partition.Spec{spec},
		DefaultSpecID:     spec.ID,
		Snapshots:         []*tablemeta.Snapshot{snap},
		CurrentSnapshotID: &snap.SnapshotID,
		Refs:              map[string]*tablemeta.Ref{},
	}
}

func dataFile(path string, idLower, idUpper int32) *manifest.DataFile {
	return &manifest.DataFile{
		Content:         manifest.FileContentData,
		FilePath:        path,
		FileFormat:      manifest.FormatParquet,
		Partition:       map[int]any{},
		RecordCount:     10,
		FileSizeInBytes: 1024,
		ValueCounts:     map[int]int64{1: 10},
		LowerBounds:     map[int][]byte{1: int32Bound(idLower), manifest.FilePathFieldID: strBound(path)},
		UpperBounds:     map[int][]byte{1: int32Bound(idUpper), manifest.FilePathFieldID: strBound(path)},
	}
}

// TestPlan_FilterPrunesOneOfTwoFiles covers a snapshot with two data
// files and no delete files: a row filter on id should prune the file
// whose bounds cannot satisfy it.
func TestPlan_FilterPrunesOneOfTwoFiles(t *testing.T) {
	sch := testSchema()
	spec := partition.Unpartitioned()
	snap := &tablemeta.Snapshot{SnapshotID: 1, SequenceNumber: 1, ManifestListURI: "list-1"}
	meta := baseMeta(sch, spec, snap)

	fileA := dataFile("s3://t/a.parquet", 0, 9)
	fileB := dataFile("s3://t/b.parquet", 10, 19)

	manifestFile := &manifest.File{ManifestPath: "m1", PartitionSpecID: spec.ID, Content: manifest.ContentData, SequenceNumber: 1, MinSequenceNumber: 1}

	reader := &fakeReader{
		lists: map[string][]*manifest.File{"list-1": {manifestFile}},
		manifests: map[string][]*manifest.ManifestEntry{
			"m1": {
				{Status: manifest.EntryAdded, DataSequenceNumber: 1, FileSequenceNumber: 1, File: fileA},
				{Status: manifest.EntryAdded, DataSequenceNumber: 1, FileSequenceNumber: 1, File: fileB},
			},
		},
	}

	planner := New(meta, reader, InlineExecutor{})
	filter := expr.GreaterThan(expr.Reference{Name: "id"}, expr.Int32(15))
	tasks, err := planner.Plan(context.Background(), PlanOptions{RowFilter: filter, CaseSensitive: true})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "s3://t/b.parquet", tasks[0].DataFile.FilePath)
	assert.Empty(t, tasks[0].DeleteFiles)
}

// TestPlan_DeleteMatchedBySequenceAndPath covers a positional delete
// file that applies only to data written at a lower sequence number
// and sharing its file path range.
func TestPlan_DeleteMatchedBySequenceAndPath(t *testing.T) {
	sch := testSchema()
	spec := partition.Unpartitioned()
	snap := &tablemeta.Snapshot{SnapshotID: 1, SequenceNumber: 2, ManifestListURI: "list-1"}
	meta := baseMeta(sch, spec, snap)

	data := dataFile("s3://t/a.parquet", 0, 9)
	del := &manifest.DataFile{
		Content:    manifest.FileContentPositionDeletes,
		FilePath:   "s3://t/a.parquet-deletes",
		FileFormat: manifest.FormatParquet,
		Partition:  map[int]any{},
		LowerBounds: map[int][]byte{manifest.FilePathFieldID: strBound("s3://t/a.parquet")},
		UpperBounds: map[int][]byte{manifest.FilePathFieldID: strBound("s3://t/a.parquet")},
	}
	unrelatedDel := &manifest.DataFile{
		Content:    manifest.FileContentPositionDeletes,
		FilePath:   "s3://t/z.parquet-deletes",
		FileFormat: manifest.FormatParquet,
		Partition:  map[int]any{},
		LowerBounds: map[int][]byte{manifest.FilePathFieldID: strBound("s3://t/z.parquet")},
		UpperBounds: map[int][]byte{manifest.FilePathFieldID: strBound("s3://t/z.parquet")},
	}

	dataManifest := &manifest.File{ManifestPath: "m-data", PartitionSpecID: spec.ID, Content: manifest.ContentData, SequenceNumber: 1, MinSequenceNumber: 1}
	deleteManifest := &manifest.File{ManifestPath: "m-del", PartitionSpecID: spec.ID, Content: manifest.ContentDeletes, SequenceNumber: 2, MinSequenceNumber: 2}

	reader := &fakeReader{
		lists: map[string][]*manifest.File{"list-1": {dataManifest, deleteManifest}},
		manifests: map[string][]*manifest.ManifestEntry{
			"m-data": {{Status: manifest.EntryAdded, DataSequenceNumber: 1, FileSequenceNumber: 1, File: data}},
			"m-del": {
				{Status: manifest.EntryAdded, DataSequenceNumber: 2, FileSequenceNumber: 2, File: del},
				{Status: manifest.EntryAdded, DataSequenceNumber: 2, FileSequenceNumber: 2, File: unrelatedDel},
			},
		},
	}

	planner := New(meta, reader, InlineExecutor{})
	tasks, err := planner.Plan(context.Background(), PlanOptions{CaseSensitive: true})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Len(t, tasks[0].DeleteFiles, 1)
	assert.Equal(t, "s3://t/a.parquet-deletes", tasks[0].DeleteFiles[0].FilePath)
}

// TestPlan_ResolvesSnapshotByRef covers resolving a named branch/tag
// to a snapshot other than the table's current one.
func TestPlan_ResolvesSnapshotByRef(t *testing.T) {
	sch := testSchema()
	spec := partition.Unpartitioned()
	current := &tablemeta.Snapshot{SnapshotID: 2, SequenceNumber: 2, ManifestListURI: "list-2"}
	staged := &tablemeta.Snapshot{SnapshotID: 1, SequenceNumber: 1, ManifestListURI: "list-1"}
	meta := baseMeta(sch, spec, current)
	meta.Snapshots = append(meta.Snapshots, staged)
	meta.Refs["stage"] = &tablemeta.Ref{Name: "stage", Type: tablemeta.RefBranch, SnapshotID: 1}

	fileA := dataFile("s3://t/staged.parquet", 0, 9)
	manifestFile := &manifest.File{ManifestPath: "m-stage", PartitionSpecID: spec.ID, Content: manifest.ContentData, SequenceNumber: 1, MinSequenceNumber: 1}

	reader := &fakeReader{
		lists:     map[string][]*manifest.File{"list-1": {manifestFile}, "list-2": {}},
		manifests: map[string][]*manifest.ManifestEntry{"m-stage": {{Status: manifest.EntryAdded, DataSequenceNumber: 1, FileSequenceNumber: 1, File: fileA}}},
	}

	planner := New(meta, reader, InlineExecutor{})
	tasks, err := planner.Plan(context.Background(), PlanOptions{Ref: "stage", CaseSensitive: true})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "s3://t/staged.parquet", tasks[0].DataFile.FilePath)
}

// TestPlan_EqualityDeletesAreRejected covers the scan planner's hard
// Non-goal boundary: an equality-delete entry aborts planning instead
// of silently being ignored or misapplied.
func TestPlan_EqualityDeletesAreRejected(t *testing.T) {
	sch := testSchema()
	spec := partition.Unpartitioned()
	snap := &tablemeta.Snapshot{SnapshotID: 1, SequenceNumber: 1, ManifestListURI: "list-1"}
	meta := baseMeta(sch, spec, snap)

	eqDelete := &manifest.DataFile{Content: manifest.FileContentEqualityDeletes, FilePath: "s3://t/eq.parquet", Partition: map[int]any{}}
	manifestFile := &manifest.File{ManifestPath: "m1", PartitionSpecID: spec.ID, Content: manifest.ContentDeletes, SequenceNumber: 1, MinSequenceNumber: 1}

	reader := &fakeReader{
		lists:     map[string][]*manifest.File{"list-1": {manifestFile}},
		manifests: map[string][]*manifest.ManifestEntry{"m1": {{Status: manifest.EntryAdded, DataSequenceNumber: 1, FileSequenceNumber: 1, File: eqDelete}}},
	}

	planner := New(meta, reader, InlineExecutor{})
	_, err := planner.Plan(context.Background(), PlanOptions{CaseSensitive: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFeature)
}
