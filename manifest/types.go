// Package manifest models manifest files and manifest entries: the
// per-snapshot index of data and delete files, their partition
// tuples, and their column statistics.
package manifest

// Content distinguishes what a manifest (or manifest entry) points to.
type Content int

const (
	ContentData Content = iota
	ContentDeletes
)

// DataFileContent narrows Content for individual file entries: plain
// data, positional deletes, or equality deletes. Equality deletes are
// recognized but never executed (spec Non-goal); the planner fails
// fast if one is encountered in a manifest it must plan over.
type DataFileContent int

const (
	FileContentData DataFileContent = iota
	FileContentPositionDeletes
	FileContentEqualityDeletes
)

func (c DataFileContent) String() string {
	switch c {
	case FileContentData:
		return "data"
	case FileContentPositionDeletes:
		return "position-deletes"
	case FileContentEqualityDeletes:
		return "equality-deletes"
	default:
		return "unknown"
	}
}

// FilePathFieldID is the reserved field ID the format assigns to the
// file_path column of a positional-delete file's row schema. Delete
// manifest entries carry their file_path lower/upper bounds under this
// key in LowerBounds/UpperBounds, never under a table-schema field ID.
const FilePathFieldID = 2147483546

// Format is the physical file format of a data or delete file.
type Format string

const (
	FormatParquet Format = "PARQUET"
	FormatAvro    Format = "AVRO"
	FormatORC     Format = "ORC"
)

// DataFile describes one file referenced by a manifest entry.
type DataFile struct {
	Content         DataFileContent
	FilePath        string
	FileFormat      Format
	Partition       map[int]any
	RecordCount     int64
	FileSizeInBytes int64

	ColumnSizes    map[int]int64
	ValueCounts    map[int]int64
	NullValueCounts map[int]int64
	NaNValueCounts map[int]int64
	LowerBounds    map[int][]byte
	UpperBounds    map[int][]byte

	EqualityIDs    []int
	SplitOffsets   []int64
	SortOrderID    *int
}

// ManifestEntry is one row of a manifest file: a file plus the
// bookkeeping the scan planner needs (status, sequence numbers).
type ManifestEntry struct {
	Status             EntryStatus
	SnapshotID         int64
	DataSequenceNumber int64
	FileSequenceNumber int64
	File               *DataFile
}

// EntryStatus mirrors the format's manifest entry status column.
type EntryStatus int

const (
	EntryExisting EntryStatus = iota
	EntryAdded
	EntryDeleted
)

// PartitionFieldSummary is the manifest-level rollup of one partition
// field's values across every entry in the manifest.
type PartitionFieldSummary struct {
	ContainsNull bool
	ContainsNaN  *bool
	LowerBound   []byte
	UpperBound   []byte
}

// File is a manifest file: a pointer (by URI) to a list of entries,
// plus the summaries the manifest evaluator prunes with.
type File struct {
	ManifestPath       string
	ManifestLength     int64
	PartitionSpecID    int
	Content            Content
	SequenceNumber     int64
	MinSequenceNumber  int64
	AddedSnapshotID    int64
	Partitions         []PartitionFieldSummary
}
