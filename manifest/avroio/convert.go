package avroio

import (
	"strconv"

	"github.com/marmotdata/icecore/manifest"
	"github.com/marmotdata/icecore/schema"
)

type dataFileRow struct {
	Content         int               `avro:"content"`
	FilePath        string            `avro:"file_path"`
	FileFormat      string            `avro:"file_format"`
	Partition       map[string][]byte `avro:"partition"`
	RecordCount     int64             `avro:"record_count"`
	FileSizeInBytes int64             `avro:"file_size_in_bytes"`
	ColumnSizes     map[string]int64  `avro:"column_sizes"`
	ValueCounts     map[string]int64  `avro:"value_counts"`
	NullValueCounts map[string]int64  `avro:"null_value_counts"`
	NaNValueCounts  map[string]int64  `avro:"nan_value_counts"`
	LowerBounds     map[string][]byte `avro:"lower_bounds"`
	UpperBounds     map[string][]byte `avro:"upper_bounds"`
	EqualityIDs     []int             `avro:"equality_ids"`
	SplitOffsets    []int64           `avro:"split_offsets"`
	SortOrderID     *int              `avro:"sort_order_id"`
}

type manifestEntryRow struct {
	Status             int         `avro:"status"`
	SnapshotID          *int64      `avro:"snapshot_id"`
	DataSequenceNumber  *int64      `avro:"data_sequence_number"`
	FileSequenceNumber  *int64      `avro:"file_sequence_number"`
	DataFile            dataFileRow `avro:"data_file"`
}

// rowToEntry converts a decoded Avro row into the package's
// in-memory ManifestEntry/DataFile shapes, keying per-field maps by
// integer field ID (wire-encoded as decimal strings in the Avro map)
// and decoding partition values against tableSchema's field types;
// lower/upper bounds stay raw byte strings.
func rowToEntry(row *manifestEntryRow, tableSchema *schema.Schema) *manifest.ManifestEntry {
	df := &manifest.DataFile{
		Content:         manifest.DataFileContent(row.DataFile.Content),
		FilePath:        row.DataFile.FilePath,
		FileFormat:      manifest.Format(row.DataFile.FileFormat),
		Partition:       decodePartitionValues(row.DataFile.Partition, tableSchema),
		RecordCount:     row.DataFile.RecordCount,
		FileSizeInBytes: row.DataFile.FileSizeInBytes,
		ColumnSizes:     toIntKeyed(row.DataFile.ColumnSizes),
		ValueCounts:     toIntKeyed(row.DataFile.ValueCounts),
		NullValueCounts: toIntKeyed(row.DataFile.NullValueCounts),
		NaNValueCounts:  toIntKeyed(row.DataFile.NaNValueCounts),
		LowerBounds:     toIntKeyedBytes(row.DataFile.LowerBounds),
		UpperBounds:     toIntKeyedBytes(row.DataFile.UpperBounds),
		EqualityIDs:     row.DataFile.EqualityIDs,
		SplitOffsets:    row.DataFile.SplitOffsets,
		SortOrderID:     row.DataFile.SortOrderID,
	}

	var snapshotID int64
	if row.SnapshotID != nil {
		snapshotID = *row.SnapshotID
	}
	var dataSeq, fileSeq int64
	if row.DataSequenceNumber != nil {
		dataSeq = *row.DataSequenceNumber
	}
	if row.FileSequenceNumber != nil {
		fileSeq = *row.FileSequenceNumber
	}

	return &manifest.ManifestEntry{
		Status:             manifest.EntryStatus(row.Status),
		SnapshotID:         snapshotID,
		DataSequenceNumber: dataSeq,
		FileSequenceNumber: fileSeq,
		File:               df,
	}
}

func toIntKeyed(m map[string]int64) map[int]int64 {
	if m == nil {
		return nil
	}
	out := make(map[int]int64, len(m))
	for k, v := range m {
		if id, err := strconv.Atoi(k); err == nil {
			out[id] = v
		}
	}
	return out
}

func toIntKeyedBytes(m map[string][]byte) map[int][]byte {
	if m == nil {
		return nil
	}
	out := make(map[int][]byte, len(m))
	for k, v := range m {
		if id, err := strconv.Atoi(k); err == nil {
			out[id] = v
		}
	}
	return out
}

func decodePartitionValues(m map[string][]byte, tableSchema *schema.Schema) map[int]any {
	if m == nil {
		return nil
	}
	out := make(map[int]any, len(m))
	for k, v := range m {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		field := tableSchema.FindFieldByID(id)
		if field == nil {
			continue
		}
		val, err := manifest.DecodeBound(field.Type, v)
		if err != nil {
			continue
		}
		out[id] = val
	}
	return out
}
