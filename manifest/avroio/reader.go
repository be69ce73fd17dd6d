// Package avroio provides the default manifest.Reader, decoding
// Avro-encoded manifest lists and manifest files with
// github.com/hamba/avro/v2.
package avroio

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hamba/avro/v2"

	"github.com/marmotdata/icecore/iceio"
	"github.com/marmotdata/icecore/manifest"
	"github.com/marmotdata/icecore/schema"
)

// Reader implements manifest.Reader over an iceio.FileIO.
type Reader struct {
	io     iceio.FileIO
	schema *schema.Schema
}

// New builds an avro-backed manifest.Reader. sch is the table schema
// used to decode partition values into typed Go values; lower/upper
// bounds are kept as raw byte strings.
func New(io iceio.FileIO, sch *schema.Schema) *Reader {
	return &Reader{io: io, schema: sch}
}

type manifestListRow struct {
	ManifestPath      string                    `avro:"manifest_path"`
	ManifestLength    int64                     `avro:"manifest_length"`
	PartitionSpecID   int                       `avro:"partition_spec_id"`
	Content           int                       `avro:"content"`
	SequenceNumber    int64                     `avro:"sequence_number"`
	MinSequenceNumber int64                     `avro:"min_sequence_number"`
	AddedSnapshotID   int64                     `avro:"added_snapshot_id"`
	Partitions        []partitionSummaryRow     `avro:"partitions"`
}

type partitionSummaryRow struct {
	ContainsNull bool    `avro:"contains_null"`
	ContainsNaN  *bool   `avro:"contains_nan"`
	LowerBound   []byte  `avro:"lower_bound"`
	UpperBound   []byte  `avro:"upper_bound"`
}

func (r *Reader) ReadManifestList(ctx context.Context, uri string) ([]*manifest.File, error) {
	stream, err := r.io.NewInput(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("avroio: open manifest list %q: %w", uri, err)
	}
	defer stream.Close()

	dec, err := avro.NewDecoderForSchema(manifestListSchema, stream)
	if err != nil {
		return nil, fmt.Errorf("avroio: decoder for %q: %w", uri, err)
	}

	var out []*manifest.File
	for {
		var row manifestListRow
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return out, fmt.Errorf("avroio: decode manifest list row in %q: %w", uri, err)
		}
		summaries := make([]manifest.PartitionFieldSummary, len(row.Partitions))
		for i, p := range row.Partitions {
			summaries[i] = manifest.PartitionFieldSummary{
				ContainsNull: p.ContainsNull,
				ContainsNaN:  p.ContainsNaN,
				LowerBound:   p.LowerBound,
				UpperBound:   p.UpperBound,
			}
		}
		out = append(out, &manifest.File{
			ManifestPath:      row.ManifestPath,
			ManifestLength:    row.ManifestLength,
			PartitionSpecID:   row.PartitionSpecID,
			Content:           manifest.Content(row.Content),
			SequenceNumber:    row.SequenceNumber,
			MinSequenceNumber: row.MinSequenceNumber,
			AddedSnapshotID:   row.AddedSnapshotID,
			Partitions:        summaries,
		})
	}
	return out, nil
}

func (r *Reader) OpenManifest(ctx context.Context, m *manifest.File, discardDeleted bool) (manifest.EntryIterator, error) {
	stream, err := r.io.NewInput(ctx, m.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("avroio: open manifest %q: %w", m.ManifestPath, err)
	}
	dec, err := avro.NewDecoderForSchema(manifestEntrySchema, stream)
	if err != nil {
		stream.Close()
		return nil, fmt.Errorf("avroio: decoder for %q: %w", m.ManifestPath, err)
	}
	return &entryIterator{dec: dec, stream: stream, discardDeleted: discardDeleted, tableSchema: r.schema}, nil
}

type entryIterator struct {
	dec            *avro.Decoder
	stream         interface{ Close() error }
	discardDeleted bool
	tableSchema    *schema.Schema
	cur            *manifest.ManifestEntry
	err            error
}

func (it *entryIterator) Next() bool {
	for {
		var row manifestEntryRow
		if err := it.dec.Decode(&row); err != nil {
			if !errors.Is(err, io.EOF) {
				it.err = fmt.Errorf("avroio: decode manifest entry: %w", err)
			}
			return false
		}
		entry := rowToEntry(&row, it.tableSchema)
		if it.discardDeleted && entry.Status == manifest.EntryDeleted {
			continue
		}
		it.cur = entry
		return true
	}
}

func (it *entryIterator) Entry() *manifest.ManifestEntry { return it.cur }
func (it *entryIterator) Err() error                     { return it.err }
func (it *entryIterator) Close() error                   { return it.stream.Close() }
