package scan

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/marmotdata/icecore/expr"
	"github.com/marmotdata/icecore/manifest"
	"github.com/marmotdata/icecore/partition"
	"github.com/marmotdata/icecore/schema"
	"github.com/marmotdata/icecore/tablemeta"
)

// PlanOptions configures one call to Plan (spec.md §4.D "Inputs").
type PlanOptions struct {
	SnapshotID        *int64
	Ref               string
	RowFilter         expr.Predicate
	Projection        []string // nil or containing "*" selects every field
	CaseSensitive     bool
	IncludeEmptyFiles bool
	Limit             *int
}

// Planner orchestrates manifest pruning, entry filtering, and delete
// matching for one table.
type Planner struct {
	Meta     *tablemeta.TableMetadata
	Reader   manifest.Reader
	Executor Executor
}

func New(meta *tablemeta.TableMetadata, reader manifest.Reader, executor Executor) *Planner {
	if executor == nil {
		executor = InlineExecutor{}
	}
	return &Planner{Meta: meta, Reader: reader, Executor: executor}
}

type specFilters struct {
	projected expr.Predicate
}

// Plan runs the full 9-step algorithm from spec.md §4.D and returns a
// deterministic, stably ordered set of file-scan tasks.
func (p *Planner) Plan(ctx context.Context, opts PlanOptions) ([]*FileScanTask, error) {
	// 1. Snapshot resolution.
	snap, err := p.resolveSnapshot(opts)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, nil
	}

	// 2. Schema selection + projection.
	tableSchema, err := p.selectSchema(snap)
	if err != nil {
		return nil, err
	}
	rowFilter := opts.RowFilter
	if rowFilter == nil {
		rowFilter = expr.AlwaysTrue{}
	}
	boundFilter, err := expr.Bind(rowFilter, tableSchema, opts.CaseSensitive)
	if err != nil {
		return nil, fmt.Errorf("scan: bind row filter: %w", err)
	}
	sch, err := schema.Select(tableSchema, opts.Projection, opts.CaseSensitive)
	if err != nil {
		return nil, fmt.Errorf("scan: resolve projection: %w", err)
	}

	// 3. Per-spec filter cache (projected partition predicate).
	var filterCache sync.Map // int(spec id) -> *specFilters

	// 4+5. Load manifest list, prune manifests.
	manifestList, err := p.Reader.ReadManifestList(ctx, snap.ManifestListURI)
	if err != nil {
		return nil, fmt.Errorf("scan: read manifest list %q: %w", snap.ManifestListURI, err)
	}

	var survivingManifests []*manifest.File
	for _, m := range manifestList {
		spec, err := p.Meta.SpecByID(m.PartitionSpecID)
		if err != nil {
			return nil, fmt.Errorf("scan: manifest references unknown spec: %w", err)
		}
		filters, err := loadOrComputeFilters(&filterCache, spec, boundFilter)
		if err != nil {
			return nil, err
		}
		ok, err := expr.EvalManifest(filters.projected, manifestSummaries{spec: spec, file: m})
		if err != nil {
			return nil, fmt.Errorf("scan: manifest evaluator: %w", err)
		}
		if ok {
			survivingManifests = append(survivingManifests, m)
		}
	}

	// 5. Sequence-number discipline.
	sMin := minDataSequenceNumber(survivingManifests)
	var retained []*manifest.File
	for _, m := range survivingManifests {
		if m.Content == manifest.ContentData || m.SequenceNumber >= sMin {
			retained = append(retained, m)
		}
	}

	// 6. Entry filtering, in parallel across the executor.
	results := make([][]*manifest.ManifestEntry, len(retained))
	errs := make([]error, len(retained))
	jobs := make([]Job, len(retained))
	for i, m := range retained {
		i, m := i, m
		jobs[i] = manifestJob{
			reader: p.Reader,
			file:   m,
			run: func(entries []*manifest.ManifestEntry, err error) {
				results[i] = entries
				errs[i] = err
			},
			filter: func(entry *manifest.ManifestEntry) (bool, error) {
				spec, err := p.Meta.SpecByID(m.PartitionSpecID)
				if err != nil {
					return false, err
				}
				filters, err := loadOrComputeFilters(&filterCache, spec, boundFilter)
				if err != nil {
					return false, err
				}
				tuple := partitionTuple{values: entry.File.Partition}
				partitionOK, err := expr.EvalPartition(filters.projected, tuple)
				if err != nil {
					return false, err
				}
				if !partitionOK {
					return false, nil
				}
				if opts.IncludeEmptyFiles && entry.File.RecordCount == 0 {
					return true, nil
				}
				return expr.EvalMetrics(boundFilter, fileStats{df: entry.File, schema: tableSchema})
			},
		}
	}
	if err := p.Executor.Run(ctx, jobs); err != nil {
		return nil, fmt.Errorf("scan: manifest read/filter: %w", err)
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	// 7. Partition surviving entries by content. Each data entry keeps
	// the spec ID of the manifest it was read from (not the table's
	// default spec): a table with more than one active partition spec
	// has manifests written under different specs, and a task must be
	// stamped with the spec its own data file actually carries.
	var dataEntries []dataEntryWithSpec
	var deleteEntries []*manifest.ManifestEntry
	for i, entries := range results {
		specID := retained[i].PartitionSpecID
		for _, e := range entries {
			switch e.File.Content {
			case manifest.FileContentData:
				dataEntries = append(dataEntries, dataEntryWithSpec{entry: e, specID: specID})
			case manifest.FileContentPositionDeletes:
				deleteEntries = append(deleteEntries, e)
			case manifest.FileContentEqualityDeletes:
				return nil, fmt.Errorf("scan: equality deletes are not supported (%s): %w", e.File.FilePath, ErrUnsupportedFeature)
			default:
				return nil, fmt.Errorf("scan: unknown file content %d (%s): %w", e.File.Content, e.File.FilePath, ErrInvariantViolation)
			}
		}
	}
	sort.Slice(deleteEntries, func(i, j int) bool {
		return deleteEntries[i].DataSequenceNumber < deleteEntries[j].DataSequenceNumber
	})

	// 8. Delete matching.
	tasks := make([]*FileScanTask, 0, len(dataEntries))
	for _, d := range dataEntries {
		matched, err := matchDeletes(d.entry, deleteEntries)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, &FileScanTask{
			DataFile:    d.entry.File,
			DeleteFiles: matched,
			Start:       0,
			Length:      d.entry.File.FileSizeInBytes,
			Schema:      sch,
			SpecID:      d.specID,
		})
	}

	// Ordering guarantee: stable sort by (spec_id, partition_tuple, file_path).
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].SpecID != tasks[j].SpecID {
			return tasks[i].SpecID < tasks[j].SpecID
		}
		ki, kj := partitionTupleKey(tasks[i].DataFile.Partition), partitionTupleKey(tasks[j].DataFile.Partition)
		if ki != kj {
			return ki < kj
		}
		return tasks[i].DataFile.FilePath < tasks[j].DataFile.FilePath
	})

	if opts.Limit != nil && len(tasks) > *opts.Limit {
		tasks = tasks[:*opts.Limit]
	}

	log.Debug().Int("tasks", len(tasks)).Int64("snapshot_id", snap.SnapshotID).Msg("scan plan complete")
	return tasks, nil
}

// dataEntryWithSpec pairs a surviving DATA manifest entry with the
// partition spec ID of the manifest it was read from, so step 8 can
// stamp each task with that file's own spec rather than a table-wide
// default.
type dataEntryWithSpec struct {
	entry  *manifest.ManifestEntry
	specID int
}

// partitionTupleKey renders a partition tuple into a deterministic,
// order-independent string for the final stable sort (spec.md §4.D's
// "(spec_id, partition_tuple, file_path)" ordering guarantee): field
// IDs are sorted before formatting so map iteration order never
// affects the result.
func partitionTupleKey(values map[int]any) string {
	ids := make([]int, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	var sb strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&sb, "%d=%v;", id, values[id])
	}
	return sb.String()
}

func (p *Planner) resolveSnapshot(opts PlanOptions) (*tablemeta.Snapshot, error) {
	if opts.SnapshotID != nil {
		return p.Meta.SnapshotByID(*opts.SnapshotID)
	}
	if opts.Ref != "" {
		return p.Meta.SnapshotByRef(opts.Ref)
	}
	return p.Meta.CurrentSnapshot()
}

func (p *Planner) selectSchema(snap *tablemeta.Snapshot) (*schema.Schema, error) {
	if snap.SchemaID != nil {
		return p.Meta.SchemaByID(*snap.SchemaID)
	}
	return p.Meta.CurrentSchema()
}

func loadOrComputeFilters(cache *sync.Map, spec *partition.Spec, rowFilter expr.Predicate) (*specFilters, error) {
	if v, ok := cache.Load(spec.ID); ok {
		return v.(*specFilters), nil
	}
	projected := expr.InclusiveProjection(rowFilter, spec)
	actual, _ := cache.LoadOrStore(spec.ID, &specFilters{projected: projected})
	return actual.(*specFilters), nil
}

func minDataSequenceNumber(manifests []*manifest.File) int64 {
	const initialSequenceNumber = 0
	min := int64(-1)
	for _, m := range manifests {
		if m.Content != manifest.ContentData {
			continue
		}
		if min == -1 || m.MinSequenceNumber < min {
			min = m.MinSequenceNumber
		}
	}
	if min == -1 {
		return initialSequenceNumber
	}
	return min
}

// matchDeletes implements spec.md §4.D step 8: candidates are every
// delete entry with a strictly greater data_sequence_number than d,
// found via upper-bound search on the sequence-sorted slice, then
// filtered to those whose file_path bounds contain d's path.
func matchDeletes(d *manifest.ManifestEntry, deletesBySeq []*manifest.ManifestEntry) ([]*manifest.DataFile, error) {
	start := sort.Search(len(deletesBySeq), func(i int) bool {
		return deletesBySeq[i].DataSequenceNumber > d.DataSequenceNumber
	})

	path := d.File.FilePath
	pred := expr.EqualTo(expr.BoundReference{FieldID: manifest.FilePathFieldID, Name: "file_path", Type: schema.String()}, expr.Str(path))

	var matched []*manifest.DataFile
	for _, del := range deletesBySeq[start:] {
		stats := filePathFromBounds(del.File)
		ok, err := expr.EvalMetrics(pred, stats)
		if err != nil {
			return nil, fmt.Errorf("scan: delete match evaluator: %w", err)
		}
		if ok {
			matched = append(matched, del.File)
		}
	}
	return matched, nil
}

func filePathFromBounds(df *manifest.DataFile) filePathStats {
	lower, hasLower := df.LowerBounds[manifest.FilePathFieldID]
	upper, hasUpper := df.UpperBounds[manifest.FilePathFieldID]
	s := filePathStats{}
	if hasLower {
		s.lower = string(lower)
		s.hasLower = true
	}
	if hasUpper {
		s.upper = string(upper)
		s.hasUpper = true
	}
	return s
}

type manifestJob struct {
	reader manifest.Reader
	file   *manifest.File
	filter func(*manifest.ManifestEntry) (bool, error)
	run    func([]*manifest.ManifestEntry, error)
}

func (j manifestJob) ID() string { return j.file.ManifestPath }

func (j manifestJob) Execute(ctx context.Context) error {
	it, err := j.reader.OpenManifest(ctx, j.file, true)
	if err != nil {
		j.run(nil, fmt.Errorf("scan: open manifest %q: %w", j.file.ManifestPath, err))
		return err
	}
	defer it.Close()

	var kept []*manifest.ManifestEntry
	for it.Next() {
		if err := ctx.Err(); err != nil {
			j.run(nil, err)
			return err
		}
		entry := it.Entry()
		ok, err := j.filter(entry)
		if err != nil {
			j.run(nil, err)
			return err
		}
		if ok {
			kept = append(kept, entry)
		}
	}
	if err := it.Err(); err != nil {
		err = fmt.Errorf("scan: read manifest %q: %w", j.file.ManifestPath, err)
		j.run(nil, err)
		return err
	}
	j.run(kept, nil)
	return nil
}
