package icecore

import (
	"context"

	"github.com/marmotdata/icecore/expr"
	"github.com/marmotdata/icecore/iceio"
	"github.com/marmotdata/icecore/manifest/avroio"
	"github.com/marmotdata/icecore/scan"
	"github.com/marmotdata/icecore/tablemeta"
)

// Scan is a builder for one call to the planner (spec.md §4.D
// "Inputs"): callers narrow it with SnapshotID/UseRef/Filter/Select
// before calling PlanFiles, mirroring pyiceberg's fluent
// Table.scan()... chain.
type Scan struct {
	meta     *tablemeta.TableMetadata
	io       iceio.FileIO
	executor scan.Executor

	opts scan.PlanOptions
}

func newScan(meta *tablemeta.TableMetadata, io iceio.FileIO) *Scan {
	return &Scan{
		meta: meta,
		io:   io,
		opts: scan.PlanOptions{CaseSensitive: true},
	}
}

// SnapshotID pins the scan to a specific snapshot ID rather than the
// table's current snapshot or a bound ref.
func (s *Scan) SnapshotID(id int64) *Scan {
	s.opts.SnapshotID = &id
	return s
}

// UseRef pins the scan to the snapshot a named branch or tag
// currently resolves to (spec.md §8 scenario 6).
func (s *Scan) UseRef(name string) *Scan {
	s.opts.Ref = name
	return s
}

// Filter sets the row predicate from a bound expr.Predicate tree.
func (s *Scan) Filter(p expr.Predicate) *Scan {
	s.opts.RowFilter = p
	return s
}

// FilterString parses src as the predicate DSL (spec.md §6) and sets
// it as the row filter. A parse error is returned immediately rather
// than deferred to PlanFiles.
func (s *Scan) FilterString(src string) (*Scan, error) {
	p, err := expr.ParsePredicate(src)
	if err != nil {
		return s, newError(Invalid, err, "parse predicate %q", src)
	}
	s.opts.RowFilter = p
	return s, nil
}

// Select narrows the projected schema to the named dotted paths, or
// "*" (the default) for every field.
func (s *Scan) Select(paths ...string) *Scan {
	s.opts.Projection = paths
	return s
}

// CaseSensitive controls name resolution for both the filter and the
// projection; true by default.
func (s *Scan) CaseSensitive(v bool) *Scan {
	s.opts.CaseSensitive = v
	return s
}

// IncludeEmptyFiles forces zero-record files into the result
// regardless of what metrics pruning would otherwise decide.
func (s *Scan) IncludeEmptyFiles(v bool) *Scan {
	s.opts.IncludeEmptyFiles = v
	return s
}

// Limit caps the number of emitted tasks after the stable final sort.
func (s *Scan) Limit(n int) *Scan {
	s.opts.Limit = &n
	return s
}

// WithExecutor overrides the default pool executor, e.g. with
// scan.InlineExecutor{} for deterministic tests.
func (s *Scan) WithExecutor(e scan.Executor) *Scan {
	s.executor = e
	return s
}

// PlanFiles runs the full planning algorithm and returns the
// resulting file-scan tasks.
func (s *Scan) PlanFiles(ctx context.Context) ([]*scan.FileScanTask, error) {
	executor := s.executor
	if executor == nil {
		executor = scan.NewPoolExecutor(defaultPlanWorkers)
	}
	sch, err := s.meta.CurrentSchema()
	if err != nil {
		return nil, newError(Invalid, err, "resolve schema for manifest bound decoding")
	}
	reader := avroio.New(s.io, sch)
	planner := scan.New(s.meta, reader, executor)
	tasks, err := planner.Plan(ctx, s.opts)
	if err != nil {
		return nil, classify(err)
	}
	return tasks, nil
}

// defaultPlanWorkers bounds the planner's manifest-opening
// concurrency when a caller does not supply its own executor.
const defaultPlanWorkers = 8
