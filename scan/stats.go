package scan

import (
	"github.com/marmotdata/icecore/expr"
	"github.com/marmotdata/icecore/manifest"
	"github.com/marmotdata/icecore/partition"
	"github.com/marmotdata/icecore/schema"
)

// fileStats adapts a manifest.DataFile's raw counts/bound bytes to
// expr.FileStats, decoding bounds lazily against the schema the file
// was written under.
type fileStats struct {
	df     *manifest.DataFile
	schema *schema.Schema
}

func (f fileStats) ValueCount(id int) (int64, bool) {
	v, ok := f.df.ValueCounts[id]
	return v, ok
}
func (f fileStats) NullCount(id int) (int64, bool) {
	v, ok := f.df.NullValueCounts[id]
	return v, ok
}
func (f fileStats) NaNCount(id int) (int64, bool) {
	v, ok := f.df.NaNValueCounts[id]
	return v, ok
}
func (f fileStats) LowerBound(id int) (any, bool) {
	return f.decodeBound(f.df.LowerBounds, id)
}
func (f fileStats) UpperBound(id int) (any, bool) {
	return f.decodeBound(f.df.UpperBounds, id)
}

func (f fileStats) decodeBound(bounds map[int][]byte, id int) (any, bool) {
	raw, ok := bounds[id]
	if !ok {
		return nil, false
	}
	field := f.schema.FindFieldByID(id)
	if field == nil {
		return nil, false
	}
	v, err := manifest.DecodeBound(field.Type, raw)
	if err != nil {
		return nil, false
	}
	return v, true
}

// filePathStats is a single-column FileStats used by delete matching
// (spec.md §4.D step 8): it evaluates `file_path = d.file.file_path`
// against a candidate delete file's file_path column bounds.
type filePathStats struct {
	lower, upper string
	hasLower, hasUpper bool
}

func (s filePathStats) ValueCount(int) (int64, bool) { return 0, false }
func (s filePathStats) NullCount(int) (int64, bool)  { return 0, false }
func (s filePathStats) NaNCount(int) (int64, bool)   { return 0, false }
func (s filePathStats) LowerBound(int) (any, bool) {
	if !s.hasLower {
		return nil, false
	}
	return s.lower, true
}
func (s filePathStats) UpperBound(int) (any, bool) {
	if !s.hasUpper {
		return nil, false
	}
	return s.upper, true
}

// partitionTuple adapts a manifest.DataFile's decoded partition
// values (keyed by partition field ID) to expr.PartitionTuple.
type partitionTuple struct {
	values map[int]any
}

func (p partitionTuple) Value(id int) (any, bool) {
	v, ok := p.values[id]
	return v, ok
}

// manifestSummaries adapts a manifest.File's per-partition-field
// summaries (indexed positionally, matching spec order) to
// expr.PartitionSummaries.
type manifestSummaries struct {
	spec *partition.Spec
	file *manifest.File
}

func (m manifestSummaries) indexOf(partitionFieldID int) int {
	for i, f := range m.spec.Fields {
		if f.FieldID == partitionFieldID {
			return i
		}
	}
	return -1
}

func (m manifestSummaries) resultType(partitionFieldID int) schema.Type {
	for _, f := range m.spec.Fields {
		if f.FieldID == partitionFieldID {
			return f.Transform.ResultType(schema.Long())
		}
	}
	return schema.Long()
}

func (m manifestSummaries) ContainsNull(id int) bool {
	i := m.indexOf(id)
	if i < 0 || i >= len(m.file.Partitions) {
		return true
	}
	return m.file.Partitions[i].ContainsNull
}

func (m manifestSummaries) ContainsNaN(id int) (bool, bool) {
	i := m.indexOf(id)
	if i < 0 || i >= len(m.file.Partitions) {
		return false, false
	}
	p := m.file.Partitions[i].ContainsNaN
	if p == nil {
		return false, false
	}
	return *p, true
}

func (m manifestSummaries) LowerBound(id int) (any, bool) {
	i := m.indexOf(id)
	if i < 0 || i >= len(m.file.Partitions) || m.file.Partitions[i].LowerBound == nil {
		return nil, false
	}
	v, err := manifest.DecodeBound(m.resultType(id), m.file.Partitions[i].LowerBound)
	if err != nil {
		return nil, false
	}
	return v, true
}

func (m manifestSummaries) UpperBound(id int) (any, bool) {
	i := m.indexOf(id)
	if i < 0 || i >= len(m.file.Partitions) || m.file.Partitions[i].UpperBound == nil {
		return nil, false
	}
	v, err := manifest.DecodeBound(m.resultType(id), m.file.Partitions[i].UpperBound)
	if err != nil {
		return nil, false
	}
	return v, true
}

var _ expr.FileStats = fileStats{}
var _ expr.FileStats = filePathStats{}
var _ expr.PartitionTuple = partitionTuple{}
var _ expr.PartitionSummaries = manifestSummaries{}
