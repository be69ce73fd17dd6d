// Package scan implements the scan planner (spec.md §4.D): partition
// and manifest pruning, sequence-number discipline, and positional
// delete-to-data-file matching, producing a deterministic set of
// file-scan tasks.
package scan

import (
	"github.com/marmotdata/icecore/manifest"
	"github.com/marmotdata/icecore/schema"
)

// FileScanTask pairs one data file with the positional delete files
// that apply to it.
type FileScanTask struct {
	DataFile    *manifest.DataFile
	DeleteFiles []*manifest.DataFile
	Start       int64
	Length      int64
	Schema      *schema.Schema
	SpecID      int
}
