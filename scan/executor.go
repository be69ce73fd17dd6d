package scan

import (
	"context"

	"github.com/marmotdata/icecore/internal/workerpool"
)

// Executor runs a batch of manifest-opening jobs with whatever
// concurrency policy it chooses; the planner's public API stays
// synchronous regardless (spec.md §5).
type Executor interface {
	Run(ctx context.Context, jobs []Job) error
}

// Job is one unit of planner work (opening and filtering a manifest).
type Job interface {
	Execute(ctx context.Context) error
	ID() string
}

// InlineExecutor runs jobs one at a time on the calling goroutine.
// Tests substitute this for determinism, per spec.md's design notes
// on global/shared state.
type InlineExecutor struct{}

func (InlineExecutor) Run(ctx context.Context, jobs []Job) error {
	for _, j := range jobs {
		if err := j.Execute(ctx); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// PoolExecutor adapts internal/workerpool.Pool to Executor. It is the
// default executor used by a live planner.
type PoolExecutor struct {
	pool *workerpool.Pool
}

func NewPoolExecutor(maxWorkers int) *PoolExecutor {
	return &PoolExecutor{pool: workerpool.New(workerpool.Config{Name: "scan-planner", MaxWorkers: maxWorkers})}
}

func (e *PoolExecutor) Run(ctx context.Context, jobs []Job) error {
	wrapped := make([]workerpool.Job, len(jobs))
	for i, j := range jobs {
		wrapped[i] = j
	}
	return e.pool.Run(ctx, wrapped)
}
