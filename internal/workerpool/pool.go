// Package workerpool provides a bounded, synchronous task pool: a
// caller submits a batch of jobs and blocks until every job completes
// or one fails, at which point the remaining jobs are cancelled. This
// is the scan planner's default Executor (spec.md §5: "public API is
// synchronous"), restructured from the async queue/dispatcher pool
// used elsewhere in this codebase into a single blocking call that
// golang.org/x/sync/errgroup plus a semaphore naturally expresses.
package workerpool

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Job is a unit of work the pool runs. ID is used for logging only.
type Job interface {
	Execute(ctx context.Context) error
	ID() string
}

// Pool runs a batch of jobs with bounded concurrency, blocking the
// caller until all have completed (or the first failure cancels the
// rest).
type Pool struct {
	name       string
	maxWorkers int
	sem        *semaphore.Weighted
}

// Config configures a Pool.
type Config struct {
	// Name is used for logging.
	Name string
	// MaxWorkers bounds concurrent jobs. Default: 10.
	MaxWorkers int
}

func New(cfg Config) *Pool {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 10
	}
	if cfg.Name == "" {
		cfg.Name = "worker-pool"
	}
	return &Pool{name: cfg.Name, maxWorkers: cfg.MaxWorkers, sem: semaphore.NewWeighted(int64(cfg.MaxWorkers))}
}

// Run executes every job in jobs with at most MaxWorkers running
// concurrently, and returns the first error encountered. It blocks
// until all jobs have either completed or been cancelled.
func (p *Pool) Run(ctx context.Context, jobs []Job) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		job := job
		if err := p.sem.Acquire(ctx, 1); err != nil {
			if werr := g.Wait(); werr != nil {
				return werr
			}
			return err
		}
		g.Go(func() error {
			defer p.sem.Release(1)
			return p.executeJob(ctx, job)
		})
	}
	return g.Wait()
}

func (p *Pool) executeJob(ctx context.Context, job Job) error {
	start := time.Now()
	err := job.Execute(ctx)
	duration := time.Since(start)

	if err != nil {
		log.Error().Str("pool", p.name).Str("job_id", job.ID()).Err(err).Dur("duration", duration).Msg("job failed")
		return err
	}
	log.Debug().Str("pool", p.name).Str("job_id", job.ID()).Dur("duration", duration).Msg("job completed")
	return nil
}
