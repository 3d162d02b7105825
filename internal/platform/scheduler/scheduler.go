// Package scheduler runs named maintenance tasks on a fixed interval.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Task is one unit of periodic work. Returning an error marks the tick
// as failed for that task without affecting the others.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runner executes its tasks every interval until the context is
// cancelled. A tick that is still running when the next one arrives is
// not stacked: the new tick is skipped and logged.
type Runner struct {
	interval time.Duration
	tasks    []Task
	log      zerolog.Logger
	running  atomic.Bool
}

// NewRunner creates a runner over the given tasks.
func NewRunner(interval time.Duration, log zerolog.Logger, tasks ...Task) *Runner {
	return &Runner{
		interval: interval,
		tasks:    tasks,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

// Start blocks, ticking until ctx is cancelled. The first tick fires
// after one full interval.
func (r *Runner) Start(ctx context.Context) {
	r.log.Info().Dur("interval", r.interval).Int("tasks", len(r.tasks)).Msg("scheduler started")
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("scheduler stopped")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// RunOnce executes every task a single time, for one-shot maintenance
// commands.
func (r *Runner) RunOnce(ctx context.Context) {
	r.tick(ctx)
}

func (r *Runner) tick(ctx context.Context) {
	if !r.running.CompareAndSwap(false, true) {
		r.log.Warn().Msg("previous tick still running, skipping")
		return
	}
	defer r.running.Store(false)

	for _, task := range r.tasks {
		if ctx.Err() != nil {
			return
		}
		if err := task.Run(ctx); err != nil {
			r.log.Error().Err(err).Str("task", task.Name).Msg("task failed")
		}
	}
}
