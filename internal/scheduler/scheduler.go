// Package scheduler runs independent crawl tasks under a fixed concurrency
// ceiling. One task's failure never stops its siblings.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of tasks allowed in flight per source.
const DefaultConcurrency = 3

// Task is one unit of work bound to a single remote resource.
type Task[T any] struct {
	Key string
	Run func(ctx context.Context) (T, error)
}

// Outcome is the settled result of a Task.
type Outcome[T any] struct {
	Key   string
	Value T
	Err   error
}

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Key   string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %s panicked: %v", e.Key, e.Value)
}

// Run executes tasks with at most limit in flight and returns once every task
// has settled. Outcomes are in task order. Failed tasks are logged at WARN with
// their key. Tasks that have not started when ctx is done settle with ctx.Err().
func Run[T any](ctx context.Context, tasks []Task[T], limit int, logger *slog.Logger) []Outcome[T] {
	if limit < 1 {
		limit = 1
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	outcomes := make([]Outcome[T], len(tasks))

	// Plain Group, not WithContext: a failing task must not cancel the others.
	var g errgroup.Group
	g.SetLimit(limit)

	for i, task := range tasks {
		g.Go(func() error {
			out := runTask(ctx, task)
			if out.Err != nil {
				logger.Warn("task failed", "key", task.Key, "error", out.Err)
			}
			outcomes[i] = out
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func runTask[T any](ctx context.Context, task Task[T]) (out Outcome[T]) {
	out.Key = task.Key
	if err := ctx.Err(); err != nil {
		out.Err = err
		return out
	}
	defer func() {
		if r := recover(); r != nil {
			out.Err = &PanicError{Key: task.Key, Value: r}
		}
	}()
	out.Value, out.Err = task.Run(ctx)
	return out
}

// Split separates successful values from failures, keeping task order.
func Split[T any](outcomes []Outcome[T]) (values []T, failed int) {
	values = make([]T, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			continue
		}
		values = append(values, o.Value)
	}
	return values, failed
}
