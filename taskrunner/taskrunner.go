// Package taskrunner implements the §6 task-runner primitive the core
// consumes: map(F, tasks, parallelism) -> results, invoking F for each task
// with bounded concurrency and returning results in task order.
//
// The real system runs this over a FaaS dispatcher (the teacher's
// srkmgr-backed InvokeFaasSort); §1 scopes that dispatcher out as an
// external collaborator. This package supplies the in-process equivalent,
// built on golang.org/x/sync/errgroup the same way aistore's dsort package
// bounds concurrent per-shard work, so the coordinator can run against a
// local worker pool without any FaaS runtime at all.
package taskrunner

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run invokes fn(tasks[i]) for every i with at most parallelism concurrent
// calls in flight, and returns results in the same order as tasks. If
// parallelism <= 0, it is treated as unbounded (errgroup.SetLimit(-1)).
//
// The first error returned by any fn call is returned, after all
// in-flight calls have completed; per §5 there is no partial-retry or
// cancellation behavior beyond what errgroup.Group gives us via ctx.
func Run[T any, R any](ctx context.Context, tasks []T, parallelism int, fn func(context.Context, T) (R, error)) ([]R, error) {
	results := make([]R, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			r, err := fn(gctx, task)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
