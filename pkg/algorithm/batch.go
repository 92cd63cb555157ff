package algorithm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyerfyer/fault-diag/pkg/circuit"
	"github.com/fyerfyer/fault-diag/pkg/utils"
)

// Job is one evaluation request of a batch
type Job struct {
	Inputs map[string]bool
	Faults FaultSet
}

// Result is the outcome of one Job, at the same index as its job
type Result struct {
	Outputs map[string]bool
	Err     error
}

// EvaluateBatch evaluates jobs on up to workers goroutines. Every worker
// simulates its own clone of c, so c itself is never mutated. A failed job
// records its error in its Result; only context cancellation aborts the
// batch.
func EvaluateBatch(ctx context.Context, c *circuit.Circuit, jobs []Job, workers int, logger *utils.Logger) ([]Result, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	results := make([]Result, len(jobs))
	next := make(chan int)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(next)
		for i := range jobs {
			select {
			case next <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		sim := NewSimulator(c.Clone(), logger)
		g.Go(func() error {
			for i := range next {
				if err := ctx.Err(); err != nil {
					return err
				}
				out, err := sim.Evaluate(jobs[i].Inputs, jobs[i].Faults)
				if err != nil {
					results[i] = Result{Err: fmt.Errorf("job %d: %w", i, err)}
					continue
				}
				results[i] = Result{Outputs: out}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Algorithm("batch complete",
		zap.String("circuit", c.Name),
		zap.Int("jobs", len(jobs)),
		zap.Int("workers", workers))
	return results, nil
}
