package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Input is one source document of a batch.
type Input struct {
	Name string
	Data []byte
}

// Output pairs an input name with its result.
type Output struct {
	Name   string
	Result *Result
}

// TransformBatch transforms inputs concurrently, bounded by WithWorkers.
// Outputs are in input order. Cancellation is observed between documents:
// a document already started always completes, and the context error is
// returned with the outputs finished so far (unfinished ones have a nil
// Result).
func (e *Engine) TransformBatch(ctx context.Context, inputs []Input) ([]Output, error) {
	runID := uuid.NewString()
	log := e.log.With().Str("run_id", runID).Logger()
	start := time.Now()

	log.Debug().Int("inputs", len(inputs)).Int("workers", e.opts.workers).Msg("batch started")

	outputs := make([]Output, len(inputs))
	for i, in := range inputs {
		outputs[i].Name = in.Name
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.workers)

	for i, in := range inputs {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			outputs[i].Result = e.TransformJSON(in.Data)

			return nil
		})
	}

	err := g.Wait()

	failed, skipped := 0, 0

	for _, o := range outputs {
		switch {
		case o.Result == nil:
			skipped++
		case o.Result.ExitCode() != ExitOK:
			failed++
		}
	}

	if err == nil && skipped > 0 {
		err = ctx.Err()
	}

	log.Debug().
		Int("inputs", len(inputs)).
		Int("with_errors", failed).
		Int("skipped", skipped).
		Dur("elapsed", time.Since(start)).
		Err(err).
		Msg("batch finished")

	if err != nil {
		return outputs, fmt.Errorf("batch %s: %w", runID, err)
	}

	return outputs, nil
}
