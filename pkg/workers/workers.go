package workers

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/1F47E/go-gibsreel/pkg/assembler"
	"github.com/1F47E/go-gibsreel/pkg/job"
	"github.com/1F47E/go-gibsreel/pkg/logger"
)

var log = logger.Log

// AssembleFunc turns one job into one artifact. It must not share an
// assembler between calls.
type AssembleFunc func(j job.Job) (assembler.Artifact, error)

// Worker runs independent assembly jobs with bounded parallelism.
type Worker struct {
	ctx      context.Context
	parallel int
	assemble AssembleFunc
}

func NewWorker(ctx context.Context, parallel int, fn AssembleFunc) *Worker {
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}
	return &Worker{
		ctx:      ctx,
		parallel: parallel,
		assemble: fn,
	}
}

// Run assembles every job and returns the results in job order. A failed
// job does not stop the others; cancelling the context stops jobs that have
// not started yet, a running assembly always completes.
func (w *Worker) Run(jobs []job.Job) []job.Result {
	results := make([]job.Result, len(jobs))
	g := new(errgroup.Group)
	g.SetLimit(w.parallel)

	for i, j := range jobs {
		if err := w.ctx.Err(); err != nil {
			results[i] = job.Result{Idx: j.Idx, Dir: j.Dir, Err: fmt.Errorf("not started: %w", err)}
			continue
		}
		i, j := i, j
		g.Go(func() error {
			name := fmt.Sprintf("Worker #%d", i+1)
			if err := w.ctx.Err(); err != nil {
				results[i] = job.Result{Idx: j.Idx, Dir: j.Dir, Err: fmt.Errorf("not started: %w", err)}
				return nil
			}
			log.Debugf("%s got %s", name, j.Print())
			now := time.Now()
			a, err := w.assemble(j)
			results[i] = job.Result{Idx: j.Idx, Dir: j.Dir, Artifact: a, Err: err}
			log.Debugf("%s done. Took time: %s", name, time.Since(now))
			return nil
		})
	}
	// jobs report failures through their results
	_ = g.Wait()
	return results
}
