package core

import (
	"errors"
	"fmt"

	"github.com/1F47E/go-gibsreel/internal/storage"
	"github.com/1F47E/go-gibsreel/pkg/assembler"
	"github.com/1F47E/go-gibsreel/pkg/config"
	"github.com/1F47E/go-gibsreel/pkg/core/progress"
	"github.com/1F47E/go-gibsreel/pkg/job"
	"github.com/1F47E/go-gibsreel/pkg/workers"
)

// Assemble turns the frame files of dir, in name order, into one video.
// Frames are decoded one at a time and dropped once the encoder has them.
func (c *Core) Assemble(dir string, extra ...assembler.Option) (assembler.Artifact, error) {
	return c.assemble(dir, c.quiet, extra...)
}

func (c *Core) assemble(dir string, quiet bool, extra ...assembler.Option) (assembler.Artifact, error) {
	log := c.log.WithField("dir", dir)

	files, err := storage.ScanFrames(dir)
	if err != nil {
		return assembler.Artifact{}, err
	}
	log.Debugf("total frames: %d", len(files))

	bar := progress.New(len(files), "Assembling...", quiet)
	defer bar.Finish()

	opts := make([]assembler.Option, 0, len(c.opts)+len(extra)+3)
	opts = append(opts, c.opts...)
	opts = append(opts,
		assembler.WithMetrics(c.metrics),
		assembler.WithLogger(log.WithField("scope", "assembler")),
		assembler.WithOnFrame(bar.Set),
	)
	opts = append(opts, extra...)

	a, err := assembler.New(c.cfg.Frames.Width, c.cfg.Frames.Height, c.enc, opts...)
	if err != nil {
		return assembler.Artifact{}, err
	}
	if err := a.Open(); err != nil {
		return assembler.Artifact{}, err
	}
	for _, file := range files {
		f, err := storage.FrameRead(file)
		if err != nil {
			return assembler.Artifact{}, a.Abort(err)
		}
		if err := a.Append(f); err != nil {
			return assembler.Artifact{}, err
		}
	}
	bar.Describe("Finalizing...")
	return a.Finalize()
}

// Batch assembles every dir into its own video, in parallel. Results come
// back in dirs order.
func (c *Core) Batch(dirs []string) ([]job.Result, error) {
	if len(dirs) == 0 {
		return nil, errors.New("no frame directories given")
	}
	if c.cfg.Output.Naming == config.NamingFixed && len(dirs) > 1 {
		return nil, fmt.Errorf("fixed artifact name %q cannot be used for %d videos", c.cfg.Output.Name, len(dirs))
	}

	jobs := make([]job.Job, len(dirs))
	for i, d := range dirs {
		jobs[i] = job.New(i, d)
	}
	w := workers.NewWorker(c.ctx, c.cfg.Workers.Parallel, func(j job.Job) (assembler.Artifact, error) {
		return c.assemble(j.Dir, true)
	})
	c.log.Debugf("Starting %d jobs, %d at a time", len(jobs), c.cfg.Workers.Parallel)
	return w.Run(jobs), nil
}
