package job

import (
	"fmt"

	"github.com/1F47E/go-gibsreel/pkg/assembler"
)

// Job is one directory of frames to assemble into one video
type Job struct {
	Idx int
	Dir string
}

// Result of a job, Idx matches the job
type Result struct {
	Idx      int
	Dir      string
	Artifact assembler.Artifact
	Err      error
}

func New(idx int, dir string) Job {
	return Job{Idx: idx, Dir: dir}
}

func (j Job) Print() string {
	return fmt.Sprintf("Job #%d: %s", j.Idx, j.Dir)
}

func (r Result) Print() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: failed: %v", r.Dir, r.Err)
	}
	return fmt.Sprintf("%s: %s (%d frames, %dx%d)", r.Dir, r.Artifact.Path, r.Artifact.Frames, r.Artifact.Width, r.Artifact.Height)
}
