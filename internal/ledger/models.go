package ledger

import (
	"errors"
	"time"

	"digitprep/internal/partition"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrRunNotFound reports an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Run is one invocation of the pipeline.
type Run struct {
	ID         string
	RootDir    string
	Status     Status
	StartedAt  time.Time
	FinishedAt *time.Time
	Counts     RunCounts
	Error      string
}

// Duration returns the wall time of a finished run, or zero.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunCounts are the totals stored when a run completes.
type RunCounts struct {
	Train      int
	Validation int
	Test       int
	Speakers   int
	Rejected   int
}

// Total returns the number of accepted samples.
func (c RunCounts) Total() int {
	return c.Train + c.Validation + c.Test
}

// Placement is a relocated clip as recorded for a run.
type Placement struct {
	RunID   string
	Seq     int
	Split   partition.Split
	Path    string
	Label   string
	Speaker string
}
