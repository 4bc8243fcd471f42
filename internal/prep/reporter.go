package prep

import (
	"io"

	"digitprep/internal/manifest"
)

// Counter tracks progress of a bounded step. *progressbar.ProgressBar
// satisfies it.
type Counter interface {
	io.Writer
	Add(n int) error
	Finish() error
}

// Reporter receives human-facing progress and the final summary.
type Reporter interface {
	Stage(message string)
	Counter(description string, total int64) Counter
	Report(summary manifest.Summary)
}

type nopReporter struct{}

func (nopReporter) Stage(string)                  {}
func (nopReporter) Counter(string, int64) Counter { return nopCounter{} }
func (nopReporter) Report(manifest.Summary)       {}

type nopCounter struct{}

func (nopCounter) Write(p []byte) (int, error) { return len(p), nil }
func (nopCounter) Add(int) error               { return nil }
func (nopCounter) Finish() error               { return nil }
