package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"digitprep/internal/manifest"
	"digitprep/internal/partition"
	"digitprep/internal/prep"
)

// consoleReporter prints stages and the summary to out. Progress bars are
// drawn on progress only when it is a terminal.
type consoleReporter struct {
	out      io.Writer
	progress io.Writer
}

func newConsoleReporter(out, progress io.Writer) *consoleReporter {
	if !isTerminal(progress) {
		progress = nil
	}
	return &consoleReporter{out: out, progress: progress}
}

func (r *consoleReporter) Stage(message string) {
	fmt.Fprintln(r.out, message)
}

func (r *consoleReporter) Counter(description string, total int64) prep.Counter {
	if r.progress == nil {
		return silentCounter{}
	}
	opts := []progressbar.Option{
		progressbar.OptionSetWriter(r.progress),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100 * time.Millisecond),
		progressbar.OptionClearOnFinish(),
	}
	if description == "downloading" {
		opts = append(opts, progressbar.OptionShowBytes(true))
	}
	return progressbar.NewOptions64(total, opts...)
}

func (r *consoleReporter) Report(summary manifest.Summary) {
	fmt.Fprintln(r.out, renderSummary(summary))
}

// renderSummary tabulates samples and distinct speakers per split with a
// totals row. The speaker total is the union across splits.
func renderSummary(summary manifest.Summary) string {
	title := cases.Title(language.English)
	rows := make([][]string, 0, len(partition.Splits))
	for _, split := range partition.Splits {
		s := summary.For(split)
		rows = append(rows, []string{
			title.String(split.Noun()),
			strconv.Itoa(s.Samples),
			strconv.Itoa(s.Speakers),
		})
	}
	return renderTable(
		[]string{"Split", "Samples", "Speakers"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
		"Total", strconv.Itoa(summary.TotalSamples), strconv.Itoa(summary.TotalSpeakers),
	)
}

type silentCounter struct{}

func (silentCounter) Write(p []byte) (int, error) { return len(p), nil }
func (silentCounter) Add(int) error               { return nil }
func (silentCounter) Finish() error               { return nil }

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
