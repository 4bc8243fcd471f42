package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"digitprep/internal/config"
	"digitprep/internal/partition"
)

// Manifest is the ordered list of newline-terminated destination paths of one
// split.
type Manifest []string

// Collector owns the in-memory manifests and speaker sets during a run.
type Collector struct {
	manifests map[partition.Split]Manifest
	speakers  map[partition.Split]map[string]struct{}
}

// NewCollector returns an empty collector with every split present.
func NewCollector() *Collector {
	c := &Collector{
		manifests: make(map[partition.Split]Manifest, len(partition.Splits)),
		speakers:  make(map[partition.Split]map[string]struct{}, len(partition.Splits)),
	}
	for _, split := range partition.Splits {
		c.manifests[split] = Manifest{}
		c.speakers[split] = make(map[string]struct{})
	}
	return c
}

// Add appends the placement's line to its split and tallies the speaker.
func (c *Collector) Add(p partition.Placement) {
	c.manifests[p.Split] = append(c.manifests[p.Split], p.Line())
	c.speakers[p.Split][p.Record.SpeakerID] = struct{}{}
}

// Manifest returns the lines collected for split.
func (c *Collector) Manifest(split partition.Split) Manifest {
	return c.manifests[split]
}

// SplitSummary holds the counts for one split.
type SplitSummary struct {
	Split    partition.Split
	Samples  int
	Speakers int
}

// Summary is the aggregate report of a run.
type Summary struct {
	Splits        []SplitSummary
	TotalSamples  int
	TotalSpeakers int
}

// For returns the counts of split, or zero counts when absent.
func (s Summary) For(split partition.Split) SplitSummary {
	for _, entry := range s.Splits {
		if entry.Split == split {
			return entry
		}
	}
	return SplitSummary{Split: split}
}

// Summarize computes per-split and total counts. The speaker total is the size
// of the union of the per-split speaker sets.
func (c *Collector) Summarize() Summary {
	var summary Summary
	union := make(map[string]struct{})
	for _, split := range partition.Splits {
		speakers := c.speakers[split]
		for id := range speakers {
			union[id] = struct{}{}
		}
		entry := SplitSummary{
			Split:    split,
			Samples:  len(c.manifests[split]),
			Speakers: len(speakers),
		}
		summary.Splits = append(summary.Splits, entry)
		summary.TotalSamples += entry.Samples
	}
	summary.TotalSpeakers = len(union)
	return summary
}

// Write truncates path and writes every line verbatim.
func Write(path string, m Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create manifest: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, line := range m {
		if _, err := w.WriteString(line); err != nil {
			f.Close()
			return fmt.Errorf("write manifest %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush manifest %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close manifest %s: %w", path, err)
	}
	return nil
}

// Read returns the lines of a manifest file with their terminators.
func Read(path string) (Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	m := Manifest{}
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			m = append(m, line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return m, nil
			}
			return nil, fmt.Errorf("read manifest %s: %w", path, err)
		}
	}
}

// FileName returns the configured manifest file name for split.
func FileName(names config.Manifests, split partition.Split) string {
	switch split {
	case partition.Validation:
		return names.Validation
	case partition.Test:
		return names.Test
	default:
		return names.Train
	}
}

// WriteAll writes the three manifests into dir and returns the written paths
// keyed by split.
func WriteAll(dir string, names config.Manifests, c *Collector) (map[partition.Split]string, error) {
	paths := make(map[partition.Split]string, len(partition.Splits))
	for _, split := range partition.Splits {
		path := filepath.Join(dir, FileName(names, split))
		if err := Write(path, c.Manifest(split)); err != nil {
			return nil, fmt.Errorf("%s manifest: %w", split, err)
		}
		paths[split] = path
	}
	return paths, nil
}
