package partition

import (
	"fmt"
	"path"
	"strings"

	"digitprep/internal/config"
	"digitprep/internal/media/wav"
)

// Split is one of the three disjoint partitions of accepted samples.
type Split int

const (
	Train Split = iota
	Validation
	Test
)

// Splits lists every split in report order.
var Splits = []Split{Train, Validation, Test}

func (s Split) String() string {
	switch s {
	case Train:
		return "train"
	case Validation:
		return "validation"
	case Test:
		return "test"
	default:
		return fmt.Sprintf("split(%d)", int(s))
	}
}

// Noun returns the word used in human-facing summaries ("training", ...).
func (s Split) Noun() string {
	switch s {
	case Train:
		return "training"
	case Validation:
		return "validation"
	case Test:
		return "testing"
	default:
		return s.String()
	}
}

// ParseSplit is the inverse of Split.String.
func ParseSplit(value string) (Split, error) {
	for _, s := range Splits {
		if s.String() == value {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown split %q", value)
}

// Record is one catalog entry as reported by the corpus.
type Record struct {
	// Path is relative to the dataset directory and uses forward slashes,
	// e.g. "speech_commands_v0.02/zero/0a2b400e_nohash_0.wav".
	Path       string
	SampleRate int
	Label      string
	SpeakerID  string
	Utterance  int
}

// FileName returns the base name of the recording.
func (r Record) FileName() string {
	return path.Base(r.Path)
}

// Destination returns the relocated path "<label>/<file name>".
func (r Record) Destination() string {
	return r.Label + "/" + r.FileName()
}

// Vocabulary is the set of accepted class labels.
type Vocabulary map[string]struct{}

// NewVocabulary builds a vocabulary from labels.
func NewVocabulary(labels []string) Vocabulary {
	v := make(Vocabulary, len(labels))
	for _, label := range labels {
		v[label] = struct{}{}
	}
	return v
}

// Contains reports whether label is accepted. Matching is exact.
func (v Vocabulary) Contains(label string) bool {
	_, ok := v[label]
	return ok
}

// Rules are the acceptance criteria applied to every record.
type Rules struct {
	Vocabulary  Vocabulary
	SampleRate  int
	ClipSamples int64
}

// RulesFromConfig derives the rules from the filter section.
func RulesFromConfig(cfg *config.Config) Rules {
	return Rules{
		Vocabulary:  NewVocabulary(cfg.Filter.Classes),
		SampleRate:  cfg.Filter.SampleRate,
		ClipSamples: int64(cfg.Filter.ClipSamples),
	}
}

// RejectReason explains why a record was not accepted.
type RejectReason string

const (
	Accepted        RejectReason = ""
	OutOfVocabulary RejectReason = "out_of_vocabulary"
	WrongSampleRate RejectReason = "sample_rate"
	WrongClipLength RejectReason = "duration"
)

// RejectReasons lists every rejection reason in report order.
var RejectReasons = []RejectReason{OutOfVocabulary, WrongSampleRate, WrongClipLength}

// Admits reports whether label passes the vocabulary filter. Callers use it to
// skip probing audio that can never be accepted.
func (r Rules) Admits(label string) bool {
	return r.Vocabulary.Contains(label)
}

// CheckFormat applies the exact-format filter to probed audio.
func (r Rules) CheckFormat(info wav.Info) RejectReason {
	if int(info.SampleRate) != r.SampleRate {
		return WrongSampleRate
	}
	if info.Frames != r.ClipSamples {
		return WrongClipLength
	}
	return Accepted
}

// ReferenceSet holds line-terminated entries from a published list.
type ReferenceSet map[string]struct{}

// NewReferenceSet builds a set from lines as they appear in the list file,
// trailing newline included.
func NewReferenceSet(lines ...string) ReferenceSet {
	set := make(ReferenceSet, len(lines))
	for _, line := range lines {
		set[line] = struct{}{}
	}
	return set
}

// Contains reports exact membership of line.
func (s ReferenceSet) Contains(line string) bool {
	_, ok := s[line]
	return ok
}

// References pairs the published validation and testing lists.
type References struct {
	Validation ReferenceSet
	Test       ReferenceSet
}

// Assign picks the split for a destination path. Validation is checked before
// test; anything in neither list is training data.
func (r References) Assign(destination string) Split {
	line := ManifestLine(destination)
	switch {
	case r.Validation.Contains(line):
		return Validation
	case r.Test.Contains(line):
		return Test
	default:
		return Train
	}
}

// ManifestLine returns destination as written to manifests and reference lists.
func ManifestLine(destination string) string {
	if strings.HasSuffix(destination, "\n") {
		return destination
	}
	return destination + "\n"
}

// Placement is an accepted sample with its destination and split.
type Placement struct {
	Record      Record
	Destination string
	Split       Split
}

// Line returns the manifest entry for the placement.
func (p Placement) Line() string {
	return ManifestLine(p.Destination)
}

// Decision is the outcome for one record.
type Decision struct {
	Reason    RejectReason
	Placement Placement
}

// Accepted reports whether the record should be relocated and listed.
func (d Decision) Accepted() bool {
	return d.Reason == Accepted
}

// Decide classifies rec. It never touches the filesystem.
func Decide(rec Record, info wav.Info, refs References, rules Rules) Decision {
	if !rules.Admits(rec.Label) {
		return Decision{Reason: OutOfVocabulary}
	}
	if reason := rules.CheckFormat(info); reason != Accepted {
		return Decision{Reason: reason}
	}
	dest := rec.Destination()
	return Decision{
		Placement: Placement{
			Record:      rec,
			Destination: dest,
			Split:       refs.Assign(dest),
		},
	}
}
