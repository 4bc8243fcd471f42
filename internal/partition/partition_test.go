package partition_test

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"digitprep/internal/config"
	"digitprep/internal/media/wav"
	"digitprep/internal/partition"
	"digitprep/internal/testsupport"
)

func digitRules() partition.Rules {
	return partition.Rules{
		Vocabulary:  partition.NewVocabulary(config.DigitClasses),
		SampleRate:  16000,
		ClipSamples: 16000,
	}
}

func oneSecond() wav.Info {
	return wav.Info{FormatTag: wav.FormatPCM, Channels: 1, SampleRate: 16000, BitsPerSample: 16, BlockAlign: 2, Frames: 16000}
}

func record(label, file string) partition.Record {
	return partition.Record{
		Path:       "speech_commands_v0.02/" + label + "/" + file,
		SampleRate: 16000,
		Label:      label,
		SpeakerID:  strings.SplitN(file, "_nohash_", 2)[0],
	}
}

func TestDecideRejections(t *testing.T) {
	rules := digitRules()
	refs := partition.References{}

	tests := []struct {
		name   string
		rec    partition.Record
		info   wav.Info
		reason partition.RejectReason
	}{
		{"out of vocabulary", record("bed", "a_nohash_0.wav"), oneSecond(), partition.OutOfVocabulary},
		{"case sensitive label", record("Zero", "a_nohash_0.wav"), oneSecond(), partition.OutOfVocabulary},
		{"wrong sample rate", record("one", "a_nohash_0.wav"), wav.Info{SampleRate: 8000, Frames: 16000}, partition.WrongSampleRate},
		{"short clip", record("two", "a_nohash_0.wav"), wav.Info{SampleRate: 16000, Frames: 15999}, partition.WrongClipLength},
		{"long clip", record("two", "a_nohash_0.wav"), wav.Info{SampleRate: 16000, Frames: 16001}, partition.WrongClipLength},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := partition.Decide(tc.rec, tc.info, refs, rules)
			if decision.Accepted() {
				t.Fatalf("expected rejection, got placement %+v", decision.Placement)
			}
			if decision.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", decision.Reason, tc.reason)
			}
		})
	}
}

func TestDecideAssignsSplitsValidationFirst(t *testing.T) {
	refs := partition.References{
		Validation: partition.NewReferenceSet("zero/a_nohash_0.wav\n", "three/both_nohash_0.wav\n"),
		Test:       partition.NewReferenceSet("one/b_nohash_1.wav\n", "three/both_nohash_0.wav\n"),
	}

	tests := []struct {
		rec  partition.Record
		want partition.Split
	}{
		{record("zero", "a_nohash_0.wav"), partition.Validation},
		{record("one", "b_nohash_1.wav"), partition.Test},
		{record("three", "both_nohash_0.wav"), partition.Validation},
		{record("nine", "c_nohash_0.wav"), partition.Train},
	}
	for _, tc := range tests {
		decision := partition.Decide(tc.rec, oneSecond(), refs, digitRules())
		if !decision.Accepted() {
			t.Fatalf("%s rejected: %q", tc.rec.Path, decision.Reason)
		}
		if decision.Placement.Split != tc.want {
			t.Fatalf("%s split = %s, want %s", tc.rec.Path, decision.Placement.Split, tc.want)
		}
		wantDest := tc.rec.Label + "/" + tc.rec.FileName()
		if decision.Placement.Destination != wantDest {
			t.Fatalf("destination = %q, want %q", decision.Placement.Destination, wantDest)
		}
		if decision.Placement.Line() != wantDest+"\n" {
			t.Fatalf("line = %q", decision.Placement.Line())
		}
	}
}

func TestAssignMatchesLiteralLines(t *testing.T) {
	// Entries are compared with their terminator, so padded or CRLF lines never match.
	refs := partition.References{
		Validation: partition.NewReferenceSet("zero/a_nohash_0.wav \n", "zero/b_nohash_0.wav\r\n"),
		Test:       partition.NewReferenceSet("zero/c_nohash_0.wav"),
	}
	for _, dest := range []string{"zero/a_nohash_0.wav", "zero/b_nohash_0.wav", "zero/c_nohash_0.wav"} {
		if got := refs.Assign(dest); got != partition.Train {
			t.Fatalf("Assign(%q) = %s, want train", dest, got)
		}
	}
}

func TestLoadReferenceListKeepsTerminators(t *testing.T) {
	path := filepath.Join(t.TempDir(), "validation_list.txt")
	testsupport.WriteLines(t, path, []string{"zero/a_nohash_0.wav", "one/b_nohash_0.wav"})

	set, err := partition.LoadReferenceList(path)
	if err != nil {
		t.Fatalf("LoadReferenceList: %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(set))
	}
	if !set.Contains("zero/a_nohash_0.wav\n") {
		t.Fatal("expected newline-terminated entry")
	}
	if set.Contains("zero/a_nohash_0.wav") {
		t.Fatal("bare entry must not match")
	}
}

func TestReadReferenceSetKeepsUnterminatedLastLine(t *testing.T) {
	set, err := partition.ReadReferenceSet(strings.NewReader("zero/a_nohash_0.wav\none/b_nohash_0.wav"))
	if err != nil {
		t.Fatalf("ReadReferenceSet: %v", err)
	}
	if !set.Contains("zero/a_nohash_0.wav\n") || !set.Contains("one/b_nohash_0.wav") {
		t.Fatalf("unexpected set: %v", set)
	}
	refs := partition.References{Validation: set}
	if got := refs.Assign("one/b_nohash_0.wav"); got != partition.Train {
		t.Fatalf("unterminated last line matched: %s", got)
	}
}

func TestLoadReferenceListsMissingFile(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteLines(t, filepath.Join(dir, "validation_list.txt"), nil)

	_, err := partition.LoadReferenceLists(filepath.Join(dir, "validation_list.txt"), filepath.Join(dir, "testing_list.txt"))
	if !errors.Is(err, partition.ErrMissingReferenceList) {
		t.Fatalf("expected ErrMissingReferenceList, got %v", err)
	}
	if !strings.Contains(err.Error(), "testing list") {
		t.Fatalf("error should name the testing list: %v", err)
	}
}

func TestParseSplitRoundTrip(t *testing.T) {
	for _, split := range partition.Splits {
		got, err := partition.ParseSplit(split.String())
		if err != nil || got != split {
			t.Fatalf("ParseSplit(%q) = %v, %v", split.String(), got, err)
		}
	}
	if _, err := partition.ParseSplit("holdout"); err == nil {
		t.Fatal("expected error for unknown split")
	}
	if partition.Test.Noun() != "testing" || partition.Train.Noun() != "training" {
		t.Fatal("unexpected split nouns")
	}
}

func TestRulesFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithClasses("yes", "no"))
	rules := partition.RulesFromConfig(cfg)
	if !rules.Admits("yes") || rules.Admits("zero") {
		t.Fatal("vocabulary not taken from config")
	}
	if rules.SampleRate != 16000 || rules.ClipSamples != 16000 {
		t.Fatalf("unexpected format rules: %+v", rules)
	}
}
