package prep_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/gofrs/flock"

	"digitprep/internal/fileutil"
	"digitprep/internal/ledger"
	"digitprep/internal/manifest"
	"digitprep/internal/partition"
	"digitprep/internal/prep"
	"digitprep/internal/testsupport"
)

type recordingReporter struct {
	stages  []string
	reports []manifest.Summary
}

func (r *recordingReporter) Stage(message string) { r.stages = append(r.stages, message) }

func (r *recordingReporter) Counter(string, int64) prep.Counter { return &countingCounter{} }

func (r *recordingReporter) Report(summary manifest.Summary) {
	r.reports = append(r.reports, summary)
}

type countingCounter struct{ n int }

func (c *countingCounter) Write(p []byte) (int, error) { return len(p), nil }

func (c *countingCounter) Add(n int) error {
	c.n += n
	return nil
}

func (c *countingCounter) Finish() error { return nil }

func readManifest(t *testing.T, path string) manifest.Manifest {
	t.Helper()
	m, err := manifest.Read(path)
	if err != nil {
		t.Fatalf("read manifest %s: %v", path, err)
	}
	return m
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestRunThreeRecordScenario(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	clips := []testsupport.Clip{
		{Label: "zero", Speaker: "aaaa1111", Utterance: 0, SampleRate: 16000, Frames: 16000},
		{Label: "one", Speaker: "bbbb2222", Utterance: 0, SampleRate: 8000, Frames: 16000},
		{Label: "bed", Speaker: "cccc3333", Utterance: 0, SampleRate: 16000, Frames: 16000},
	}
	testsupport.WriteCorpus(t, cfg.ExtractedDir(), clips, []string{clips[0].RelPath()}, nil)

	reporter := &recordingReporter{}
	result, err := prep.Run(context.Background(), cfg, prep.Options{Reporter: reporter, RunID: "scenario"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	dataset := cfg.DatasetDir()
	if got := readManifest(t, filepath.Join(dataset, "val.txt")); !reflect.DeepEqual(got, manifest.Manifest{"zero/aaaa1111_nohash_0.wav\n"}) {
		t.Fatalf("val.txt = %q", got)
	}
	for _, name := range []string{"train.txt", "test.txt"} {
		if got := readManifest(t, filepath.Join(dataset, name)); len(got) != 0 {
			t.Fatalf("%s should be empty, got %q", name, got)
		}
	}

	if !exists(filepath.Join(dataset, "zero", "aaaa1111_nohash_0.wav")) {
		t.Fatal("accepted clip was not relocated")
	}
	if exists(filepath.Join(dataset, "one", "bbbb2222_nohash_0.wav")) {
		t.Fatal("wrong-rate clip must not be relocated")
	}
	if exists(filepath.Join(dataset, "bed")) {
		t.Fatal("out-of-vocabulary class folder must not be created")
	}
	for _, class := range cfg.Filter.Classes {
		if !exists(filepath.Join(dataset, class)) {
			t.Fatalf("class folder %s missing", class)
		}
	}
	if exists(cfg.ExtractedDir()) {
		t.Fatal("extracted tree should be removed")
	}

	summary := result.Summary
	if summary.For(partition.Validation).Samples != 1 || summary.For(partition.Train).Samples != 0 || summary.For(partition.Test).Samples != 0 {
		t.Fatalf("unexpected split counts: %+v", summary.Splits)
	}
	if summary.TotalSamples != 1 || summary.TotalSpeakers != 1 {
		t.Fatalf("unexpected totals: %+v", summary)
	}
	if result.Scanned != 3 || result.RejectedTotal() != 2 {
		t.Fatalf("scanned=%d rejected=%d", result.Scanned, result.RejectedTotal())
	}
	if result.Rejected[partition.OutOfVocabulary] != 1 || result.Rejected[partition.WrongSampleRate] != 1 {
		t.Fatalf("unexpected rejections: %v", result.Rejected)
	}

	if len(reporter.reports) != 1 || !reflect.DeepEqual(reporter.reports[0], summary) {
		t.Fatalf("reporter saw %+v", reporter.reports)
	}
	if last := reporter.stages[len(reporter.stages)-1]; last != "Removing original dataset..." {
		t.Fatalf("cleanup should be the last stage, got %q", last)
	}

	store := testsupport.MustOpenLedger(t, cfg)
	run, err := store.GetRun(context.Background(), "scenario")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	want := ledger.RunCounts{Validation: 1, Speakers: 1, Rejected: 2}
	if run.Status != ledger.StatusCompleted || run.Counts != want {
		t.Fatalf("ledger run = %+v", run)
	}
}

func TestRunPartitionsAgainstReferenceLists(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutLedger())
	clips := []testsupport.Clip{
		{Label: "two", Speaker: "s1", Utterance: 0, SampleRate: 16000, Frames: 16000},
		{Label: "two", Speaker: "s2", Utterance: 0, SampleRate: 16000, Frames: 16000},
		{Label: "three", Speaker: "s1", Utterance: 1, SampleRate: 16000, Frames: 16000},
		{Label: "four", Speaker: "s3", Utterance: 0, SampleRate: 16000, Frames: 15999},
		{Label: "five", Speaker: "s4", Utterance: 0, SampleRate: 16000, Frames: 16000},
		{Label: "left", Speaker: "s5", Utterance: 0, SampleRate: 16000, Frames: 16000},
	}
	validation := []string{clips[1].RelPath(), clips[5].RelPath()}
	tests := []string{clips[2].RelPath(), clips[3].RelPath()}
	testsupport.WriteCorpus(t, cfg.ExtractedDir(), clips, validation, tests)

	result, err := prep.Run(context.Background(), cfg, prep.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	manifests := map[partition.Split]manifest.Manifest{}
	for split, path := range result.Manifests {
		manifests[split] = readManifest(t, path)
	}
	// Catalog order is sorted by path, so five < three < two.
	want := map[partition.Split]manifest.Manifest{
		partition.Train:      {"five/s4_nohash_0.wav\n", "two/s1_nohash_0.wav\n"},
		partition.Validation: {"two/s2_nohash_0.wav\n"},
		partition.Test:       {"three/s1_nohash_1.wav\n"},
	}
	if !reflect.DeepEqual(manifests, want) {
		t.Fatalf("manifests = %q, want %q", manifests, want)
	}

	// Pairwise disjoint and union equals the relocated files.
	var union []string
	seen := map[string]bool{}
	for _, m := range manifests {
		for _, line := range m {
			if seen[line] {
				t.Fatalf("%q appears in more than one manifest", line)
			}
			seen[line] = true
			union = append(union, line[:len(line)-1])
		}
	}
	var relocated []string
	for _, class := range cfg.Filter.Classes {
		entries, err := os.ReadDir(filepath.Join(cfg.DatasetDir(), class))
		if err != nil {
			t.Fatalf("read class %s: %v", class, err)
		}
		for _, e := range entries {
			relocated = append(relocated, class+"/"+e.Name())
		}
	}
	sort.Strings(union)
	sort.Strings(relocated)
	if !reflect.DeepEqual(union, relocated) {
		t.Fatalf("manifest union %v != relocated %v", union, relocated)
	}

	if got := result.Summary.For(partition.Train).Speakers; got != 2 {
		t.Fatalf("train speakers = %d, want 2", got)
	}
	// s1 is in train and test but counts once.
	if result.Summary.TotalSpeakers != 3 {
		t.Fatalf("total speakers = %d, want 3", result.Summary.TotalSpeakers)
	}
	if result.Rejected[partition.WrongClipLength] != 1 || result.Rejected[partition.OutOfVocabulary] != 1 {
		t.Fatalf("unexpected rejections: %v", result.Rejected)
	}
}

func TestRunKeepsExtractedTreeWhenCleanupDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutLedger())
	cfg.Cleanup.RemoveExtracted = false
	clips := []testsupport.Clip{{Label: "bed", Speaker: "x", SampleRate: 16000, Frames: 16000}}
	testsupport.WriteCorpus(t, cfg.ExtractedDir(), clips, nil, nil)

	if _, err := prep.Run(context.Background(), cfg, prep.Options{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !exists(filepath.Join(cfg.ExtractedDir(), "bed", clips[0].FileName())) {
		t.Fatal("extracted tree should be kept")
	}
}

func TestRunFailsOnExistingDestination(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	clips := []testsupport.Clip{
		{Label: "six", Speaker: "a", SampleRate: 16000, Frames: 16000},
		{Label: "seven", Speaker: "b", SampleRate: 16000, Frames: 16000},
	}
	testsupport.WriteCorpus(t, cfg.ExtractedDir(), clips, nil, nil)
	testsupport.WriteFile(t, filepath.Join(cfg.DatasetDir(), "six", clips[0].FileName()), 3)

	_, err := prep.Run(context.Background(), cfg, prep.Options{RunID: "collide"})
	if !errors.Is(err, fileutil.ErrDestinationExists) {
		t.Fatalf("expected ErrDestinationExists, got %v", err)
	}

	// seven sorts before six, so it was already moved and stays moved.
	if !exists(filepath.Join(cfg.DatasetDir(), "seven", clips[1].FileName())) {
		t.Fatal("earlier move should not be undone")
	}
	if !exists(filepath.Join(cfg.ExtractedDir(), "six", clips[0].FileName())) {
		t.Fatal("failed source should stay in place")
	}
	if exists(filepath.Join(cfg.DatasetDir(), "train.txt")) {
		t.Fatal("manifests must not be written after a failed move")
	}

	store := testsupport.MustOpenLedger(t, cfg)
	run, err := store.GetRun(context.Background(), "collide")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != ledger.StatusFailed || run.Error == "" {
		t.Fatalf("run should be failed: %+v", run)
	}
	placements, err := store.Placements(context.Background(), "collide")
	if err != nil {
		t.Fatalf("Placements: %v", err)
	}
	if len(placements) != 1 || placements[0].Path != "seven/b_nohash_0.wav" {
		t.Fatalf("unexpected placements: %+v", placements)
	}
}

func TestRunFailsWithoutReferenceLists(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutLedger())
	testsupport.WriteWAV(t, filepath.Join(cfg.ExtractedDir(), "zero", "a_nohash_0.wav"), 16000, 16000)

	_, err := prep.Run(context.Background(), cfg, prep.Options{})
	if !errors.Is(err, partition.ErrMissingReferenceList) {
		t.Fatalf("expected ErrMissingReferenceList, got %v", err)
	}
	if !exists(filepath.Join(cfg.ExtractedDir(), "zero", "a_nohash_0.wav")) {
		t.Fatal("nothing should move when lists are missing")
	}
}

func TestRunFailsOnMalformedAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutLedger())
	testsupport.WriteCorpus(t, cfg.ExtractedDir(), nil, nil, nil)
	testsupport.WriteFile(t, filepath.Join(cfg.ExtractedDir(), "zero", "a_nohash_0.wav"), 12)

	if _, err := prep.Run(context.Background(), cfg, prep.Options{}); err == nil {
		t.Fatal("expected error for unreadable audio")
	}
}

func TestRunRejectsConcurrentInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutLedger())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	holder := flock.New(cfg.LockPath())
	ok, err := holder.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer holder.Unlock()

	_, err = prep.Run(context.Background(), cfg, prep.Options{})
	if !errors.Is(err, prep.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutLedger())
	clips := []testsupport.Clip{{Label: "nine", Speaker: "z", SampleRate: 16000, Frames: 16000}}
	testsupport.WriteCorpus(t, cfg.ExtractedDir(), clips, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := prep.Run(ctx, cfg, prep.Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !exists(filepath.Join(cfg.ExtractedDir(), "nine", clips[0].FileName())) {
		t.Fatal("no clip should move after cancellation")
	}
}

func TestRunLeavesUnhashedClipsInPlace(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Cleanup.RemoveExtracted = false
	clips := []testsupport.Clip{
		{Label: "zero", Speaker: "aaaa1111", Utterance: 0, SampleRate: 16000, Frames: 16000},
	}
	testsupport.WriteCorpus(t, cfg.ExtractedDir(), clips, nil, nil)
	stray := filepath.Join(cfg.ExtractedDir(), "zero", "stray.wav")
	testsupport.WriteWAV(t, stray, 16000, 16000)

	result, err := prep.Run(context.Background(), cfg, prep.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Scanned != 1 {
		t.Fatalf("scanned = %d, want 1", result.Scanned)
	}
	if got := readManifest(t, filepath.Join(cfg.DatasetDir(), "train.txt")); !reflect.DeepEqual(got, manifest.Manifest{"zero/aaaa1111_nohash_0.wav\n"}) {
		t.Fatalf("train.txt = %q", got)
	}
	if !exists(stray) {
		t.Fatal("unhashed clip should stay in the extracted tree")
	}
	if exists(filepath.Join(cfg.DatasetDir(), "zero", "stray.wav")) {
		t.Fatal("unhashed clip must not be relocated")
	}
}
