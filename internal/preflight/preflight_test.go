package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"

	"digitprep/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDatasetSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Path != "/speech_commands_v0.02.tar.gz" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if result := CheckDatasetSource(context.Background(), srv.URL+"/speech_commands_v0.02.tar.gz"); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if result := CheckDatasetSource(context.Background(), srv.URL+"/missing.tar.gz"); result.Passed {
		t.Fatal("expected failure for 404")
	}
	if result := CheckDatasetSource(context.Background(), " "); result.Passed {
		t.Fatal("expected failure for empty url")
	}
}

func TestCheckInstanceLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "digitprep.lock")
	if result := CheckInstanceLock(path); !result.Passed {
		t.Fatalf("expected free lock, got: %s", result.Detail)
	}

	holder := flock.New(path)
	ok, err := holder.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer holder.Unlock()

	if result := CheckInstanceLock(path); result.Passed {
		t.Fatal("expected failure while another holder has the lock")
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_ExtractedCorpus(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	testsupport.WriteCorpus(t, cfg.ExtractedDir(), nil, []string{"zero/a_nohash_0.wav"}, nil)

	results := RunAll(context.Background(), cfg)
	want := []string{"Root directory", "Log directory", "Instance lock", "Corpus", "Validation list", "Testing list", "Run ledger"}
	if len(results) != len(want) {
		t.Fatalf("expected %d results, got %+v", len(want), results)
	}
	for i, r := range results {
		if r.Name != want[i] {
			t.Errorf("result %d = %q, want %q", i, r.Name, want[i])
		}
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_MissingCorpusWithoutDownload(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutLedger())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg)
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "Corpus" {
		t.Fatalf("expected only the corpus check to fail, got %+v", failed)
	}
}

func TestRunAll_ProbesSourceWhenDownloading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithDownload(srv.URL), testsupport.WithoutLedger())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg)
	found := false
	for _, r := range results {
		if r.Name == "Dataset source" {
			found = true
			if !r.Passed {
				t.Errorf("source check failed: %s", r.Detail)
			}
		}
	}
	if !found {
		t.Fatal("expected dataset source check in results")
	}
}
