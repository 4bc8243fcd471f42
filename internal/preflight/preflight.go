package preflight

import (
	"context"

	"digitprep/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Root directory", cfg.Paths.RootDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckInstanceLock(cfg.LockPath()),
	}

	corpus := CheckCorpus(cfg)
	results = append(results, corpus)
	if corpus.Passed && extracted(cfg) {
		results = append(results,
			CheckReferenceList("Validation list", cfg.ValidationListPath()),
			CheckReferenceList("Testing list", cfg.TestingListPath()),
		)
	} else if cfg.Dataset.Download && !archivePresent(cfg) {
		results = append(results, CheckDatasetSource(ctx, cfg.Dataset.URL))
	}

	if cfg.Ledger.Enabled {
		results = append(results, CheckLedger(cfg.Ledger.Path))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
