package prep

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"digitprep/internal/cleanup"
	"digitprep/internal/config"
	"digitprep/internal/fileutil"
	"digitprep/internal/ledger"
	"digitprep/internal/logging"
	"digitprep/internal/manifest"
	"digitprep/internal/media/wav"
	"digitprep/internal/partition"
	"digitprep/internal/speechcommands"
)

// Options carries the collaborators of a run. Zero values are usable.
type Options struct {
	Logger   *slog.Logger
	Reporter Reporter
	// Ledger overrides the store opened from cfg.Ledger.
	Ledger     *ledger.Store
	HTTPClient *http.Client
	// RunID overrides the generated run identifier.
	RunID string
}

// Result describes a finished run.
type Result struct {
	RunID     string
	Scanned   int
	Summary   manifest.Summary
	Manifests map[partition.Split]string
	Rejected  map[partition.RejectReason]int
	Cleanup   cleanup.Result
	Elapsed   time.Duration
}

// RejectedTotal returns the number of records not accepted.
func (r *Result) RejectedTotal() int {
	total := 0
	for _, n := range r.Rejected {
		total += n
	}
	return total
}

// Run executes the whole pipeline with cfg, which must not change afterwards.
func Run(ctx context.Context, cfg *config.Config, opts Options) (result *Result, err error) {
	started := time.Now()
	reporter := opts.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := logging.WithRun(logging.NewComponentLogger(opts.Logger, "prep"), runID)

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	lock, err := acquireLock(cfg.LockPath())
	if err != nil {
		return nil, err
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			logger.Warn("failed to release lock", logging.Error(unlockErr))
		}
	}()

	reporter.Stage("Downloading dataset...")
	fetchOpts := speechcommands.FetchOptions{
		Logger: logging.NewComponentLogger(opts.Logger, "speechcommands"),
		Client: opts.HTTPClient,
		NewMeter: func(total int64) speechcommands.Meter {
			return reporter.Counter("downloading", total)
		},
	}
	if err := speechcommands.Fetch(ctx, cfg, fetchOpts); err != nil {
		return nil, fmt.Errorf("acquire dataset: %w", err)
	}

	store := opts.Ledger
	if store == nil && cfg.Ledger.Enabled {
		store, err = ledger.Open(cfg.Ledger.Path)
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
		defer store.Close()
	}
	if store != nil {
		if err := store.BeginRun(ctx, runID, cfg.Paths.RootDir); err != nil {
			return nil, fmt.Errorf("record run start: %w", err)
		}
		defer func() {
			if err == nil {
				return
			}
			if failErr := store.FailRun(context.WithoutCancel(ctx), runID, err); failErr != nil {
				logger.Warn("failed to record run failure", logging.Error(failErr))
			}
		}()
	}

	logger.Info("run started",
		logging.String("root_dir", cfg.Paths.RootDir),
		logging.Int("classes", len(cfg.Filter.Classes)),
		logging.String(logging.FieldEventType, "run_start"),
	)

	reporter.Stage("Processing dataset...")
	result = &Result{
		RunID:    runID,
		Rejected: make(map[partition.RejectReason]int, len(partition.RejectReasons)),
	}
	collector, err := place(ctx, cfg, store, reporter, logger, result)
	if err != nil {
		return nil, err
	}

	result.Manifests, err = manifest.WriteAll(cfg.DatasetDir(), cfg.Manifests, collector)
	if err != nil {
		return nil, fmt.Errorf("write manifests: %w", err)
	}

	result.Summary = collector.Summarize()
	logSummary(logger, result)
	reporter.Report(result.Summary)

	if store != nil {
		counts := ledger.RunCounts{
			Train:      result.Summary.For(partition.Train).Samples,
			Validation: result.Summary.For(partition.Validation).Samples,
			Test:       result.Summary.For(partition.Test).Samples,
			Speakers:   result.Summary.TotalSpeakers,
			Rejected:   result.RejectedTotal(),
		}
		if err := store.FinishRun(ctx, runID, counts); err != nil {
			return nil, fmt.Errorf("record run completion: %w", err)
		}
	}

	if cfg.Cleanup.RemoveExtracted {
		reporter.Stage("Removing original dataset...")
		result.Cleanup = cleanup.RemoveTree(ctx, speechcommands.NewCorpus(cfg).ExtractedDir(), logger)
	}

	result.Elapsed = time.Since(started)
	logger.Info("run finished",
		logging.Duration("elapsed", result.Elapsed.Round(time.Millisecond)),
		logging.String(logging.FieldEventType, "run_complete"),
	)
	return result, nil
}

// place decides, moves, and collects every catalog record in scan order.
func place(ctx context.Context, cfg *config.Config, store *ledger.Store, reporter Reporter, logger *slog.Logger, result *Result) (*manifest.Collector, error) {
	corpus := speechcommands.NewCorpus(cfg)
	rules := partition.RulesFromConfig(cfg)

	refs, err := partition.LoadReferenceLists(cfg.ValidationListPath(), cfg.TestingListPath())
	if err != nil {
		return nil, err
	}

	for _, class := range cfg.Filter.Classes {
		if err := os.MkdirAll(filepath.Join(corpus.DatasetDir, class), 0o755); err != nil {
			return nil, fmt.Errorf("create class folder: %w", err)
		}
	}

	records, err := corpus.Catalog()
	if err != nil {
		return nil, fmt.Errorf("catalog dataset: %w", err)
	}
	result.Scanned = len(records)
	logger.Info("catalog loaded",
		logging.Int("records", len(records)),
		logging.Int("validation_refs", len(refs.Validation)),
		logging.Int("testing_refs", len(refs.Test)),
		logging.String(logging.FieldEventType, "catalog_loaded"),
	)

	collector := manifest.NewCollector()
	counter := reporter.Counter("filtering", int64(len(records)))
	defer func() { _ = counter.Finish() }()

	seq := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_ = counter.Add(1)

		if !rules.Admits(rec.Label) {
			result.Rejected[partition.OutOfVocabulary]++
			continue
		}

		src := corpus.SourcePath(rec)
		info, err := wav.ProbeFile(src)
		if err != nil {
			return nil, err
		}

		decision := partition.Decide(rec, info, refs, rules)
		if !decision.Accepted() {
			result.Rejected[decision.Reason]++
			logger.Debug("sample rejected",
				logging.String("path", rec.Path),
				logging.String("reason", string(decision.Reason)),
				logging.Int64("sample_rate", int64(info.SampleRate)),
				logging.Int64("frames", info.Frames),
			)
			continue
		}

		p := decision.Placement
		if err := fileutil.MoveFile(src, corpus.DestinationPath(p.Destination)); err != nil {
			return nil, err
		}
		collector.Add(p)
		if store != nil {
			if err := store.RecordPlacement(ctx, result.RunID, seq, p); err != nil {
				return nil, err
			}
		}
		seq++
	}
	return collector, nil
}

func logSummary(logger *slog.Logger, result *Result) {
	attrs := []logging.Attr{
		logging.Int("scanned", result.Scanned),
		logging.Int("total_samples", result.Summary.TotalSamples),
		logging.Int("total_speakers", result.Summary.TotalSpeakers),
	}
	for _, split := range result.Summary.Splits {
		attrs = append(attrs,
			logging.Int(split.Split.String()+"_samples", split.Samples),
			logging.Int(split.Split.String()+"_speakers", split.Speakers),
		)
	}
	for _, reason := range partition.RejectReasons {
		attrs = append(attrs, logging.Int("rejected_"+string(reason), result.Rejected[reason]))
	}
	attrs = append(attrs, logging.String(logging.FieldEventType, "run_summary"))
	logger.Info("dataset partitioned", logging.Args(attrs...)...)
}
