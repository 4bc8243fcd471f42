package cleanup

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"digitprep/internal/logging"
)

// Result contains the outcome of a tree removal.
type Result struct {
	Removed []string
	Errors  []RemoveError
	// Files and Bytes describe what was left in the tree before removal.
	Files int
	Bytes int64
}

// RemoveError pairs a path with its removal error.
type RemoveError struct {
	Path  string
	Error error
}

// OK reports whether every entry was removed.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}

// RemoveTree deletes root and everything below it. A missing root is not an
// error. Cancellation stops removal between top-level entries.
func RemoveTree(ctx context.Context, root string, logger *slog.Logger) Result {
	result := Result{}
	if logger == nil {
		logger = logging.NewNop()
	}

	root = strings.TrimSpace(root)
	if root == "" {
		return result
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			result.fail(logger, root, err)
		}
		return result
	}
	result.Files, result.Bytes = treeSize(root)

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			result.fail(logger, root, err)
			return result
		}
		path := filepath.Join(root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			result.fail(logger, path, err)
			continue
		}
		result.Removed = append(result.Removed, path)
	}

	if len(result.Errors) > 0 {
		return result
	}
	if err := os.Remove(root); err != nil && !errors.Is(err, fs.ErrNotExist) {
		result.fail(logger, root, err)
		return result
	}
	result.Removed = append(result.Removed, root)

	logger.Info("removed original dataset",
		logging.String("path", root),
		logging.Int("files", result.Files),
		logging.String("size", humanize.IBytes(uint64(result.Bytes))),
		logging.String(logging.FieldEventType, "dataset_cleanup"),
	)
	return result
}

func (r *Result) fail(logger *slog.Logger, path string, err error) {
	r.Errors = append(r.Errors, RemoveError{Path: path, Error: err})
	logging.WarnWithContext(logger, "failed to remove original dataset",
		"dataset_cleanup_failed",
		logging.String("path", path),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check permissions on the dataset directory and remove it manually"),
		logging.String(logging.FieldImpact, "disk space not reclaimed"),
	)
}

// treeSize counts regular files and bytes below root, ignoring errors.
func treeSize(root string) (int, int64) {
	var files int
	var size int64
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				files++
				size += info.Size()
			}
		}
		return nil
	})
	return files, size
}
