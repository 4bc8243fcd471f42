package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"digitprep/internal/config"
	"digitprep/internal/ledger"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckCorpus reports whether the raw corpus is available or obtainable.
func CheckCorpus(cfg *config.Config) Result {
	const name = "Corpus"

	switch {
	case extracted(cfg):
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (extracted)", cfg.ExtractedDir())}
	case archivePresent(cfg):
		detail := fmt.Sprintf("%s (archive present, will extract)", cfg.ArchivePath())
		if info, err := os.Stat(cfg.ArchivePath()); err == nil {
			detail = fmt.Sprintf("%s (%s archive present, will extract)", cfg.ArchivePath(), humanize.IBytes(uint64(info.Size())))
		}
		return Result{Name: name, Passed: true, Detail: detail}
	case cfg.Dataset.Download:
		return Result{Name: name, Passed: true, Detail: "not present, will download"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("%s missing and download disabled", cfg.ExtractedDir())}
	}
}

// CheckReferenceList verifies a published list file exists and is a regular file.
func CheckReferenceList(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a regular file)", path)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckDatasetSource sends a HEAD request to the archive URL.
func CheckDatasetSource(ctx context.Context, rawURL string) Result {
	const name = "Dataset source"

	target := strings.TrimSpace(rawURL)
	if target == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, target, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("request failed (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeHTTPError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{Name: name, Detail: fmt.Sprintf("%s returned %d", target, resp.StatusCode)}
	}
	if resp.ContentLength > 0 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (%s)", humanize.IBytes(uint64(resp.ContentLength)))}
	}
	return Result{Name: name, Passed: true, Detail: "reachable"}
}

// CheckInstanceLock reports whether another run holds the lock file.
func CheckInstanceLock(path string) Result {
	const name = "Instance lock"

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		return Result{Name: name, Passed: true, Detail: "no lock directory yet"}
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !ok {
		return Result{Name: name, Detail: fmt.Sprintf("%s (held by another run)", path)}
	}
	_ = lock.Unlock()
	return Result{Name: name, Passed: true, Detail: "free"}
}

// CheckLedger opens the run ledger, creating it when absent.
func CheckLedger(path string) Result {
	const name = "Run ledger"

	store, err := ledger.Open(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer store.Close()
	return Result{Name: name, Passed: true, Detail: path}
}

func extracted(cfg *config.Config) bool {
	info, err := os.Stat(cfg.ExtractedDir())
	return err == nil && info.IsDir()
}

func archivePresent(cfg *config.Config) bool {
	info, err := os.Stat(cfg.ArchivePath())
	return err == nil && info.Mode().IsRegular()
}

func summarizeHTTPError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "request timed out"
	}
	return err.Error()
}
