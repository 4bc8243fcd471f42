package speechcommands

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"

	"digitprep/internal/config"
	"digitprep/internal/fileutil"
	"digitprep/internal/logging"
)

var (
	// ErrDownloadDisabled reports a missing corpus when downloads are off.
	ErrDownloadDisabled = errors.New("dataset not present and download disabled")
	// ErrChecksumMismatch reports an archive whose digest differs from the pinned value.
	ErrChecksumMismatch = errors.New("archive checksum mismatch")
)

// Meter receives downloaded bytes for progress display.
type Meter interface {
	io.Writer
	Finish() error
}

// FetchOptions carries the collaborators used while acquiring the corpus.
type FetchOptions struct {
	Logger *slog.Logger
	Client *http.Client
	// NewMeter, when set, returns a progress meter for a download of total
	// bytes (-1 when unknown).
	NewMeter func(total int64) Meter
}

// Fetch makes sure the extracted corpus exists. An existing tree is reused
// untouched; an existing archive is extracted without downloading again.
func Fetch(ctx context.Context, cfg *config.Config, opts FetchOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	corpus := NewCorpus(cfg)
	if corpus.IsExtracted() {
		logger.Info("dataset already extracted",
			logging.String("path", corpus.ExtractedDir()),
			logging.String(logging.FieldEventType, "dataset_present"),
		)
		return nil
	}

	archive := cfg.ArchivePath()
	if _, err := os.Stat(archive); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat archive: %w", err)
		}
		if !cfg.Dataset.Download {
			return fmt.Errorf("%w: %s", ErrDownloadDisabled, corpus.ExtractedDir())
		}
		if err := download(ctx, cfg, archive, opts, logger); err != nil {
			return err
		}
	}

	if err := verifyChecksum(archive, cfg.Dataset.SHA256); err != nil {
		return err
	}

	files, size, err := Extract(ctx, archive, corpus.ExtractedDir())
	if err != nil {
		return err
	}
	logger.Info("dataset extracted",
		logging.String("path", corpus.ExtractedDir()),
		logging.Int("files", files),
		logging.String("size", humanize.IBytes(uint64(size))),
		logging.String(logging.FieldEventType, "dataset_extracted"),
	)
	return nil
}

func download(ctx context.Context, cfg *config.Config, dst string, opts FetchOptions, logger *slog.Logger) error {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: time.Duration(cfg.Dataset.DownloadTimeout) * time.Second}
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Dataset.URL, nil)
	if err != nil {
		return fmt.Errorf("build download request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download dataset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download dataset: %s returned %d", cfg.Dataset.URL, resp.StatusCode)
	}

	sizeLabel := "unknown"
	if resp.ContentLength >= 0 {
		sizeLabel = humanize.IBytes(uint64(resp.ContentLength))
	}
	logger.Info("downloading dataset",
		logging.String("url", cfg.Dataset.URL),
		logging.String("size", sizeLabel),
		logging.String(logging.FieldEventType, "dataset_download"),
	)

	partial := dst + ".part"
	out, err := os.Create(partial)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer func() {
		_ = out.Close()
		_ = os.Remove(partial)
	}()

	var sink io.Writer = out
	var meter Meter
	if opts.NewMeter != nil {
		meter = opts.NewMeter(resp.ContentLength)
		sink = io.MultiWriter(out, meter)
	}
	started := time.Now()
	written, err := io.Copy(sink, resp.Body)
	if meter != nil {
		_ = meter.Finish()
	}
	if err != nil {
		return fmt.Errorf("download dataset: %w", err)
	}
	if resp.ContentLength >= 0 && written != resp.ContentLength {
		return fmt.Errorf("download dataset: got %d of %d bytes", written, resp.ContentLength)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(partial, dst); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}

	logger.Info("dataset downloaded",
		logging.String("path", dst),
		logging.String("size", humanize.IBytes(uint64(written))),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
		logging.String(logging.FieldEventType, "dataset_download_complete"),
	)
	return nil
}

func verifyChecksum(archive, want string) error {
	if want == "" {
		return nil
	}
	got, err := fileutil.SHA256File(archive)
	if err != nil {
		return fmt.Errorf("verify archive: %w", err)
	}
	if got != want {
		return fmt.Errorf("%w: %s has %s, want %s", ErrChecksumMismatch, archive, got, want)
	}
	return nil
}

// Extract unpacks a gzipped tarball into dest. Entries are written to a
// sibling staging directory that is renamed into place once complete, so a
// partial extraction never looks like a finished corpus. It returns the number
// of files and bytes written.
func Extract(ctx context.Context, archive, dest string) (int, int64, error) {
	f, err := os.Open(archive)
	if err != nil {
		return 0, 0, fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return 0, 0, fmt.Errorf("decompress %s: %w", archive, err)
	}
	defer gzr.Close()

	staging := dest + ".partial"
	if err := os.RemoveAll(staging); err != nil {
		return 0, 0, fmt.Errorf("clear staging directory: %w", err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return 0, 0, fmt.Errorf("create staging directory: %w", err)
	}
	done := false
	defer func() {
		if !done {
			_ = os.RemoveAll(staging)
		}
	}()

	var files int
	var size int64
	tr := tar.NewReader(gzr)
	for {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, 0, fmt.Errorf("read tar: %w", err)
		}

		name, ok := entryName(header.Name)
		if !ok {
			return 0, 0, fmt.Errorf("archive entry %q escapes destination", header.Name)
		}
		if name == "" {
			continue
		}
		target := filepath.Join(staging, filepath.FromSlash(name))

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return 0, 0, fmt.Errorf("create %s: %w", name, err)
			}
		case tar.TypeReg:
			n, err := writeEntry(target, tr, header.FileInfo().Mode().Perm())
			if err != nil {
				return 0, 0, fmt.Errorf("extract %s: %w", name, err)
			}
			files++
			size += n
		default:
			// Links and devices are not part of the corpus.
		}
	}

	if err := os.Rename(staging, dest); err != nil {
		return 0, 0, fmt.Errorf("finalize extraction: %w", err)
	}
	done = true
	return files, size, nil
}

// entryName cleans a tar member name. It returns false for names that would
// land outside the destination.
func entryName(raw string) (string, bool) {
	name := path.Clean(strings.TrimPrefix(raw, "./"))
	if name == "." {
		return "", true
	}
	if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
		return "", false
	}
	return name, true
}

func writeEntry(target string, r io.Reader, mode os.FileMode) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, err
	}
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, r)
	if err != nil {
		_ = out.Close()
		return n, err
	}
	return n, out.Close()
}

