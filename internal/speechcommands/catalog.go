package speechcommands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"digitprep/internal/config"
	"digitprep/internal/partition"
)

const (
	// HashDivider separates the speaker id from the utterance number.
	HashDivider = "_nohash_"
	// BackgroundNoiseFolder holds long noise recordings that are not clips.
	BackgroundNoiseFolder = "_background_noise_"
	// SampleRate is the rate the corpus publishes for every clip.
	SampleRate = 16000
)

// Corpus locates the extracted tree inside the dataset directory.
type Corpus struct {
	// DatasetDir receives class folders and manifests.
	DatasetDir string
	// ArchiveName is the folder the archive unpacks into, relative to DatasetDir.
	ArchiveName string
}

// NewCorpus returns the corpus described by cfg.
func NewCorpus(cfg *config.Config) Corpus {
	return Corpus{DatasetDir: cfg.DatasetDir(), ArchiveName: cfg.Dataset.ArchiveName}
}

// ExtractedDir returns the absolute path of the extracted tree.
func (c Corpus) ExtractedDir() string {
	return filepath.Join(c.DatasetDir, c.ArchiveName)
}

// SourcePath resolves a record path to an absolute file path.
func (c Corpus) SourcePath(rec partition.Record) string {
	return filepath.Join(c.DatasetDir, filepath.FromSlash(rec.Path))
}

// DestinationPath resolves a placement destination to an absolute file path.
func (c Corpus) DestinationPath(destination string) string {
	return filepath.Join(c.DatasetDir, filepath.FromSlash(destination))
}

// IsExtracted reports whether the extracted tree exists.
func (c Corpus) IsExtracted() bool {
	info, err := os.Stat(c.ExtractedDir())
	return err == nil && info.IsDir()
}

// Catalog lists every clip as <label>/<file>.wav below the extracted tree,
// sorted by path. Files whose name lacks HashDivider are skipped.
func (c Corpus) Catalog() ([]partition.Record, error) {
	root := c.ExtractedDir()
	labels, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("dataset not extracted at %s: %w", root, err)
		}
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	var paths []string
	for _, label := range labels {
		if !label.IsDir() || label.Name() == BackgroundNoiseFolder {
			continue
		}
		files, err := os.ReadDir(filepath.Join(root, label.Name()))
		if err != nil {
			return nil, fmt.Errorf("read class folder %s: %w", label.Name(), err)
		}
		for _, file := range files {
			// Clips without the speaker divider are not part of the corpus.
			if file.IsDir() || filepath.Ext(file.Name()) != ".wav" || !strings.Contains(file.Name(), HashDivider) {
				continue
			}
			paths = append(paths, path.Join(c.ArchiveName, label.Name(), file.Name()))
		}
	}
	slices.Sort(paths)

	records := make([]partition.Record, 0, len(paths))
	for _, rel := range paths {
		rec, err := ParseMetadata(rel)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParseMetadata builds a record from a path such as
// "speech_commands_v0.02/zero/0a2b400e_nohash_0.wav".
func ParseMetadata(relPath string) (partition.Record, error) {
	label := path.Base(path.Dir(relPath))
	stem := strings.TrimSuffix(path.Base(relPath), path.Ext(relPath))

	speaker, utterance, ok := strings.Cut(stem, HashDivider)
	if !ok || speaker == "" {
		return partition.Record{}, fmt.Errorf("parse %s: file name lacks %q", relPath, HashDivider)
	}
	n, err := strconv.Atoi(utterance)
	if err != nil {
		return partition.Record{}, fmt.Errorf("parse %s: utterance number: %w", relPath, err)
	}
	return partition.Record{
		Path:       relPath,
		SampleRate: SampleRate,
		Label:      label,
		SpeakerID:  speaker,
		Utterance:  n,
	}, nil
}
