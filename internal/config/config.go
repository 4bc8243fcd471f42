package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the working directories.
type Paths struct {
	// RootDir holds the SpeechCommands folder. Empty means the directory of
	// the running executable.
	RootDir string `toml:"root_dir"`
	LogDir  string `toml:"log_dir"`
}

// Dataset describes where the raw corpus comes from and how it is laid out.
type Dataset struct {
	URL             string `toml:"url"`
	FolderInArchive string `toml:"folder_in_archive"`
	ArchiveName     string `toml:"archive_name"`
	ValidationList  string `toml:"validation_list"`
	TestingList     string `toml:"testing_list"`
	// SHA256 optionally pins the archive digest (hex).
	SHA256          string `toml:"sha256"`
	Download        bool   `toml:"download"`
	DownloadTimeout int    `toml:"download_timeout"`
}

// Filter contains the acceptance rules applied to every catalog record.
type Filter struct {
	Classes     []string `toml:"classes"`
	SampleRate  int      `toml:"sample_rate"`
	ClipSamples int      `toml:"clip_samples"`
}

// Manifests names the per-split manifest files written into the dataset directory.
type Manifests struct {
	Train      string `toml:"train"`
	Validation string `toml:"validation"`
	Test       string `toml:"test"`
}

// Ledger contains configuration for the SQLite run ledger.
type Ledger struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // Default: <log_dir>/ledger.db
}

// Cleanup controls removal of the extracted corpus after a successful run.
type Cleanup struct {
	RemoveExtracted bool `toml:"remove_extracted"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for digitprep.
//
// Configuration sections by subsystem:
//   - Paths: dataset root and log directory
//   - Dataset: corpus download location and archive layout
//   - Filter: vocabulary and exact audio format requirements
//   - Manifests: output manifest file names
//   - Ledger: SQLite history of runs and placements
//   - Cleanup: post-run removal of the extracted corpus
//   - Logging: log format and level
//
// A Config is built once at startup and treated as read-only afterwards.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Dataset   Dataset   `toml:"dataset"`
	Filter    Filter    `toml:"filter"`
	Manifests Manifests `toml:"manifests"`
	Ledger    Ledger    `toml:"ledger"`
	Cleanup   Cleanup   `toml:"cleanup"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/digitprep/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/digitprep/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("digitprep.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required before a run.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.RootDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Ledger.Enabled && strings.TrimSpace(c.Ledger.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.Ledger.Path), 0o755); err != nil {
			return fmt.Errorf("create ledger directory %q: %w", filepath.Dir(c.Ledger.Path), err)
		}
	}
	return nil
}

// DatasetDir returns the directory that receives class folders and manifests.
func (c *Config) DatasetDir() string {
	return filepath.Join(c.Paths.RootDir, c.Dataset.FolderInArchive)
}

// ExtractedDir returns the directory the raw archive unpacks into.
func (c *Config) ExtractedDir() string {
	return filepath.Join(c.DatasetDir(), c.Dataset.ArchiveName)
}

// ArchivePath returns the location of the downloaded tarball.
func (c *Config) ArchivePath() string {
	return filepath.Join(c.Paths.RootDir, c.Dataset.ArchiveName+".tar.gz")
}

// ValidationListPath returns the path of the published validation list.
func (c *Config) ValidationListPath() string {
	return filepath.Join(c.ExtractedDir(), c.Dataset.ValidationList)
}

// TestingListPath returns the path of the published testing list.
func (c *Config) TestingListPath() string {
	return filepath.Join(c.ExtractedDir(), c.Dataset.TestingList)
}

// LockPath returns the advisory lock file guarding a run.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "digitprep.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
