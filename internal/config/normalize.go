package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDataset()
	c.normalizeFilter()
	c.normalizeManifests()
	if err := c.normalizeLedger(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.RootDir) == "" {
		if c.Paths.RootDir, err = executableDir(); err != nil {
			return fmt.Errorf("paths.root_dir: %w", err)
		}
	}
	if c.Paths.RootDir, err = expandPath(strings.TrimSpace(c.Paths.RootDir)); err != nil {
		return fmt.Errorf("paths.root_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDataset() {
	c.Dataset.URL = strings.TrimSpace(c.Dataset.URL)
	if c.Dataset.URL == "" {
		c.Dataset.URL = defaultDatasetURL
	}
	c.Dataset.FolderInArchive = strings.TrimSpace(c.Dataset.FolderInArchive)
	if c.Dataset.FolderInArchive == "" {
		c.Dataset.FolderInArchive = defaultFolderInArchive
	}
	c.Dataset.ArchiveName = strings.TrimSpace(c.Dataset.ArchiveName)
	if c.Dataset.ArchiveName == "" {
		c.Dataset.ArchiveName = defaultArchiveName
	}
	c.Dataset.ValidationList = strings.TrimSpace(c.Dataset.ValidationList)
	if c.Dataset.ValidationList == "" {
		c.Dataset.ValidationList = defaultValidationList
	}
	c.Dataset.TestingList = strings.TrimSpace(c.Dataset.TestingList)
	if c.Dataset.TestingList == "" {
		c.Dataset.TestingList = defaultTestingList
	}
	c.Dataset.SHA256 = strings.ToLower(strings.TrimSpace(c.Dataset.SHA256))
	if c.Dataset.DownloadTimeout <= 0 {
		c.Dataset.DownloadTimeout = defaultDownloadTimeout
	}
}

// Class labels are matched exactly, so only surrounding whitespace is dropped.
func (c *Config) normalizeFilter() {
	if len(c.Filter.Classes) == 0 {
		c.Filter.Classes = append([]string(nil), DigitClasses...)
	}
	classes := make([]string, 0, len(c.Filter.Classes))
	for _, class := range c.Filter.Classes {
		if trimmed := strings.TrimSpace(class); trimmed != "" {
			classes = append(classes, trimmed)
		}
	}
	c.Filter.Classes = classes
	if c.Filter.SampleRate == 0 {
		c.Filter.SampleRate = defaultSampleRate
	}
	if c.Filter.ClipSamples == 0 {
		c.Filter.ClipSamples = c.Filter.SampleRate
	}
}

func (c *Config) normalizeManifests() {
	c.Manifests.Train = strings.TrimSpace(c.Manifests.Train)
	if c.Manifests.Train == "" {
		c.Manifests.Train = defaultTrainManifest
	}
	c.Manifests.Validation = strings.TrimSpace(c.Manifests.Validation)
	if c.Manifests.Validation == "" {
		c.Manifests.Validation = defaultValManifest
	}
	c.Manifests.Test = strings.TrimSpace(c.Manifests.Test)
	if c.Manifests.Test == "" {
		c.Manifests.Test = defaultTestManifest
	}
}

func (c *Config) normalizeLedger() error {
	if strings.TrimSpace(c.Ledger.Path) == "" {
		c.Ledger.Path = filepath.Join(c.Paths.LogDir, defaultLedgerFile)
		return nil
	}
	var err error
	if c.Ledger.Path, err = expandPath(strings.TrimSpace(c.Ledger.Path)); err != nil {
		return fmt.Errorf("ledger.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
