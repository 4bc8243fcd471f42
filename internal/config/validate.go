package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDataset(); err != nil {
		return err
	}
	if err := c.validateFilter(); err != nil {
		return err
	}
	if err := c.validateManifests(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDataset() error {
	if c.Dataset.Download {
		parsed, err := url.Parse(c.Dataset.URL)
		if err != nil {
			return fmt.Errorf("dataset.url: %w", err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("dataset.url must use http or https, got %q", c.Dataset.URL)
		}
	}
	if c.Dataset.SHA256 != "" {
		if _, err := hex.DecodeString(c.Dataset.SHA256); err != nil || len(c.Dataset.SHA256) != 64 {
			return fmt.Errorf("dataset.sha256 must be 64 hex characters, got %q", c.Dataset.SHA256)
		}
	}
	for key, value := range map[string]string{
		"dataset.folder_in_archive": c.Dataset.FolderInArchive,
		"dataset.archive_name":      c.Dataset.ArchiveName,
	} {
		if strings.ContainsAny(value, `/\`) || value == "." || value == ".." {
			return fmt.Errorf("%s must be a single directory name, got %q", key, value)
		}
	}
	return nil
}

func (c *Config) validateFilter() error {
	if len(c.Filter.Classes) == 0 {
		return errors.New("filter.classes must list at least one class")
	}
	seen := make(map[string]struct{}, len(c.Filter.Classes))
	for _, class := range c.Filter.Classes {
		if strings.ContainsAny(class, `/\`) || class == "." || class == ".." {
			return fmt.Errorf("filter.classes: %q is not a valid folder name", class)
		}
		if class == c.Dataset.ArchiveName {
			return fmt.Errorf("filter.classes: %q collides with dataset.archive_name", class)
		}
		if _, dup := seen[class]; dup {
			return fmt.Errorf("filter.classes: duplicate class %q", class)
		}
		seen[class] = struct{}{}
	}
	if c.Filter.SampleRate <= 0 {
		return errors.New("filter.sample_rate must be positive")
	}
	if c.Filter.ClipSamples <= 0 {
		return errors.New("filter.clip_samples must be positive")
	}
	return nil
}

func (c *Config) validateManifests() error {
	names := []string{c.Manifests.Train, c.Manifests.Validation, c.Manifests.Test}
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if filepath.Base(name) != name {
			return fmt.Errorf("manifests: %q must be a bare file name", name)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("manifests: %q is used for more than one split", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
