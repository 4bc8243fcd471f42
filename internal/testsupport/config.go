package testsupport

import (
	"path/filepath"
	"testing"

	"digitprep/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Downloads are disabled; tests lay the extracted corpus out themselves.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.RootDir = filepath.Join(base, "root")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Ledger.Path = filepath.Join(base, "logs", "ledger.db")
	cfgVal.Dataset.Download = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithDownload enables fetching the archive from url.
func WithDownload(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dataset.Download = true
		b.cfg.Dataset.URL = url
		b.cfg.Dataset.DownloadTimeout = 30
	}
}

// WithoutLedger disables the SQLite run ledger.
func WithoutLedger() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ledger.Enabled = false
	}
}

// WithClasses overrides the accepted vocabulary.
func WithClasses(classes ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Filter.Classes = classes
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.RootDir)
}
