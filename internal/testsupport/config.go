package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"mediafetch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Progress polling is fast so streams finish quickly under test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Jobs.Database = filepath.Join(base, "jobs.db")
	cfgVal.Workflow.ProgressIntervalMillis = 10
	cfgVal.Workflow.ShutdownTimeoutSeconds = 5
	cfgVal.Fetcher.AutoInstall = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithSQLiteStore selects the sqlite job store.
func WithSQLiteStore() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Jobs.Store = config.StoreSQLite
	}
}

// WithAdmission sets the concurrency and queue caps.
func WithAdmission(maxConcurrent, maxQueued int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.MaxConcurrent = maxConcurrent
		b.cfg.Workflow.MaxQueued = maxQueued
	}
}

// WithJobTimeout sets the per-job timeout in seconds.
func WithJobTimeout(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.JobTimeoutSeconds = seconds
	}
}

// WithAbandonGrace sets the watcher abandonment grace period in seconds.
func WithAbandonGrace(seconds int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.AbandonGraceSeconds = seconds
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, yt-dlp and ffmpeg are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"yt-dlp", "ffmpeg"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
