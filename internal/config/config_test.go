package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"mediafetch/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWork := filepath.Join(tempHome, ".local", "share", "mediafetch", "work")
	if cfg.Paths.WorkDir != wantWork {
		t.Fatalf("unexpected work dir: got %q want %q", cfg.Paths.WorkDir, wantWork)
	}
	if cfg.Paths.APIBind != "127.0.0.1:8787" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Jobs.Store != config.StoreMemory {
		t.Fatalf("expected memory store by default, got %q", cfg.Jobs.Store)
	}
	if cfg.Workflow.MaxConcurrent != 0 {
		t.Fatalf("expected unbounded concurrency by default, got %d", cfg.Workflow.MaxConcurrent)
	}
	if cfg.ProgressInterval() != 500*time.Millisecond {
		t.Fatalf("unexpected progress interval: %s", cfg.ProgressInterval())
	}
	if cfg.JobTimeout() != 0 {
		t.Fatalf("expected no job timeout by default, got %s", cfg.JobTimeout())
	}
	if cfg.Fetcher.DefaultAudioBitrate != "128" {
		t.Fatalf("unexpected default bitrate: %q", cfg.Fetcher.DefaultAudioBitrate)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "mediafetch.toml")

	type payload struct {
		Paths struct {
			WorkDir string `toml:"work_dir"`
		} `toml:"paths"`
		Jobs struct {
			Store    string `toml:"store"`
			Database string `toml:"database"`
		} `toml:"jobs"`
		Workflow struct {
			MaxConcurrent int `toml:"max_concurrent"`
		} `toml:"workflow"`
	}
	custom := payload{}
	custom.Paths.WorkDir = filepath.Join(tempDir, "work")
	custom.Jobs.Store = "SQLite"
	custom.Jobs.Database = ":memory:"
	custom.Workflow.MaxConcurrent = 3

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got %q exists=%v", resolved, exists)
	}
	if cfg.Paths.WorkDir != filepath.Join(tempDir, "work") {
		t.Fatalf("unexpected work dir: %q", cfg.Paths.WorkDir)
	}
	if cfg.Jobs.Store != config.StoreSQLite {
		t.Fatalf("expected store to normalize to sqlite, got %q", cfg.Jobs.Store)
	}
	if cfg.Jobs.Database != config.MemoryDatabase {
		t.Fatalf("expected in-memory database to be preserved, got %q", cfg.Jobs.Database)
	}
	if cfg.Workflow.MaxConcurrent != 3 {
		t.Fatalf("unexpected max concurrent: %d", cfg.Workflow.MaxConcurrent)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("MEDIAFETCH_API_BIND", "0.0.0.0:9000")
	t.Setenv("MEDIAFETCH_LOG_LEVEL", "DEBUG")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.APIBind != "0.0.0.0:9000" {
		t.Fatalf("expected env api bind, got %q", cfg.Paths.APIBind)
	}
	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected env log level to normalize, got %q", cfg.Logging.Level)
	}
}

func TestDotEnvOverlay(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	workDir := filepath.Join(dir, "dotenv-work")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("MEDIAFETCH_WORK_DIR="+workDir+"\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("MEDIAFETCH_WORK_DIR") })

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.WorkDir != workDir {
		t.Fatalf("expected .env work dir %q, got %q", workDir, cfg.Paths.WorkDir)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"store", func(c *config.Config) { c.Jobs.Store = "redis" }, "jobs.store"},
		{"negative concurrency", func(c *config.Config) { c.Workflow.MaxConcurrent = -1 }, "workflow.max_concurrent"},
		{"poll interval", func(c *config.Config) { c.Workflow.ProgressIntervalMillis = 0 }, "workflow.progress_interval_ms"},
		{"retention", func(c *config.Config) { c.Delivery.RetentionMinutes = 0 }, "delivery.retention_minutes"},
		{"bitrate", func(c *config.Config) { c.Fetcher.DefaultAudioBitrate = "loud" }, "fetcher.default_audio_bitrate"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Delivery.RetentionMinutes != config.Default().Delivery.RetentionMinutes {
		t.Fatalf("unexpected retention: %d", cfg.Delivery.RetentionMinutes)
	}
}
