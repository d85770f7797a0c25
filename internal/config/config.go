package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkDir string `toml:"work_dir"`
	LogDir  string `toml:"log_dir"`
	APIBind string `toml:"api_bind"`
}

// Jobs selects the job store backend.
type Jobs struct {
	// Store is "memory" (default) or "sqlite".
	Store string `toml:"store"`
	// Database is the sqlite file path, or ":memory:". Ignored by the memory store.
	Database string `toml:"database"`
}

// Workflow contains admission control and worker lifecycle settings.
type Workflow struct {
	MaxConcurrent          int `toml:"max_concurrent"`
	MaxQueued              int `toml:"max_queued"`
	JobTimeoutSeconds      int `toml:"job_timeout_seconds"`
	AbandonGraceSeconds    int `toml:"abandon_grace_seconds"`
	ProgressIntervalMillis int `toml:"progress_interval_ms"`
	ShutdownTimeoutSeconds int `toml:"shutdown_timeout_seconds"`
}

// Delivery contains settings for the consume-once artifact lifecycle.
type Delivery struct {
	RetentionMinutes     int `toml:"retention_minutes"`
	SweepIntervalSeconds int `toml:"sweep_interval_seconds"`
}

// Fetcher contains settings for the yt-dlp backed fetcher.
type Fetcher struct {
	AutoInstall         bool   `toml:"auto_install"`
	DefaultAudioBitrate string `toml:"default_audio_bitrate"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mediafetch.
//
// Configuration sections by subsystem:
//   - Paths: work/log directories and API bind address
//   - Jobs: job store backend
//   - Workflow: admission control, timeouts, and progress polling
//   - Delivery: retention of uncollected artifacts
//   - Fetcher: yt-dlp provisioning and defaults
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Jobs     Jobs     `toml:"jobs"`
	Workflow Workflow `toml:"workflow"`
	Delivery Delivery `toml:"delivery"`
	Fetcher  Fetcher  `toml:"fetcher"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	if err := loadDotEnv(); err != nil {
		return nil, "", false, err
	}

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

// loadDotEnv overlays ./.env onto the process environment without replacing
// variables that are already set.
func loadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat .env: %w", err)
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
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

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mediafetch.toml")
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

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Jobs.Store == StoreSQLite && c.Jobs.Database != MemoryDatabase {
		if err := os.MkdirAll(filepath.Dir(c.Jobs.Database), 0o755); err != nil {
			return fmt.Errorf("create job database directory: %w", err)
		}
	}
	return nil
}

// JobTimeout returns the per-job deadline, or zero when jobs may run indefinitely.
func (c *Config) JobTimeout() time.Duration {
	return time.Duration(c.Workflow.JobTimeoutSeconds) * time.Second
}

// AbandonGrace returns how long a job may run without any progress watcher
// before it is canceled. Zero disables abandonment.
func (c *Config) AbandonGrace() time.Duration {
	return time.Duration(c.Workflow.AbandonGraceSeconds) * time.Second
}

// ProgressInterval returns the progress stream polling interval.
func (c *Config) ProgressInterval() time.Duration {
	return time.Duration(c.Workflow.ProgressIntervalMillis) * time.Millisecond
}

// ShutdownTimeout bounds how long the daemon waits for workers on shutdown.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Workflow.ShutdownTimeoutSeconds) * time.Second
}

// Retention returns how long terminal jobs are kept before the janitor purges them.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Delivery.RetentionMinutes) * time.Minute
}

// SweepInterval returns the janitor cadence.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Delivery.SweepIntervalSeconds) * time.Second
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

// Marshal renders the effective configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}
