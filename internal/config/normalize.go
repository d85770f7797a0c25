package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.applyEnvOverrides()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeJobs(); err != nil {
		return err
	}
	c.normalizeFetcher()
	c.normalizeLogging()
	return nil
}

func (c *Config) applyEnvOverrides() {
	if value, ok := os.LookupEnv("MEDIAFETCH_API_BIND"); ok && strings.TrimSpace(value) != "" {
		c.Paths.APIBind = value
	}
	if value, ok := os.LookupEnv("MEDIAFETCH_WORK_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.WorkDir = value
	}
	if value, ok := os.LookupEnv("MEDIAFETCH_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeJobs() error {
	c.Jobs.Store = strings.ToLower(strings.TrimSpace(c.Jobs.Store))
	if c.Jobs.Store == "" {
		c.Jobs.Store = StoreMemory
	}
	c.Jobs.Database = strings.TrimSpace(c.Jobs.Database)
	if c.Jobs.Database == "" {
		c.Jobs.Database = defaultJobsDatabase
	}
	if c.Jobs.Database == MemoryDatabase {
		return nil
	}
	var err error
	if c.Jobs.Database, err = expandPath(c.Jobs.Database); err != nil {
		return fmt.Errorf("jobs.database: %w", err)
	}
	return nil
}

func (c *Config) normalizeFetcher() {
	c.Fetcher.DefaultAudioBitrate = strings.TrimSpace(c.Fetcher.DefaultAudioBitrate)
	if c.Fetcher.DefaultAudioBitrate == "" {
		c.Fetcher.DefaultAudioBitrate = defaultAudioBitrate
	}
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
		c.Logging.Format = "json"
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}
