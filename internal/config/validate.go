package config

import (
	"errors"
	"fmt"
	"strconv"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateJobs(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateDelivery(); err != nil {
		return err
	}
	if err := c.validateFetcher(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateJobs() error {
	switch c.Jobs.Store {
	case StoreMemory, StoreSQLite:
		return nil
	default:
		return fmt.Errorf("jobs.store: unsupported value %q (expected memory or sqlite)", c.Jobs.Store)
	}
}

func (c *Config) validateWorkflow() error {
	if err := ensureNonNegativeMap(map[string]int{
		"workflow.max_concurrent":        c.Workflow.MaxConcurrent,
		"workflow.max_queued":            c.Workflow.MaxQueued,
		"workflow.job_timeout_seconds":   c.Workflow.JobTimeoutSeconds,
		"workflow.abandon_grace_seconds": c.Workflow.AbandonGraceSeconds,
	}); err != nil {
		return err
	}
	if c.Workflow.ProgressIntervalMillis <= 0 {
		return errors.New("workflow.progress_interval_ms must be positive")
	}
	if c.Workflow.ShutdownTimeoutSeconds <= 0 {
		return errors.New("workflow.shutdown_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateDelivery() error {
	if c.Delivery.RetentionMinutes <= 0 {
		return errors.New("delivery.retention_minutes must be positive")
	}
	if c.Delivery.SweepIntervalSeconds <= 0 {
		return errors.New("delivery.sweep_interval_seconds must be positive")
	}
	return nil
}

func (c *Config) validateFetcher() error {
	bitrate, err := strconv.Atoi(c.Fetcher.DefaultAudioBitrate)
	if err != nil || bitrate <= 0 {
		return fmt.Errorf("fetcher.default_audio_bitrate must be a positive integer, got %q", c.Fetcher.DefaultAudioBitrate)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

func ensureNonNegativeMap(values map[string]int) error {
	for key, value := range values {
		if value < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	return nil
}
