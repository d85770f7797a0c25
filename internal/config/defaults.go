package config

const (
	defaultConfigPath          = "~/.config/mediafetch/config.toml"
	defaultWorkDir             = "~/.local/share/mediafetch/work"
	defaultLogDir              = "~/.local/share/mediafetch/logs"
	defaultAPIBind             = "127.0.0.1:8787"
	defaultJobsDatabase        = "~/.local/share/mediafetch/jobs.db"
	defaultMaxQueued           = 64
	defaultProgressIntervalMS  = 500
	defaultShutdownTimeout     = 10
	defaultRetentionMinutes    = 60
	defaultSweepIntervalSecond = 60
	defaultAudioBitrate        = "128"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

const (
	// StoreMemory keeps job records in a process-local map.
	StoreMemory = "memory"
	// StoreSQLite keeps job records in a transient SQLite database.
	StoreSQLite = "sqlite"
	// MemoryDatabase selects an in-memory SQLite database.
	MemoryDatabase = ":memory:"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Jobs: Jobs{
			Store:    StoreMemory,
			Database: defaultJobsDatabase,
		},
		Workflow: Workflow{
			MaxConcurrent:          0,
			MaxQueued:              defaultMaxQueued,
			ProgressIntervalMillis: defaultProgressIntervalMS,
			ShutdownTimeoutSeconds: defaultShutdownTimeout,
		},
		Delivery: Delivery{
			RetentionMinutes:     defaultRetentionMinutes,
			SweepIntervalSeconds: defaultSweepIntervalSecond,
		},
		Fetcher: Fetcher{
			DefaultAudioBitrate: defaultAudioBitrate,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
