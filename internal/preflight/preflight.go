package preflight

import (
	"context"

	"mediafetch/internal/config"
)

// MinFreeBytes is the free-space floor below which the work directory check
// fails. Video downloads routinely exceed a gigabyte.
const MinFreeBytes uint64 = 1 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes every applicable preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir))
	results = append(results, CheckFreeSpace("Work directory space", cfg.Paths.WorkDir, MinFreeBytes))
	if cfg.Paths.LogDir != "" && cfg.Paths.LogDir != cfg.Paths.WorkDir {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	results = append(results, CheckBinaries(ctx, Requirements(cfg))...)
	return results
}

// Failed returns the results that did not pass and are not optional.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
