package preflight

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"mediafetch/internal/config"
)

// Requirement defines an external binary mediafetch relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Requirements lists the binaries needed for the given config. yt-dlp is
// optional when the fetcher is allowed to provision it on demand.
func Requirements(cfg *config.Config) []Requirement {
	autoInstall := cfg != nil && cfg.Fetcher.AutoInstall
	return []Requirement{
		{
			Name:        "yt-dlp",
			Command:     "yt-dlp",
			Description: "Required to download media",
			Optional:    autoInstall,
		},
		{
			Name:        "FFmpeg",
			Command:     "ffmpeg",
			Description: "Required for audio extraction and stream merging",
		},
	}
}

// CheckBinaries reports whether each requirement resolves on PATH.
func CheckBinaries(ctx context.Context, requirements []Requirement) []Result {
	results := make([]Result, 0, len(requirements))
	for _, req := range requirements {
		if ctx.Err() != nil {
			break
		}
		name := req.Name
		cmd := strings.TrimSpace(req.Command)
		if cmd == "" {
			results = append(results, Result{Name: name, Optional: req.Optional, Detail: "command not configured"})
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			detail := fmt.Sprintf("binary %q not found", cmd)
			if req.Description != "" {
				detail += " (" + strings.ToLower(req.Description[:1]) + req.Description[1:] + ")"
			}
			results = append(results, Result{Name: name, Optional: req.Optional, Detail: detail})
			continue
		}
		results = append(results, Result{Name: name, Passed: true, Optional: req.Optional, Detail: path})
	}
	return results
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minFree
// bytes available to unprivileged users.
func CheckFreeSpace(name, path string, minFree uint64) Result {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := st.Bavail * uint64(st.Bsize)
	if free < minFree {
		return Result{Name: name, Detail: fmt.Sprintf("%s free, want at least %s", humanize.IBytes(free), humanize.IBytes(minFree))}
	}
	return Result{Name: name, Passed: true, Detail: humanize.IBytes(free) + " free"}
}
