package preflight

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mediafetch/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 1); !result.Passed {
		t.Fatalf("expected pass with 1 byte floor, got: %s", result.Detail)
	}
	if result := CheckFreeSpace("space", dir, ^uint64(0)); result.Passed {
		t.Fatal("expected failure with max floor")
	}
	if result := CheckFreeSpace("space", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	if err := os.WriteFile(present, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary", Description: "Required for tests"},
		{Name: "Blank"},
	}

	results := CheckBinaries(context.Background(), reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Passed || results[0].Detail != present {
		t.Fatalf("expected present binary to pass, got %#v", results[0])
	}
	if results[1].Passed || !strings.Contains(results[1].Detail, "required for tests") {
		t.Fatalf("unexpected missing result %#v", results[1])
	}
	if results[2].Passed || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected blank result %#v", results[2])
	}
}

func TestRequirementsAutoInstall(t *testing.T) {
	cfg := config.Default()
	cfg.Fetcher.AutoInstall = true
	reqs := Requirements(&cfg)
	if !reqs[0].Optional {
		t.Fatal("expected yt-dlp to be optional with auto install")
	}
	cfg.Fetcher.AutoInstall = false
	if Requirements(&cfg)[0].Optional {
		t.Fatal("expected yt-dlp to be required without auto install")
	}
}

func TestRunAllAndFailed(t *testing.T) {
	if RunAll(context.Background(), nil) != nil {
		t.Fatal("expected nil results for nil config")
	}

	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(t.TempDir(), "missing")
	cfg.Paths.LogDir = cfg.Paths.WorkDir
	cfg.Fetcher.AutoInstall = true
	t.Setenv("PATH", t.TempDir())

	results := RunAll(context.Background(), &cfg)
	failed := Failed(results)
	names := make(map[string]bool)
	for _, r := range failed {
		names[r.Name] = true
	}
	if !names["Work directory"] || !names["FFmpeg"] {
		t.Fatalf("expected work directory and ffmpeg failures, got %#v", failed)
	}
	if names["yt-dlp"] {
		t.Fatal("optional yt-dlp failure should not be reported by Failed")
	}
}
