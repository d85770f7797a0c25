package testsupport

import (
	"bytes"
	"context"
	"testing"

	"mediafetch/internal/config"
	"mediafetch/internal/jobs"
)

// MustOpenStore opens the configured job store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) jobs.Store {
	t.Helper()

	store, err := jobs.Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewJob creates a job record in the starting status.
func NewJob(t testing.TB, store jobs.Store, kind jobs.RequestKind) *jobs.Record {
	t.Helper()

	req := jobs.Request{URL: "https://example.com/watch?v=1", Kind: kind}
	if kind == jobs.KindAudio {
		req.AudioBitrate = "128"
	} else {
		req.Quality = "best"
	}
	record, err := store.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return record
}

// CompleteJob writes an artifact of size bytes into the job directory and
// marks the record complete. It returns the artifact path.
func CompleteJob(t testing.TB, store jobs.Store, cfg *config.Config, id, filename string, size int64) string {
	t.Helper()

	dir := jobs.JobDir(cfg.Paths.WorkDir, id)
	if dir == "" {
		t.Fatalf("invalid job id %q", id)
	}
	path := WriteArtifact(t, dir, filename, bytes.Repeat([]byte{'x'}, int(max(size, 1))))

	_, err := store.Update(context.Background(), id, func(r *jobs.Record) error {
		r.Status = jobs.StatusComplete
		r.Progress = 100
		r.ResultPath = path
		r.ResultFilename = filename
		return nil
	})
	if err != nil {
		t.Fatalf("store.Update complete: %v", err)
	}
	return path
}

// FailJob marks the record as failed with detail.
func FailJob(t testing.TB, store jobs.Store, id, detail string) {
	t.Helper()

	_, err := store.Update(context.Background(), id, func(r *jobs.Record) error {
		r.Status = jobs.StatusError
		r.ErrorDetail = detail
		return nil
	})
	if err != nil {
		t.Fatalf("store.Update error: %v", err)
	}
}
