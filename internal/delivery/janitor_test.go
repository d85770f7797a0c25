package delivery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediafetch/internal/jobs"
	"mediafetch/internal/logging"
	"mediafetch/internal/testsupport"
)

func TestSweepRemovesExpiredTerminalJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	svc := NewService(store, cfg.Paths.WorkDir, logging.NewNop())
	janitor := NewJanitor(svc, time.Minute, time.Minute)

	done := testsupport.NewJob(t, store, jobs.KindAudio)
	path := testsupport.CompleteJob(t, store, cfg, done.ID, "Song.mp3", 10)
	failed := testsupport.NewJob(t, store, jobs.KindAudio)
	testsupport.FailJob(t, store, failed.ID, "boom")
	running := testsupport.NewJob(t, store, jobs.KindAudio)

	purged, err := janitor.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if purged != 0 {
		t.Fatalf("fresh jobs purged: %d", purged)
	}

	janitor.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	purged, err = janitor.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if purged != 2 {
		t.Fatalf("purged = %d, want 2", purged)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("artifact should be removed, stat err = %v", err)
	}
	if got, _ := store.Get(context.Background(), running.ID); got == nil {
		t.Fatal("running job must not be swept")
	}
}

func TestSweepSkipsClaimedJobs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	svc := NewService(store, cfg.Paths.WorkDir, logging.NewNop())
	janitor := NewJanitor(svc, time.Minute, time.Minute)
	janitor.now = func() time.Time { return time.Now().Add(time.Hour) }

	record := testsupport.NewJob(t, store, jobs.KindAudio)
	testsupport.CompleteJob(t, store, cfg, record.ID, "Song.mp3", 10)
	artifact, err := svc.Claim(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if purged, _ := janitor.Sweep(context.Background()); purged != 0 {
		t.Fatalf("claimed job swept")
	}
	_ = artifact.Close()
}

func TestPurgeOrphans(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	svc := NewService(store, cfg.Paths.WorkDir, logging.NewNop())
	janitor := NewJanitor(svc, time.Minute, time.Minute)

	live := testsupport.NewJob(t, store, jobs.KindAudio)
	liveDir := jobs.JobDir(cfg.Paths.WorkDir, live.ID)
	orphanDir := jobs.JobDir(cfg.Paths.WorkDir, jobs.NewID())
	otherDir := filepath.Join(cfg.Paths.WorkDir, "keep-me")
	for _, dir := range []string{liveDir, orphanDir, otherDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	removed, err := janitor.PurgeOrphans(context.Background())
	if err != nil {
		t.Fatalf("PurgeOrphans: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(orphanDir); !os.IsNotExist(err) {
		t.Fatal("orphan directory should be removed")
	}
	for _, dir := range []string{liveDir, otherDir} {
		if _, err := os.Stat(dir); err != nil {
			t.Fatalf("%s should remain: %v", dir, err)
		}
	}
}

func TestRunDisabled(t *testing.T) {
	janitor := NewJanitor(NewService(jobs.NewMemoryStore(), t.TempDir(), nil), 0, time.Second)
	done := make(chan struct{})
	go func() {
		janitor.Run(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run should return immediately when disabled")
	}
}
