package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mediafetch/internal/jobs"
	"mediafetch/internal/logging"
)

// Janitor reclaims terminal jobs that were never collected.
type Janitor struct {
	service   *Service
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// NewJanitor constructs a janitor that removes terminal jobs whose last update
// is older than retention, checking every interval.
func NewJanitor(service *Service, retention, interval time.Duration) *Janitor {
	return &Janitor{
		service:   service,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// Run sweeps until ctx is done. It returns immediately when retention or
// interval is not positive.
func (j *Janitor) Run(ctx context.Context) {
	if j.retention <= 0 || j.interval <= 0 {
		return
	}
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := j.Sweep(ctx); err != nil && ctx.Err() == nil {
				logging.WarnWithContext(j.service.logger, "sweep failed", "sweep_failed",
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "check job store health"),
					logging.String(logging.FieldImpact, "expired jobs remain until the next sweep"),
				)
			}
		}
	}
}

// Sweep removes expired terminal jobs and returns how many were purged. Jobs
// with an outstanding claim are skipped.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	records, err := j.service.store.List(ctx, jobs.StatusComplete, jobs.StatusError)
	if err != nil {
		return 0, fmt.Errorf("list terminal jobs: %w", err)
	}
	cutoff := j.now().Add(-j.retention)
	purged := 0
	for _, record := range records {
		if record.UpdatedAt.After(cutoff) {
			continue
		}
		if !j.service.reserve(record.ID) {
			continue
		}
		j.service.purge(ctx, record.ID, record.ResultPath)
		j.service.release(record.ID)
		purged++
		j.service.logger.Info("expired job purged",
			logging.String(logging.FieldJobID, record.ID),
			logging.String(logging.FieldEventType, "job_expired"),
			logging.String("status", string(record.Status)),
			logging.Duration("age", j.now().Sub(record.UpdatedAt)),
		)
	}
	if purged > 0 {
		j.service.observer.JobsSwept(purged)
	}
	return purged, nil
}

// PurgeOrphans removes job directories under the work directory that have no
// record. Entries that are not job directories are left alone.
func (j *Janitor) PurgeOrphans(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(j.service.workDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read work directory: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !jobs.IsID(entry.Name()) {
			continue
		}
		record, err := j.service.store.Get(ctx, entry.Name())
		if err != nil {
			return removed, fmt.Errorf("load job %s: %w", entry.Name(), err)
		}
		if record != nil {
			continue
		}
		if err := os.RemoveAll(filepath.Join(j.service.workDir, entry.Name())); err != nil {
			j.service.cleanupFailed(entry.Name(), "delete orphaned job directory", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		j.service.logger.Info("orphaned job directories removed",
			logging.Int("count", removed),
			logging.String(logging.FieldEventType, "orphans_purged"),
		)
	}
	return removed, nil
}
