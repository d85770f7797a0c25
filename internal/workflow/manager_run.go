package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mediafetch/internal/fetch"
	"mediafetch/internal/jobs"
	"mediafetch/internal/logging"
	"mediafetch/internal/services"
)

// run drives one job to a terminal state. It never returns an error; every
// outcome is recorded in the job store.
func (m *Manager) run(ctx context.Context, t *task, record *jobs.Record) {
	started := time.Now()
	logger := logging.WithContext(ctx, logging.NewComponentLogger(m.logger, "worker"))
	status := jobs.StatusError

	defer func() {
		m.finish(t)
		m.observer.JobFinished(t.kind, status, time.Since(started))
		m.wg.Done()
	}()

	if m.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, m.jobTimeout, errJobTimeout)
		defer cancel()
	}

	if err := m.acquireSlot(ctx); err != nil {
		m.fail(ctx, logger, record, "", cancellationCause(ctx, err))
		return
	}
	defer m.releaseSlot()
	m.markStarted(t)

	jobDir := jobs.JobDir(m.workDir, record.ID)
	if jobDir == "" {
		m.fail(ctx, logger, record, "", fmt.Errorf("%w: work directory not configured", services.ErrConfiguration))
		return
	}
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		m.fail(ctx, logger, record, jobDir, services.Wrap(services.ErrConfiguration, "fetch", "prepare", "create job directory", err))
		return
	}

	format, err := fetch.FormatSelector(record.RequestKind, record.Quality)
	if err != nil {
		m.fail(ctx, logger, record, jobDir, services.Wrap(services.ErrValidation, "fetch", "", "", err))
		return
	}

	req := fetch.Request{
		URL:            record.URL,
		Format:         format,
		OutputDir:      jobDir,
		OutputTemplate: fetch.DefaultOutputTemplate,
		PostProcess:    fetch.PostProcessFor(record.RequestKind, record.AudioBitrate),
		Progress:       m.progressHandler(ctx, record.ID, logger),
	}

	logger.Info("fetch starting",
		logging.String(logging.FieldEventType, "fetch_start"),
		logging.String("format", format),
	)
	result, err := m.fetcher.Fetch(ctx, req)
	if err != nil {
		m.fail(ctx, logger, record, jobDir, cancellationCause(ctx, err))
		return
	}

	finalPath, err := verifyArtifact(jobDir, result.Path, record.RequestKind)
	if err != nil {
		m.fail(ctx, logger, record, jobDir, err)
		return
	}

	filename := filepath.Base(finalPath)
	_, err = m.store.Update(context.WithoutCancel(ctx), record.ID, func(r *jobs.Record) error {
		r.Status = jobs.StatusComplete
		r.Progress = 100
		r.ResultPath = finalPath
		r.ResultFilename = filename
		return nil
	})
	if err != nil {
		logging.ErrorWithContext(logger, "failed to record completion", "job_complete_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check job store health"),
		)
		m.setLastError(err)
		removeJobDir(logger, jobDir)
		return
	}
	status = jobs.StatusComplete
	logger.Info("job complete",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("filename", filename),
		logging.Duration("elapsed", time.Since(started)),
	)
}

// verifyArtifact derives the final path from the fetcher's reported path and
// the request kind and checks the file exists inside the job directory.
func verifyArtifact(jobDir, reported string, kind jobs.RequestKind) (string, error) {
	if strings.TrimSpace(reported) == "" {
		return "", services.Wrap(services.ErrNotFound, "fetch", "verify", "fetcher reported no output path", nil)
	}
	if !filepath.IsAbs(reported) {
		reported = filepath.Join(jobDir, reported)
	}
	finalPath := fetch.FinalPath(filepath.Clean(reported), kind)
	if rel, err := filepath.Rel(jobDir, finalPath); err != nil || strings.HasPrefix(rel, "..") {
		return "", services.Wrap(services.ErrValidation, "fetch", "verify", "output escaped the job directory", nil)
	}
	info, err := os.Stat(finalPath)
	if err != nil {
		return "", services.Wrap(services.ErrNotFound, "fetch", "verify", fmt.Sprintf("artifact %s missing", filepath.Base(finalPath)), err)
	}
	if info.IsDir() {
		return "", services.Wrap(services.ErrNotFound, "fetch", "verify", "artifact is a directory", nil)
	}
	return finalPath, nil
}

// fail records the terminal error state and removes any partial output.
func (m *Manager) fail(ctx context.Context, logger *slog.Logger, record *jobs.Record, jobDir string, cause error) {
	if jobDir != "" {
		removeJobDir(logger, jobDir)
	}
	canceled := errors.Is(cause, services.ErrCanceled)
	if !canceled {
		m.setLastError(cause)
	}

	detail := errorDetail(cause)
	_, err := m.store.Update(context.WithoutCancel(ctx), record.ID, func(r *jobs.Record) error {
		r.Status = jobs.StatusError
		r.ErrorDetail = detail
		return nil
	})
	if err != nil {
		logging.ErrorWithContext(logger, "failed to record job error", "job_error_record_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check job store health"),
		)
		m.setLastError(err)
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "job_failed"),
		logging.String(logging.FieldErrorHint, services.ErrorHint(cause)),
		logging.String("error_detail", detail),
	}
	if canceled {
		logger.Info("job canceled", logging.Args(attrs...)...)
		return
	}
	logger.Error("job failed", logging.Args(append(attrs, logging.Error(cause))...)...)
}

// cancellationCause prefers the context's cancellation cause over the error a
// fetcher returned after noticing the cancellation.
func cancellationCause(ctx context.Context, err error) error {
	if ctx.Err() == nil {
		return err
	}
	if cause := context.Cause(ctx); cause != nil {
		return cause
	}
	return err
}

func errorDetail(err error) string {
	if err == nil {
		return "fetch failed"
	}
	detail := strings.TrimSpace(err.Error())
	if detail == "" {
		return "fetch failed"
	}
	return detail
}

func removeJobDir(logger *slog.Logger, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logging.WarnWithContext(logger, "failed to remove job directory", "job_dir_cleanup_failed",
			logging.String("path", dir),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the directory manually"),
			logging.String(logging.FieldImpact, "disk space is not reclaimed until the janitor runs"),
		)
	}
}

func (m *Manager) acquireSlot(ctx context.Context) error {
	if m.slots == nil {
		return nil
	}
	select {
	case m.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) releaseSlot() {
	if m.slots != nil {
		<-m.slots
	}
}

func (m *Manager) markStarted(t *task) {
	m.mu.Lock()
	t.started = true
	m.mu.Unlock()
}

func (m *Manager) finish(t *task) {
	m.mu.Lock()
	t.done = true
	if t.abandon != nil {
		t.abandon.Stop()
		t.abandon = nil
	}
	delete(m.tasks, t.id)
	m.mu.Unlock()
	t.cancel(nil)
}
