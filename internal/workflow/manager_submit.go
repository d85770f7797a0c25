package workflow

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"mediafetch/internal/fetch"
	"mediafetch/internal/jobs"
	"mediafetch/internal/logging"
	"mediafetch/internal/services"
)

// Submit validates req, creates its record in the starting status, and
// launches its worker. It returns as soon as the worker is scheduled.
func (m *Manager) Submit(ctx context.Context, req jobs.Request) (*jobs.Record, error) {
	req, err := normalizeRequest(req, m.defaultBitrate)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return nil, ErrNotRunning
	}
	if m.maxConcurrent > 0 && len(m.tasks) >= m.maxConcurrent+m.maxQueued {
		m.observer.JobRejected()
		m.logger.Warn("submission rejected",
			logging.Int("in_flight", len(m.tasks)),
			logging.String(logging.FieldEventType, "submission_rejected"),
			logging.String(logging.FieldErrorHint, "raise workflow.max_concurrent or workflow.max_queued"),
			logging.String(logging.FieldImpact, "client must retry later"),
		)
		return nil, ErrBusy
	}

	record, err := m.store.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	jobCtx, cancel := context.WithCancelCause(logging.WithJobID(m.baseCtx, record.ID))
	t := &task{id: record.ID, kind: record.RequestKind, cancel: cancel}
	m.tasks[record.ID] = t
	m.wg.Add(1)
	m.observer.JobStarted(record.RequestKind)

	logging.WithContext(jobCtx, m.logger).Info("job submitted",
		logging.String(logging.FieldEventType, "job_submitted"),
		logging.String(logging.FieldRequestKind, string(record.RequestKind)),
		logging.String("url", record.URL),
	)

	go m.run(jobCtx, t, record.Clone())
	return record, nil
}

// normalizeRequest rejects submissions that can never succeed before a job is
// created.
func normalizeRequest(req jobs.Request, defaultBitrate string) (jobs.Request, error) {
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		return req, services.Wrap(services.ErrValidation, "submit", "", "url is required", nil)
	}
	parsed, err := url.Parse(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return req, services.Wrap(services.ErrValidation, "submit", "", "url must be an http or https address", nil)
	}

	kind, err := jobs.ParseRequestKind(string(req.Kind))
	if err != nil {
		return req, services.Wrap(services.ErrValidation, "submit", "", err.Error(), nil)
	}
	req.Kind = kind

	req.Quality = strings.ToLower(strings.TrimSpace(req.Quality))
	req.AudioBitrate = strings.TrimSpace(req.AudioBitrate)
	switch kind {
	case jobs.KindVideo:
		if req.Quality == "" {
			return req, services.Wrap(services.ErrValidation, "submit", "", "quality is required for video", nil)
		}
		if _, err := fetch.FormatSelector(kind, req.Quality); err != nil {
			return req, services.Wrap(services.ErrValidation, "submit", "", err.Error(), nil)
		}
		req.AudioBitrate = ""
	case jobs.KindAudio:
		if req.AudioBitrate == "" {
			req.AudioBitrate = defaultBitrate
		}
		if n, err := strconv.Atoi(strings.TrimSuffix(strings.ToLower(req.AudioBitrate), "k")); err != nil || n <= 0 {
			return req, services.Wrap(services.ErrValidation, "submit", "", fmt.Sprintf("invalid abitrate %q", req.AudioBitrate), nil)
		}
	}
	return req, nil
}

// DefaultAudioBitrate is used when an audio submission omits abitrate.
const DefaultAudioBitrate = "128"
