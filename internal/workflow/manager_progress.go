package workflow

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"mediafetch/internal/fetch"
	"mediafetch/internal/jobs"
	"mediafetch/internal/logging"
)

// progressHandler returns the callback handed to the fetcher. Each callback
// becomes one atomic store update; the record only reflects the latest
// callback, with no aggregation across streams.
func (m *Manager) progressHandler(ctx context.Context, id string, logger *slog.Logger) func(fetch.Progress) {
	sampler := logging.NewProgressSampler(10)
	return func(p fetch.Progress) {
		if ctx.Err() != nil {
			return
		}
		mutate, ok := progressMutation(p)
		if !ok {
			return
		}
		record, err := m.store.Update(ctx, id, mutate)
		if err != nil {
			if errors.Is(err, jobs.ErrTerminal) || errors.Is(err, context.Canceled) {
				return
			}
			logger.Debug("progress update dropped", logging.Error(err))
			return
		}
		if sampler.ShouldLog(record.Progress, string(record.Status)+":"+string(record.StreamKind)) {
			logger.Debug("fetch progress",
				logging.String("status", string(record.Status)),
				logging.String("stream", string(record.StreamKind)),
				logging.Float64("percent", record.Progress),
			)
		}
	}
}

// progressMutation translates one fetcher callback into a record mutation.
// Download callbacks with an unknown total are skipped. The mutation never
// moves a record backward: download callbacks arriving after processing has
// started update progress only.
func progressMutation(p fetch.Progress) (func(*jobs.Record) error, bool) {
	stream := p.Stream
	if stream == "" {
		stream = jobs.StreamFile
	}

	switch p.Phase {
	case fetch.PhaseProcessing:
		return func(r *jobs.Record) error {
			r.Status = jobs.StatusProcessing
			if p.Stream != "" {
				r.StreamKind = p.Stream
			}
			return nil
		}, true
	case fetch.PhaseStreamFinished:
		return func(r *jobs.Record) error {
			advanceToDownloading(r)
			r.Progress = 100
			r.StreamKind = stream
			return nil
		}, true
	case fetch.PhaseDownloading, "":
		if p.BytesTotal <= 0 {
			return nil, false
		}
		percent := Percent(p.BytesDone, p.BytesTotal)
		return func(r *jobs.Record) error {
			advanceToDownloading(r)
			r.Progress = percent
			r.StreamKind = stream
			return nil
		}, true
	default:
		return nil, false
	}
}

func advanceToDownloading(r *jobs.Record) {
	if r.Status == jobs.StatusStarting {
		r.Status = jobs.StatusDownloading
	}
}

// Percent returns 100*done/total rounded to one decimal and clamped to [0,100].
func Percent(done, total int64) float64 {
	if total <= 0 {
		return 0
	}
	value := math.Round(float64(done)/float64(total)*1000) / 10
	return math.Max(0, math.Min(100, value))
}
