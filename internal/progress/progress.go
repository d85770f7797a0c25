package progress

import (
	"context"
	"errors"
	"time"

	"mediafetch/internal/jobs"
)

// DefaultInterval is the polling interval used when none is configured.
const DefaultInterval = 500 * time.Millisecond

// Snapshot is one observation of a job as sent to clients.
type Snapshot struct {
	Status     jobs.Status     `json:"status"`
	Progress   float64         `json:"progress"`
	StreamKind jobs.StreamKind `json:"streamKind"`
	Filename   string          `json:"filename,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// Terminal reports whether no further snapshots follow this one.
func (s Snapshot) Terminal() bool {
	return s.Status.IsTerminal() || s.Status == jobs.StatusUnknown
}

// FromRecord builds the client view of a record. A nil record is unknown.
func FromRecord(record *jobs.Record) Snapshot {
	if record == nil {
		return Unknown()
	}
	snap := Snapshot{
		Status:     record.Status,
		Progress:   record.Progress,
		StreamKind: record.StreamKind,
	}
	switch record.Status {
	case jobs.StatusComplete:
		snap.Filename = record.ResultFilename
	case jobs.StatusError:
		snap.Error = record.ErrorDetail
	}
	if snap.StreamKind == "" {
		snap.StreamKind = jobs.StreamFile
	}
	return snap
}

// Unknown is the snapshot reported for an id the store does not hold.
func Unknown() Snapshot {
	return Snapshot{Status: jobs.StatusUnknown, StreamKind: jobs.StreamFile}
}

// Getter is the read side of a job store.
type Getter interface {
	Get(ctx context.Context, id string) (*jobs.Record, error)
}

// Streamer polls a job store and emits snapshots for one job at a time.
type Streamer struct {
	Store    Getter
	Interval time.Duration
}

// Stream emits snapshots for id until a terminal or unknown snapshot has been
// emitted, ctx is done, or emit fails. The first observation is emitted
// immediately; later ones only when they differ from the previous snapshot.
// A record that disappears mid-stream (purged by delivery or the janitor)
// yields a final unknown snapshot.
func (s Streamer) Stream(ctx context.Context, id string, emit func(Snapshot) error) error {
	if s.Store == nil {
		return errors.New("progress streamer has no store")
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		last    Snapshot
		emitted bool
	)
	for {
		record, err := s.Store.Get(ctx, id)
		if err != nil {
			return err
		}
		snap := FromRecord(record)
		if !emitted || snap != last {
			if err := emit(snap); err != nil {
				return err
			}
			last, emitted = snap, true
		}
		if snap.Terminal() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
