package jobs

import (
	"fmt"
	"math"
	"time"
)

// CanTransition reports whether a record may move from one status to another.
// Status only moves forward along starting, downloading, processing, complete;
// error is reachable from any non-terminal status. Skipping forward is allowed.
// Repeating a non-terminal status is allowed so progress ticks can be recorded.
func CanTransition(from, to Status) bool {
	if from.IsTerminal() || !from.Valid() || !to.Valid() {
		return false
	}
	if to == StatusError {
		return true
	}
	return statusOrder[to] >= statusOrder[from]
}

// applyMutation validates next against prev and normalizes it in place. The
// identity fields of the record cannot be changed by a mutation.
func applyMutation(prev *Record, next *Record, now time.Time) error {
	if prev.Status.IsTerminal() {
		return fmt.Errorf("%w: %s is %s", ErrTerminal, prev.ID, prev.Status)
	}
	if !CanTransition(prev.Status, next.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, prev.Status, next.Status)
	}

	next.ID = prev.ID
	next.URL = prev.URL
	next.RequestKind = prev.RequestKind
	next.Quality = prev.Quality
	next.AudioBitrate = prev.AudioBitrate
	next.CreatedAt = prev.CreatedAt
	next.UpdatedAt = now

	next.Progress = clampProgress(next.Progress)
	if next.StreamKind == "" {
		next.StreamKind = prev.StreamKind
	}
	if next.Status != StatusComplete {
		next.ResultPath = ""
		next.ResultFilename = ""
	}
	if next.Status != StatusError {
		next.ErrorDetail = ""
	}
	return nil
}

func clampProgress(value float64) float64 {
	switch {
	case math.IsNaN(value), value < 0:
		return 0
	case value > 100:
		return 100
	default:
		return value
	}
}
