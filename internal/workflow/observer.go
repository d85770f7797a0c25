package workflow

import (
	"time"

	"mediafetch/internal/jobs"
)

// Observer receives job lifecycle events. Implementations must be safe for
// concurrent use and must not block.
type Observer interface {
	JobRejected()
	JobStarted(kind jobs.RequestKind)
	JobFinished(kind jobs.RequestKind, status jobs.Status, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) JobRejected() {}
func (nopObserver) JobStarted(jobs.RequestKind) {}
func (nopObserver) JobFinished(jobs.RequestKind, jobs.Status, time.Duration) {}
