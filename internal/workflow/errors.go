package workflow

import (
	"errors"
	"fmt"

	"mediafetch/internal/services"
)

var (
	// ErrBusy indicates admission control rejected a submission.
	ErrBusy = errors.New("too many jobs in flight")
	// ErrNotRunning indicates the manager has not been started or was stopped.
	ErrNotRunning = errors.New("workflow not running")
	// ErrJobFinished indicates Cancel was called on a job that already ended.
	ErrJobFinished = errors.New("job already finished")
)

// Cancellation causes. Each is recorded as the job's error detail.
var (
	errCanceledByRequest = fmt.Errorf("%w by request", services.ErrCanceled)
	errShutdown          = fmt.Errorf("%w: daemon shutting down", services.ErrCanceled)
	errAbandoned         = fmt.Errorf("%w: no progress watcher remained", services.ErrCanceled)
	errJobTimeout        = fmt.Errorf("%w: job exceeded its time limit", services.ErrTimeout)
)
