// Package workflow runs one fetch worker per submitted job.
//
// The Manager is the task supervisor: Submit creates the job record, applies
// admission control, and launches a worker goroutine under its own context.
// Workers translate fetcher progress callbacks into job store updates and end
// every job in complete (with a verified artifact) or error (with a readable
// detail and no artifact on disk). Errors never escape a worker; they become
// terminal state.
//
// Jobs may be canceled explicitly, by a per-job timeout, by daemon shutdown, or
// when every progress watcher has detached for longer than the abandon grace
// period.
package workflow
