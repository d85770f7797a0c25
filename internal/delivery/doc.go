// Package delivery hands out finished artifacts exactly once and reclaims
// everything that is never collected.
//
// Service.Claim grants a single reader for a complete job; closing the
// Artifact purges the record, the file, and the job directory. Cleanup
// failures are logged and never surface to the caller, whose response has
// already been sent. The Janitor sweeps terminal jobs that outlive the
// retention window and removes job directories that have no record.
package delivery
