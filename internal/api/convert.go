package api

import (
	"strings"

	"mediafetch/internal/jobs"
	"mediafetch/internal/preflight"
	"mediafetch/internal/workflow"
)

// JobRequest converts a submission payload into a job request. Validation is
// left to the workflow manager so every entry point applies the same rules.
func (r SubmitRequest) JobRequest() jobs.Request {
	return jobs.Request{
		URL:          strings.TrimSpace(r.URL),
		Kind:         jobs.RequestKind(strings.ToLower(strings.TrimSpace(r.Type))),
		Quality:      strings.TrimSpace(r.Quality),
		AudioBitrate: strings.TrimSpace(r.AudioBitrate),
	}
}

// FromRecord converts a job record to its API representation.
func FromRecord(record *jobs.Record) Job {
	if record == nil {
		return Job{}
	}
	dto := Job{
		ID:         record.ID,
		URL:        record.URL,
		Type:       string(record.RequestKind),
		Quality:    record.Quality,
		Bitrate:    record.AudioBitrate,
		Status:     string(record.Status),
		Progress:   record.Progress,
		StreamKind: string(record.StreamKind),
		Error:      record.ErrorDetail,
	}
	if record.Status == jobs.StatusComplete {
		dto.Filename = record.ResultFilename
	}
	if !record.CreatedAt.IsZero() {
		dto.CreatedAt = record.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !record.UpdatedAt.IsZero() {
		dto.UpdatedAt = record.UpdatedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromRecords converts a slice of job records into API DTOs. The result is
// never nil so it encodes as an empty JSON array.
func FromRecords(records []*jobs.Record) []Job {
	out := make([]Job, 0, len(records))
	for _, record := range records {
		out = append(out, FromRecord(record))
	}
	return out
}

// CountByStatus tallies records per status. Every stored status is present,
// including those with a zero count.
func CountByStatus(records []*jobs.Record) map[string]int {
	counts := make(map[string]int, len(jobs.AllStatuses()))
	for _, status := range jobs.AllStatuses() {
		counts[string(status)] = 0
	}
	for _, record := range records {
		if record != nil {
			counts[string(record.Status)]++
		}
	}
	return counts
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	return WorkflowStatus{
		Running:       summary.Running,
		Active:        summary.Active,
		Queued:        summary.Queued,
		MaxConcurrent: summary.MaxConcurrent,
		MaxQueued:     summary.MaxQueued,
		LastError:     summary.LastError,
	}
}

// FromPreflight converts preflight results to dependency statuses.
func FromPreflight(results []preflight.Result) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(results))
	for _, r := range results {
		out = append(out, DependencyStatus{
			Name:     r.Name,
			Passed:   r.Passed,
			Optional: r.Optional,
			Detail:   r.Detail,
		})
	}
	return out
}
