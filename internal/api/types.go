package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// SubmitRequest is the body of POST /download, as JSON or form fields.
type SubmitRequest struct {
	URL          string `json:"url"`
	Type         string `json:"type"`
	Quality      string `json:"quality,omitempty"`
	AudioBitrate string `json:"abitrate,omitempty"`
}

// SubmitResponse acknowledges an accepted submission.
type SubmitResponse struct {
	JobID string `json:"jobId"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Job describes a job in a transport-friendly format.
type Job struct {
	ID         string  `json:"id"`
	URL        string  `json:"url"`
	Type       string  `json:"type"`
	Quality    string  `json:"quality,omitempty"`
	Bitrate    string  `json:"abitrate,omitempty"`
	Status     string  `json:"status"`
	Progress   float64 `json:"progress"`
	StreamKind string  `json:"streamKind"`
	Filename   string  `json:"filename,omitempty"`
	Error      string  `json:"error,omitempty"`
	CreatedAt  string  `json:"createdAt,omitempty"`
	UpdatedAt  string  `json:"updatedAt,omitempty"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// CancelResponse acknowledges a cancellation request.
type CancelResponse struct {
	JobID    string `json:"jobId"`
	Canceled bool   `json:"canceled"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running       bool   `json:"running"`
	Active        int    `json:"active"`
	Queued        int    `json:"queued"`
	MaxConcurrent int    `json:"maxConcurrent"`
	MaxQueued     int    `json:"maxQueued"`
	LastError     string `json:"lastError,omitempty"`
}

// DependencyStatus captures the outcome of one preflight check.
type DependencyStatus struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional"`
	Detail   string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	WorkDir      string             `json:"workDir"`
	Store        string             `json:"store"`
	LockFilePath string             `json:"lockFilePath"`
	Workflow     WorkflowStatus     `json:"workflow"`
	JobCounts    map[string]int     `json:"jobCounts"`
	Dependencies []DependencyStatus `json:"dependencies"`
}
