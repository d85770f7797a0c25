package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"mediafetch/internal/api"
	"mediafetch/internal/delivery"
	"mediafetch/internal/jobs"
	"mediafetch/internal/logging"
	"mediafetch/internal/progress"
	"mediafetch/internal/services"
	"mediafetch/internal/textutil"
	"mediafetch/internal/workflow"
)

// maxSubmitBody bounds POST /download bodies.
const maxSubmitBody = 64 << 10

// busyRetryAfter is advertised to clients rejected by admission control.
const busyRetryAfter = 5 * time.Second

func (s *apiServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSubmitRequest(w, r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	record, err := s.daemon.workflow.Submit(r.Context(), req.JobRequest())
	switch {
	case err == nil:
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, workflow.ErrBusy):
		w.Header().Set("Retry-After", strconv.Itoa(int(busyRetryAfter.Seconds())))
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case errors.Is(err, workflow.ErrNotRunning):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	default:
		s.requestLogger(r).Error("submit failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}
	s.writeJSON(w, http.StatusOK, api.SubmitResponse{JobID: record.ID})
}

// decodeSubmitRequest accepts a JSON body or url-encoded/multipart form
// fields with the same names.
func decodeSubmitRequest(w http.ResponseWriter, r *http.Request) (api.SubmitRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSubmitBody)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req api.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("invalid JSON body: %w", err)
		}
		return req, nil
	}
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxSubmitBody); err != nil {
			return api.SubmitRequest{}, fmt.Errorf("invalid form body: %w", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return api.SubmitRequest{}, fmt.Errorf("invalid form body: %w", err)
	}
	return api.SubmitRequest{
		URL:          r.FormValue("url"),
		Type:         r.FormValue("type"),
		Quality:      r.FormValue("quality"),
		AudioBitrate: r.FormValue("abitrate"),
	}, nil
}

// handleProgress streams snapshots as server-sent events until the job is
// terminal or unknown. The connection counts as a watcher for abandonment.
func (s *apiServer) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("jobId")
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	detach := s.daemon.workflow.Attach(id)
	defer detach()

	ctx, cancel := s.streamContext(r)
	defer cancel()

	err := s.daemon.streamer.Stream(ctx, id, func(snap progress.Snapshot) error {
		payload, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
			return err
		}
		return rc.Flush()
	})
	if err != nil && ctx.Err() == nil {
		s.requestLogger(r).Debug("progress stream ended early",
			logging.String(logging.FieldJobID, id),
			logging.Error(err),
		)
	}
}

// handleResult delivers a complete job's artifact exactly once. HEAD only
// describes the artifact and never claims it.
func (s *apiServer) handleResult(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("jobId")
	if r.Method == http.MethodHead {
		s.describeResult(w, r, id)
		return
	}
	artifact, err := s.daemon.delivery.Claim(r.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, delivery.ErrNotReady):
		s.writeError(w, http.StatusNotFound, "job is not complete")
		return
	case errors.Is(err, delivery.ErrNotFound), errors.Is(err, delivery.ErrMissingArtifact):
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	default:
		s.requestLogger(r).Error("claim failed", logging.String(logging.FieldJobID, id), logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to open artifact")
		return
	}
	defer artifact.Close()

	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", artifact.ContentType)
	w.Header().Set("Content-Disposition", textutil.ContentDisposition(artifact.Filename))
	w.Header().Set("Content-Length", strconv.FormatInt(artifact.Size, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, artifact); err != nil {
		logging.WarnWithContext(s.requestLogger(r), "artifact transfer interrupted", "artifact_transfer_failed",
			logging.String(logging.FieldJobID, id),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the client disconnected before the download finished"),
			logging.String(logging.FieldImpact, "artifact purged; resubmit to download again"),
		)
	}
}

// describeResult answers HEAD /result/{jobId} with the headers a GET would
// send, leaving the job in place.
func (s *apiServer) describeResult(w http.ResponseWriter, r *http.Request, id string) {
	record, err := s.daemon.store.Get(r.Context(), id)
	switch {
	case err != nil:
		s.requestLogger(r).Error("lookup failed", logging.String(logging.FieldJobID, id), logging.Error(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	case record == nil || s.daemon.delivery.IsClaimed(id):
		w.WriteHeader(http.StatusNotFound)
		return
	case record.Status != jobs.StatusComplete:
		w.WriteHeader(http.StatusNotFound)
		return
	}
	info, err := os.Stat(record.ResultPath)
	if err != nil || !info.Mode().IsRegular() {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", delivery.ContentType(record.ResultFilename))
	w.Header().Set("Content-Disposition", textutil.ContentDisposition(record.ResultFilename))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.WriteHeader(http.StatusOK)
}

func (s *apiServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("jobId")
	err := s.daemon.workflow.Cancel(id)
	switch {
	case err == nil:
		s.requestLogger(r).Info("job cancel requested", logging.String(logging.FieldJobID, id))
		s.writeJSON(w, http.StatusAccepted, api.CancelResponse{JobID: id, Canceled: true})
	case errors.Is(err, jobs.ErrNotFound):
		s.writeError(w, http.StatusNotFound, "job not found")
	case errors.Is(err, workflow.ErrJobFinished):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	var statuses []jobs.Status
	for _, value := range r.URL.Query()["status"] {
		for _, part := range strings.Split(value, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			status, ok := jobs.ParseStatus(trimmed)
			if !ok {
				s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", trimmed))
				return
			}
			statuses = append(statuses, status)
		}
	}
	records, err := s.daemon.store.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: api.FromRecords(records)})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	records, err := s.daemon.store.List(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		WorkDir:      status.WorkDir,
		Store:        status.Store,
		LockFilePath: status.LockFilePath,
		Workflow:     api.FromStatusSummary(status.Workflow),
		JobCounts:    api.CountByStatus(records),
		Dependencies: api.FromPreflight(status.Checks),
	})
}
