package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"mediafetch/internal/api"
)

// Submit creates a job and returns its id. Busy rejections are retried up to
// the configured attempt count.
func (c *Client) Submit(ctx context.Context, req api.SubmitRequest) (string, error) {
	encoded, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode submission: %w", err)
	}
	endpoint := c.endpoint("download")

	for attempt := 1; ; attempt++ {
		var resp api.SubmitResponse
		err := c.doJSON(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded), "application/json", &resp)
		if err == nil {
			if resp.JobID == "" {
				return "", fmt.Errorf("submit: daemon returned no job id")
			}
			return resp.JobID, nil
		}
		delay, retry := c.retryDelay(ctx, err, attempt)
		if !retry {
			return "", fmt.Errorf("submit: %w", err)
		}
		if err := c.sleeper(ctx, delay); err != nil {
			return "", err
		}
	}
}

// List returns jobs, optionally filtered by status.
func (c *Client) List(ctx context.Context, statuses ...string) ([]api.Job, error) {
	endpoint := c.endpoint("api", "jobs")
	if len(statuses) > 0 {
		endpoint += "?" + url.Values{"status": {strings.Join(statuses, ",")}}.Encode()
	}
	var resp api.JobListResponse
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, "", &resp); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return resp.Jobs, nil
}

// Cancel asks the daemon to stop a running job.
func (c *Client) Cancel(ctx context.Context, id string) error {
	var resp api.CancelResponse
	if err := c.doJSON(ctx, http.MethodDelete, c.endpoint("jobs", id), nil, "", &resp); err != nil {
		return fmt.Errorf("cancel job %s: %w", id, err)
	}
	return nil
}

// Status returns daemon diagnostics.
func (c *Client) Status(ctx context.Context) (*api.DaemonStatus, error) {
	var resp api.DaemonStatus
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("api", "status"), nil, "", &resp); err != nil {
		return nil, fmt.Errorf("daemon status: %w", err)
	}
	return &resp, nil
}
