package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mediafetch/internal/progress"
)

// ErrStreamClosed reports a progress stream that ended before a terminal
// snapshot arrived.
var ErrStreamClosed = errors.New("progress stream closed before the job finished")

// Follow streams progress snapshots for id, calling fn for each, and returns
// the last snapshot. It ends after the terminal (or unknown) snapshot, when
// ctx is done, or when fn returns an error.
func (c *Client) Follow(ctx context.Context, id string, fn func(progress.Snapshot) error) (progress.Snapshot, error) {
	var last progress.Snapshot
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("progress", id), nil)
	if err != nil {
		return last, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	resp, err := c.streamClient.Do(req)
	if err != nil {
		return last, fmt.Errorf("follow job %s: %w", id, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return last, fmt.Errorf("follow job %s: %w", id, err)
	}

	received := false
	err = readEvents(resp.Body, func(data string) error {
		var snap progress.Snapshot
		if err := json.Unmarshal([]byte(data), &snap); err != nil {
			return fmt.Errorf("decode progress event: %w", err)
		}
		last, received = snap, true
		if fn != nil {
			if err := fn(snap); err != nil {
				return err
			}
		}
		if snap.Terminal() {
			return io.EOF
		}
		return nil
	})
	switch {
	case errors.Is(err, io.EOF):
		return last, nil
	case err != nil:
		if ctx.Err() != nil {
			return last, ctx.Err()
		}
		return last, err
	case !received || !last.Terminal():
		return last, ErrStreamClosed
	}
	return last, nil
}

// readEvents parses a text/event-stream body and calls dispatch with the
// data of each event. Multi-line data fields are joined with newlines;
// comments and other fields are ignored.
func readEvents(r io.Reader, dispatch func(data string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	var data []string
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			if len(data) > 0 {
				if err := dispatch(strings.Join(data, "\n")); err != nil {
					return err
				}
				data = data[:0]
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, _ := strings.Cut(line, ":")
		if field == "data" {
			data = append(data, strings.TrimPrefix(value, " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if len(data) > 0 {
		return dispatch(strings.Join(data, "\n"))
	}
	return nil
}
