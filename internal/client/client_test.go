package client_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"mediafetch/internal/api"
	"mediafetch/internal/client"
	"mediafetch/internal/daemon"
	"mediafetch/internal/fetch"
	"mediafetch/internal/jobs"
	"mediafetch/internal/logging"
	"mediafetch/internal/progress"
	"mediafetch/internal/testsupport"
)

func startDaemon(t *testing.T, fetcher fetch.Fetcher, opts ...testsupport.ConfigOption) *client.Client {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	d, err := daemon.New(cfg, store, fetcher, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	c, err := client.New(d.Addr())
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	return c
}

func TestSubmitFollowFetch(t *testing.T) {
	fetcher := &testsupport.Fetcher{
		Stem: "Lo-fi: Beats?",
		Steps: []fetch.Progress{
			{Phase: fetch.PhaseDownloading, BytesTotal: 10, BytesDone: 5, Stream: jobs.StreamAudio},
			{Phase: fetch.PhaseProcessing},
		},
	}
	c := startDaemon(t, fetcher)
	ctx := context.Background()

	id, err := c.Submit(ctx, api.SubmitRequest{URL: "https://example.com/a", Type: "audio", AudioBitrate: "192"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	var seen []progress.Snapshot
	last, err := c.Follow(ctx, id, func(s progress.Snapshot) error {
		seen = append(seen, s)
		return nil
	})
	if err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if last.Status != jobs.StatusComplete || len(seen) == 0 || seen[len(seen)-1] != last {
		t.Fatalf("unexpected follow result %+v (seen %d)", last, len(seen))
	}

	dir := t.TempDir()
	dl, err := c.Fetch(ctx, id, dir)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if filepath.Base(dl.Path) != "Lo-fi- Beats.mp3" {
		t.Fatalf("unexpected local name %q", dl.Path)
	}
	raw, err := os.ReadFile(dl.Path)
	if err != nil || string(raw) != "media-bytes" {
		t.Fatalf("unexpected artifact content %q (%v)", raw, err)
	}
	if dl.ContentType != "audio/mpeg" || dl.Bytes != int64(len(raw)) {
		t.Fatalf("unexpected download %+v", dl)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected only the artifact in %s, got %d entries", dir, len(entries))
	}

	if _, err := c.Fetch(ctx, id, dir); !errors.Is(err, client.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second fetch, got %v", err)
	}
}

func TestFetchKeepsUnicodeFilename(t *testing.T) {
	c := startDaemon(t, &testsupport.Fetcher{Stem: "Café Ünïcode"})
	ctx := context.Background()
	id, err := c.Submit(ctx, api.SubmitRequest{URL: "https://example.com/v", Type: "video", Quality: "best"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := c.Follow(ctx, id, nil); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	dl, err := c.Fetch(ctx, id, t.TempDir())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if filepath.Base(dl.Path) != "Café Ünïcode.mp4" {
		t.Fatalf("unexpected local name %q", filepath.Base(dl.Path))
	}
}

func TestFetchNeverOverwritesExistingFile(t *testing.T) {
	c := startDaemon(t, &testsupport.Fetcher{Stem: "Night Drive"})
	ctx := context.Background()
	dir := t.TempDir()
	existing := filepath.Join(dir, "Night Drive.mp3")
	if err := os.WriteFile(existing, []byte("keep-me"), 0o644); err != nil {
		t.Fatalf("write existing: %v", err)
	}

	var got []string
	for range 2 {
		id, err := c.Submit(ctx, api.SubmitRequest{URL: "https://example.com/a", Type: "audio"})
		if err != nil {
			t.Fatalf("Submit: %v", err)
		}
		if _, err := c.Follow(ctx, id, nil); err != nil {
			t.Fatalf("Follow: %v", err)
		}
		dl, err := c.Fetch(ctx, id, dir)
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		got = append(got, filepath.Base(dl.Path))
	}

	if got[0] != "Night Drive (1).mp3" || got[1] != "Night Drive (2).mp3" {
		t.Fatalf("unexpected local names %v", got)
	}
	raw, err := os.ReadFile(existing)
	if err != nil || string(raw) != "keep-me" {
		t.Fatalf("existing file was modified: %q (%v)", raw, err)
	}
	for _, name := range got {
		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil || string(raw) != "media-bytes" {
			t.Fatalf("unexpected content in %s: %q (%v)", name, raw, err)
		}
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 3 {
		t.Fatalf("expected 3 files in %s, got %d", dir, len(entries))
	}
}

func TestSubmitValidationError(t *testing.T) {
	c := startDaemon(t, &testsupport.Fetcher{})
	_, err := c.Submit(context.Background(), api.SubmitRequest{URL: "notaurl", Type: "audio"})
	var statusErr *client.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 status error, got %v", err)
	}
	if !strings.Contains(statusErr.Message, "url") {
		t.Fatalf("expected daemon message, got %q", statusErr.Message)
	}
}

func TestFollowUnknownJob(t *testing.T) {
	c := startDaemon(t, &testsupport.Fetcher{})
	last, err := c.Follow(context.Background(), "missing", nil)
	if err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if last.Status != jobs.StatusUnknown {
		t.Fatalf("expected unknown, got %+v", last)
	}
}

func TestListCancelStatus(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	c := startDaemon(t, &testsupport.Fetcher{Gate: gate})
	ctx := context.Background()

	id, err := c.Submit(ctx, api.SubmitRequest{URL: "https://example.com/a", Type: "audio"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	list, err := c.List(ctx)
	if err != nil || len(list) != 1 || list[0].ID != id {
		t.Fatalf("unexpected list %+v (%v)", list, err)
	}

	if err := c.Cancel(ctx, id); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	last, err := c.Follow(ctx, id, nil)
	if err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if last.Status != jobs.StatusError || !strings.Contains(last.Error, "canceled") {
		t.Fatalf("expected canceled error, got %+v", last)
	}
	if err := c.Cancel(ctx, "missing"); !errors.Is(err, client.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	errored, err := c.List(ctx, "error")
	if err != nil || len(errored) != 1 {
		t.Fatalf("expected one errored job, got %+v (%v)", errored, err)
	}

	status, err := c.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.JobCounts["error"] != 1 {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestSubmitRetriesWhenBusy(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"error":"too many jobs in flight"}`)
			return
		}
		fmt.Fprint(w, `{"jobId":"abc"}`)
	}))
	defer srv.Close()

	var delays []time.Duration
	c, err := client.New(srv.URL,
		client.WithRetryMaxAttempts(3),
		client.WithSleeper(func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, err := c.Submit(context.Background(), api.SubmitRequest{URL: "https://example.com", Type: "audio"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id != "abc" || calls.Load() != 3 {
		t.Fatalf("unexpected id %q after %d calls", id, calls.Load())
	}
	if len(delays) != 2 || delays[0] != 2*time.Second {
		t.Fatalf("expected Retry-After delays, got %v", delays)
	}
}

func TestSubmitBacksOffWithoutRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 4 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"jobId":"xyz"}`)
	}))
	defer srv.Close()

	var delays []time.Duration
	c, err := client.New(srv.URL,
		client.WithHTTPClient(srv.Client()),
		client.WithRetryMaxAttempts(4),
		client.WithRetryBackoff(time.Second, 3*time.Second),
		client.WithSleeper(func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	id, err := c.Submit(context.Background(), api.SubmitRequest{URL: "https://example.com", Type: "video", Quality: "best"})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id != "xyz" {
		t.Fatalf("unexpected id %q", id)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}
	if fmt.Sprint(delays) != fmt.Sprint(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
}

func TestSubmitBusyWithoutRetry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := client.New(srv.URL)
	_, err := c.Submit(context.Background(), api.SubmitRequest{URL: "https://example.com", Type: "audio"})
	if !errors.Is(err, client.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestFollowParsesEventFraming(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "data: {\"status\":\"downloading\",\ndata: \"progress\":12.5,\"streamKind\":\"video\"}\n\n")
		fmt.Fprint(w, "event: ignored\ndata:{\"status\":\"complete\",\"progress\":100,\"streamKind\":\"file\",\"filename\":\"a.mp4\"}\n\n")
		fmt.Fprint(w, "data: {\"status\":\"never\"}\n\n")
	}))
	defer srv.Close()

	c, _ := client.New(srv.URL)
	var seen []progress.Snapshot
	last, err := c.Follow(context.Background(), "x", func(s progress.Snapshot) error {
		seen = append(seen, s)
		return nil
	})
	if err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if len(seen) != 2 || seen[0].Progress != 12.5 || last.Filename != "a.mp4" {
		t.Fatalf("unexpected snapshots %+v", seen)
	}
}

func TestFollowReportsTruncatedStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"status\":\"downloading\",\"progress\":1,\"streamKind\":\"audio\"}\n\n")
	}))
	defer srv.Close()

	c, _ := client.New(srv.URL)
	last, err := c.Follow(context.Background(), "x", nil)
	if !errors.Is(err, client.ErrStreamClosed) {
		t.Fatalf("expected ErrStreamClosed, got %v", err)
	}
	if last.Status != jobs.StatusDownloading {
		t.Fatalf("expected last snapshot to be returned, got %+v", last)
	}
}

func TestNewValidatesAddress(t *testing.T) {
	if _, err := client.New(""); err == nil {
		t.Fatal("expected error for empty address")
	}
	c, err := client.New("127.0.0.1:8787")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.BaseURL() != "http://127.0.0.1:8787" {
		t.Fatalf("unexpected base url %q", c.BaseURL())
	}
}
