package api

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"mediafetch/internal/jobs"
	"mediafetch/internal/preflight"
	"mediafetch/internal/workflow"
)

func TestSubmitRequestJobRequest(t *testing.T) {
	req := SubmitRequest{URL: "  https://example.com/v  ", Type: " Audio ", AudioBitrate: " 192 "}.JobRequest()
	if req.URL != "https://example.com/v" {
		t.Fatalf("unexpected url %q", req.URL)
	}
	if req.Kind != jobs.KindAudio {
		t.Fatalf("unexpected kind %q", req.Kind)
	}
	if req.AudioBitrate != "192" {
		t.Fatalf("unexpected bitrate %q", req.AudioBitrate)
	}
}

func TestFromRecordCompleteExposesFilenameOnly(t *testing.T) {
	created := time.Date(2026, 3, 4, 5, 6, 7, 8_000_000, time.UTC)
	record := &jobs.Record{
		ID:             "6f1c2a0e-8d6b-4a47-9a38-0b0b8f2c9d11",
		URL:            "https://example.com/v",
		RequestKind:    jobs.KindVideo,
		Quality:        "720",
		Status:         jobs.StatusComplete,
		Progress:       100,
		StreamKind:     jobs.StreamVideo,
		ResultPath:     "/srv/work/6f1c/My Clip.mp4",
		ResultFilename: "My Clip.mp4",
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	dto := FromRecord(record)
	if dto.Filename != "My Clip.mp4" {
		t.Fatalf("unexpected filename %q", dto.Filename)
	}
	if dto.CreatedAt != "2026-03-04T05:06:07.008Z" {
		t.Fatalf("unexpected createdAt %q", dto.CreatedAt)
	}
	raw, err := json.Marshal(dto)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "/srv/work") {
		t.Fatalf("server path leaked into payload: %s", raw)
	}
	if !strings.Contains(string(raw), `"streamKind":"video"`) {
		t.Fatalf("missing streamKind in %s", raw)
	}
}

func TestFromRecordNilAndIncomplete(t *testing.T) {
	if dto := FromRecord(nil); dto.ID != "" {
		t.Fatalf("expected zero dto, got %#v", dto)
	}
	dto := FromRecord(&jobs.Record{ID: "x", Status: jobs.StatusError, ErrorDetail: "boom", ResultFilename: "stale.mp3"})
	if dto.Filename != "" {
		t.Fatalf("filename should be hidden until complete, got %q", dto.Filename)
	}
	if dto.Error != "boom" {
		t.Fatalf("unexpected error %q", dto.Error)
	}
}

func TestFromRecordsNeverNil(t *testing.T) {
	out := FromRecords(nil)
	if out == nil {
		t.Fatal("expected empty slice, got nil")
	}
	raw, _ := json.Marshal(JobListResponse{Jobs: out})
	if string(raw) != `{"jobs":[]}` {
		t.Fatalf("unexpected encoding %s", raw)
	}
}

func TestCountByStatus(t *testing.T) {
	counts := CountByStatus([]*jobs.Record{
		{Status: jobs.StatusStarting},
		{Status: jobs.StatusComplete},
		{Status: jobs.StatusComplete},
		nil,
	})
	if counts["complete"] != 2 || counts["starting"] != 1 {
		t.Fatalf("unexpected counts %#v", counts)
	}
	if _, ok := counts["error"]; !ok {
		t.Fatal("expected zero entry for error status")
	}
}

func TestFromStatusSummaryAndPreflight(t *testing.T) {
	wf := FromStatusSummary(workflow.StatusSummary{Running: true, Active: 2, Queued: 1, MaxConcurrent: 4, LastError: "x"})
	if !wf.Running || wf.Active != 2 || wf.Queued != 1 || wf.MaxConcurrent != 4 || wf.LastError != "x" {
		t.Fatalf("unexpected workflow status %#v", wf)
	}
	deps := FromPreflight([]preflight.Result{{Name: "FFmpeg", Passed: true, Detail: "/usr/bin/ffmpeg"}})
	if len(deps) != 1 || deps[0].Name != "FFmpeg" || !deps[0].Passed {
		t.Fatalf("unexpected deps %#v", deps)
	}
}
