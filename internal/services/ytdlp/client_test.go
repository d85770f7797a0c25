package ytdlp

import (
	"os"
	"path/filepath"
	"testing"

	goytdlp "github.com/lrstanley/go-ytdlp"

	"mediafetch/internal/fetch"
	"mediafetch/internal/jobs"
)

func TestTranslateProgress(t *testing.T) {
	cases := []struct {
		status    goytdlp.ProgressStatus
		file      string
		wantOK    bool
		wantPhase fetch.Phase
		wantKind  jobs.StreamKind
	}{
		{goytdlp.ProgressStatusDownloading, "/w/a.f137.mp4.part", true, fetch.PhaseDownloading, jobs.StreamVideo},
		{goytdlp.ProgressStatusFinished, "/w/a.f140.m4a", true, fetch.PhaseStreamFinished, jobs.StreamAudio},
		{goytdlp.ProgressStatusPostProcessing, "/w/a.mp3", true, fetch.PhaseProcessing, jobs.StreamAudio},
		{goytdlp.ProgressStatusStarting, "/w/a.mp4", false, "", ""},
		{goytdlp.ProgressStatusError, "/w/a.mp4", false, "", ""},
	}
	for _, tc := range cases {
		got, ok := translateProgress(tc.status, 100, 50, tc.file)
		if ok != tc.wantOK {
			t.Fatalf("translateProgress(%s) ok = %v, want %v", tc.status, ok, tc.wantOK)
		}
		if !ok {
			continue
		}
		if got.Phase != tc.wantPhase || got.Stream != tc.wantKind {
			t.Fatalf("translateProgress(%s) = %+v", tc.status, got)
		}
		if got.BytesTotal != 100 || got.BytesDone != 50 {
			t.Fatalf("bytes not carried: %+v", got)
		}
	}
}

func TestAudioQuality(t *testing.T) {
	cases := map[string]string{"128": "128K", "192k": "192K", " 320K ": "320K", "": ""}
	for in, want := range cases {
		if got := audioQuality(in); got != want {
			t.Errorf("audioQuality(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStripFormatID(t *testing.T) {
	cases := map[string]string{
		"/w/Title.f137":   "/w/Title",
		"/w/Title":        "/w/Title",
		"/w/Title.final":  "/w/Title.final",
		"/w/Title.f":      "/w/Title.f",
		"/w/My.Song.f251": "/w/My.Song",
	}
	for in, want := range cases {
		if got := stripFormatID(in); got != want {
			t.Errorf("stripFormatID(%q) = %q, want %q", in, got, want)
		}
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestResolveOutputPrefersReportedWithExtension(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "Song.mp3")
	writeFile(t, final)

	got, err := resolveOutput(dir, "mp3", filepath.Join(dir, "Song.webm"))
	if err != nil {
		t.Fatalf("resolveOutput: %v", err)
	}
	if got != final {
		t.Fatalf("resolveOutput = %q, want %q", got, final)
	}
}

func TestResolveOutputMergedStream(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "Clip.mp4")
	writeFile(t, final)

	got, err := resolveOutput(dir, "mp4", filepath.Join(dir, "Clip.f137.mp4"))
	if err != nil {
		t.Fatalf("resolveOutput: %v", err)
	}
	if got != final {
		t.Fatalf("resolveOutput = %q, want %q", got, final)
	}
}

func TestResolveOutputScansDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "leftover.webm.part"))
	final := filepath.Join(dir, "Other.mp3")
	writeFile(t, final)

	got, err := resolveOutput(dir, "mp3", "")
	if err != nil {
		t.Fatalf("resolveOutput: %v", err)
	}
	if got != final {
		t.Fatalf("resolveOutput = %q, want %q", got, final)
	}
}

func TestResolveOutputFailures(t *testing.T) {
	dir := t.TempDir()
	if _, err := resolveOutput(dir, "mp3", ""); err == nil {
		t.Fatal("expected error for empty directory")
	}
	writeFile(t, filepath.Join(dir, "a.mp3"))
	writeFile(t, filepath.Join(dir, "b.mp3"))
	if _, err := resolveOutput(dir, "mp3", ""); err == nil {
		t.Fatal("expected error for ambiguous output")
	}
}

func TestCommandRejectsMissingInputs(t *testing.T) {
	client := New()
	if _, err := client.Fetch(t.Context(), fetch.Request{OutputDir: t.TempDir()}); err == nil {
		t.Fatal("expected error for missing url")
	}
	if _, err := client.Fetch(t.Context(), fetch.Request{URL: "https://example/x"}); err == nil {
		t.Fatal("expected error for missing output dir")
	}
}

func TestExpectedExtension(t *testing.T) {
	if got := expectedExtension(fetch.PostProcessFor(jobs.KindAudio, "128")); got != "mp3" {
		t.Fatalf("audio ext = %q", got)
	}
	if got := expectedExtension(fetch.PostProcessFor(jobs.KindVideo, "")); got != "mp4" {
		t.Fatalf("video ext = %q", got)
	}
	if got := expectedExtension(fetch.PostProcess{}); got != "" {
		t.Fatalf("empty ext = %q", got)
	}
}
