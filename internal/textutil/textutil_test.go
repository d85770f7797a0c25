package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"  Song: Live?.mp3 ":   "Song- Live.mp3",
		"a/b\\c.mp4":           "a-b-c.mp4",
		"..":                   "",
		"../../etc/passwd":     "-..-etc-passwd",
		"":                     "",
		"Tab\tand  spaces.mp3": "Tab and spaces.mp3",
		"bell\x07.mp3":         "bell.mp3",
	}
	for in, want := range cases {
		if got := SanitizeFileName(in); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSanitizeFileNameTruncatesStem(t *testing.T) {
	long := strings.Repeat("é", 200) + ".mp3"
	got := SanitizeFileName(long)
	if len(got) > maxFileNameBytes {
		t.Fatalf("name is %d bytes, want <= %d", len(got), maxFileNameBytes)
	}
	if !strings.HasSuffix(got, ".mp3") || !utf8.ValidString(got) {
		t.Fatalf("truncated name %q lost its extension or split a rune", got)
	}
}

func TestSanitizeToken(t *testing.T) {
	if got := SanitizeToken("Hello World!"); got != "hello_world" {
		t.Fatalf("SanitizeToken = %q", got)
	}
	if got := SanitizeToken("yt-dlp"); got != "yt-dlp" {
		t.Fatalf("SanitizeToken(yt-dlp) = %q", got)
	}
	if got := SanitizeToken("   "); got != "unknown" {
		t.Fatalf("SanitizeToken(blank) = %q", got)
	}
}

func TestASCIIFileName(t *testing.T) {
	cases := map[string]string{
		"Café del Mar.mp3":  "Cafe del Mar.mp3",
		"Plain.mp4":         "Plain.mp4",
		`Say "hi".mp3`:      "Say hi.mp3",
		"東京.mp4":            "download.mp4",
		"Mix 東京 Night.mp3":  "Mix __ Night.mp3",
		"ÅÄÖ":               "AAO",
		"\x01\x02":          "download",
	}
	for in, want := range cases {
		if got := ASCIIFileName(in); got != want {
			t.Errorf("ASCIIFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContentDisposition(t *testing.T) {
	if got := ContentDisposition("Song.mp3"); got != `attachment; filename="Song.mp3"` {
		t.Fatalf("ascii header = %q", got)
	}
	got := ContentDisposition("Café (live).mp3")
	want := `attachment; filename="Cafe (live).mp3"; filename*=UTF-8''Caf%C3%A9%20%28live%29.mp3`
	if got != want {
		t.Fatalf("header = %q, want %q", got, want)
	}
}

func TestTitle(t *testing.T) {
	if got := Title("downloading"); got != "Downloading" {
		t.Fatalf("Title = %q", got)
	}
	if got := Title("stream_finished"); got != "Stream Finished" {
		t.Fatalf("Title = %q", got)
	}
}
