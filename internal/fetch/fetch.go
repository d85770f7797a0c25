// Package fetch describes the contract between the job workflow and the
// external media extraction engine.
package fetch

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"mediafetch/internal/jobs"
)

// Phase describes where a fetch currently is.
type Phase string

const (
	PhaseDownloading    Phase = "downloading"
	PhaseStreamFinished Phase = "stream_finished"
	PhaseProcessing     Phase = "processing"
)

// Progress is one callback from the fetcher. BytesTotal is zero when the
// size is unknown.
type Progress struct {
	BytesTotal int64
	BytesDone  int64
	Stream     jobs.StreamKind
	Phase      Phase
}

// PostProcess describes the conversion applied after download.
type PostProcess struct {
	ExtractAudio bool
	AudioCodec   string
	AudioQuality string
	MergeFormat  string
}

// Request is everything a fetcher needs to produce one artifact.
type Request struct {
	URL            string
	Format         string
	OutputDir      string
	OutputTemplate string
	PostProcess    PostProcess
	// Progress may be invoked from any goroutine, zero or more times.
	Progress func(Progress)
}

// Result describes the fetched artifact. Path is the output path as the
// fetcher reported it, which may still carry a pre-conversion extension.
type Result struct {
	Path  string
	Title string
}

// Fetcher downloads and converts remote media.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (Result, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req Request) (Result, error)

func (f FetcherFunc) Fetch(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

// QualityBest selects the best available video.
const QualityBest = "best"

// DefaultOutputTemplate names files after the media title.
const DefaultOutputTemplate = "%(title)s.%(ext)s"

// FormatSelector builds the stream selector for a request.
func FormatSelector(kind jobs.RequestKind, quality string) (string, error) {
	switch kind {
	case jobs.KindAudio:
		return "bestaudio/best", nil
	case jobs.KindVideo:
		quality = strings.ToLower(strings.TrimSpace(quality))
		if quality == "" || quality == QualityBest {
			return "bestvideo+bestaudio/best", nil
		}
		height, err := ParseHeight(quality)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("bestvideo[height=%d]+bestaudio/best", height), nil
	default:
		return "", fmt.Errorf("unsupported request kind %q", kind)
	}
}

// ParseHeight parses a numeric video height such as "720".
func ParseHeight(value string) (int, error) {
	height, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(value), "p"))
	if err != nil || height <= 0 {
		return 0, fmt.Errorf("invalid quality %q (want best or a positive height)", value)
	}
	return height, nil
}

// PostProcessFor returns the conversion for a request kind.
func PostProcessFor(kind jobs.RequestKind, bitrate string) PostProcess {
	if kind == jobs.KindAudio {
		return PostProcess{
			ExtractAudio: true,
			AudioCodec:   Extension(kind),
			AudioQuality: strings.TrimSpace(bitrate),
		}
	}
	return PostProcess{MergeFormat: Extension(kind)}
}

// Extension is the final file extension for a request kind.
func Extension(kind jobs.RequestKind) string {
	if kind == jobs.KindAudio {
		return "mp3"
	}
	return "mp4"
}

// FinalPath replaces the extension of the fetcher's reported path with the
// one implied by kind.
func FinalPath(reported string, kind jobs.RequestKind) string {
	stem := strings.TrimSuffix(reported, filepath.Ext(reported))
	return stem + "." + Extension(kind)
}

var (
	audioExtensions = map[string]struct{}{
		".m4a": {}, ".mp3": {}, ".opus": {}, ".ogg": {}, ".aac": {}, ".flac": {}, ".wav": {}, ".weba": {},
	}
	videoExtensions = map[string]struct{}{
		".mp4": {}, ".webm": {}, ".mkv": {}, ".mov": {}, ".flv": {}, ".avi": {}, ".3gp": {},
	}
)

// StreamHintFromPath guesses the stream kind from an in-progress file name.
// Intermediate names such as "title.f137.mp4.part" are handled.
func StreamHintFromPath(path string) jobs.StreamKind {
	name := strings.ToLower(filepath.Base(path))
	for _, suffix := range []string{".part", ".ytdl", ".temp"} {
		name = strings.TrimSuffix(name, suffix)
	}
	ext := filepath.Ext(name)
	if _, ok := audioExtensions[ext]; ok {
		return jobs.StreamAudio
	}
	if _, ok := videoExtensions[ext]; ok {
		return jobs.StreamVideo
	}
	return jobs.StreamFile
}
