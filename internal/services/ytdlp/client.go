package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	goytdlp "github.com/lrstanley/go-ytdlp"

	"mediafetch/internal/fetch"
	"mediafetch/internal/logging"
	"mediafetch/internal/services"
)

// Option configures the client.
type Option func(*Client)

// WithProgressInterval sets how often yt-dlp progress is delivered.
func WithProgressInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.progressInterval = interval
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "ytdlp")
	}
}

// Client fetches media with yt-dlp.
type Client struct {
	progressInterval time.Duration
	logger           *slog.Logger
}

var _ fetch.Fetcher = (*Client)(nil)

// New constructs a client using defaults.
func New(opts ...Option) *Client {
	c := &Client{
		progressInterval: 500 * time.Millisecond,
		logger:           logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Install makes sure a yt-dlp binary is available, downloading one into the
// user cache when none is found.
func Install(ctx context.Context) error {
	if _, err := goytdlp.Install(ctx, nil); err != nil {
		return services.Wrap(services.ErrConfiguration, "fetch", "install yt-dlp", "", err)
	}
	return nil
}

func (c *Client) command(req fetch.Request) *goytdlp.Command {
	template := req.OutputTemplate
	if strings.TrimSpace(template) == "" {
		template = fetch.DefaultOutputTemplate
	}
	cmd := goytdlp.New().
		Format(req.Format).
		Output(filepath.Join(req.OutputDir, template)).
		NoPlaylist().
		RestrictFilenames().
		ForceOverwrites()

	pp := req.PostProcess
	if pp.ExtractAudio {
		cmd = cmd.ExtractAudio().AudioFormat(pp.AudioCodec)
		if pp.AudioQuality != "" {
			cmd = cmd.AudioQuality(audioQuality(pp.AudioQuality))
		}
	}
	if pp.MergeFormat != "" {
		cmd = cmd.MergeOutputFormat(pp.MergeFormat)
	}
	return cmd
}

// Fetch downloads req.URL into req.OutputDir.
func (c *Client) Fetch(ctx context.Context, req fetch.Request) (fetch.Result, error) {
	if strings.TrimSpace(req.URL) == "" {
		return fetch.Result{}, services.Wrap(services.ErrValidation, "fetch", "", "url required", nil)
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		return fetch.Result{}, services.Wrap(services.ErrValidation, "fetch", "", "output directory required", nil)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return fetch.Result{}, fmt.Errorf("create output dir: %w", err)
	}

	tracker := &pathTracker{}
	cmd := c.command(req)
	cmd.ProgressFunc(c.progressInterval, func(update goytdlp.ProgressUpdate) {
		tracker.observe(update.Filename)
		if req.Progress == nil {
			return
		}
		if progress, ok := translateProgress(update.Status, int64(update.TotalBytes), int64(update.DownloadedBytes), update.Filename); ok {
			req.Progress(progress)
		}
	})

	logger := logging.WithContext(ctx, c.logger)
	logger.Debug("yt-dlp starting",
		logging.String("url", req.URL),
		logging.String("format", req.Format),
		logging.String("output_dir", req.OutputDir),
	)

	result, err := cmd.Run(ctx, req.URL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fetch.Result{}, ctxErr
		}
		return fetch.Result{}, services.Wrap(services.ErrExternalTool, "fetch", "yt-dlp", describeFailure(result), err)
	}

	reported := tracker.last()
	title := ""
	if result != nil {
		if infos, infoErr := result.GetExtractedInfo(); infoErr == nil && len(infos) > 0 {
			if infos[0].Filename != nil && reported == "" {
				reported = *infos[0].Filename
			}
			if infos[0].Title != nil {
				title = *infos[0].Title
			}
		}
	}

	path, err := resolveOutput(req.OutputDir, expectedExtension(req.PostProcess), reported)
	if err != nil {
		return fetch.Result{}, services.Wrap(services.ErrNotFound, "fetch", "resolve output", "", err)
	}
	return fetch.Result{Path: path, Title: title}, nil
}

func describeFailure(result *goytdlp.Result) string {
	if result == nil {
		return "download failed"
	}
	stderr := strings.TrimSpace(result.Stderr)
	if stderr == "" {
		return "download failed"
	}
	lines := strings.Split(stderr, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "ERROR:") {
			return strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
	}
	return strings.TrimSpace(lines[len(lines)-1])
}

// translateProgress maps a yt-dlp update to a fetch progress value. The second
// result is false for updates the workflow does not track.
func translateProgress(status goytdlp.ProgressStatus, total, done int64, filename string) (fetch.Progress, bool) {
	progress := fetch.Progress{
		BytesTotal: total,
		BytesDone:  done,
		Stream:     fetch.StreamHintFromPath(filename),
	}
	switch status {
	case goytdlp.ProgressStatusDownloading:
		progress.Phase = fetch.PhaseDownloading
	case goytdlp.ProgressStatusFinished:
		progress.Phase = fetch.PhaseStreamFinished
	case goytdlp.ProgressStatusPostProcessing:
		progress.Phase = fetch.PhaseProcessing
	default:
		return fetch.Progress{}, false
	}
	return progress, true
}

// audioQuality converts a kbps bitrate such as "128" into yt-dlp's "128K".
func audioQuality(bitrate string) string {
	bitrate = strings.TrimSpace(bitrate)
	if bitrate == "" {
		return bitrate
	}
	last := bitrate[len(bitrate)-1]
	if last == 'k' || last == 'K' {
		return bitrate[:len(bitrate)-1] + "K"
	}
	return bitrate + "K"
}

func expectedExtension(pp fetch.PostProcess) string {
	switch {
	case pp.ExtractAudio && pp.AudioCodec != "":
		return pp.AudioCodec
	case pp.MergeFormat != "":
		return pp.MergeFormat
	default:
		return ""
	}
}

// resolveOutput finds the artifact yt-dlp produced. The reported path is
// preferred after swapping in the expected extension; otherwise the output
// directory is scanned for a single file with that extension.
func resolveOutput(dir, ext, reported string) (string, error) {
	if reported != "" {
		candidate := reported
		if ext != "" {
			candidate = stripFormatID(strings.TrimSuffix(reported, filepath.Ext(reported))) + "." + ext
		}
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		if info, err := os.Stat(reported); err == nil && !info.IsDir() {
			return reported, nil
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("scan output dir: %w", err)
	}
	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasSuffix(name, ".part") || strings.HasSuffix(name, ".ytdl") {
			continue
		}
		if ext == "" || strings.EqualFold(filepath.Ext(name), "."+ext) {
			matches = append(matches, filepath.Join(dir, name))
		}
	}
	switch len(matches) {
	case 0:
		return "", errors.New("no output file produced")
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("ambiguous output: %d candidate files", len(matches))
	}
}

// stripFormatID removes the ".f137" style suffix yt-dlp adds to per-stream
// files before merging.
func stripFormatID(stem string) string {
	ext := filepath.Ext(stem)
	if len(ext) < 3 || ext[1] != 'f' {
		return stem
	}
	for _, r := range ext[2:] {
		if r < '0' || r > '9' {
			return stem
		}
	}
	return strings.TrimSuffix(stem, ext)
}

type pathTracker struct {
	mu   sync.Mutex
	path string
}

func (t *pathTracker) observe(path string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	t.mu.Lock()
	t.path = path
	t.mu.Unlock()
}

func (t *pathTracker) last() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.path
}
