package testsupport

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"mediafetch/internal/fetch"
)

// Fetcher is a scripted fetch.Fetcher. It replays Steps through the progress
// callback, optionally waits on Gate, and then either returns Err or writes
// the post-processed artifact into the request's output directory.
type Fetcher struct {
	Steps []fetch.Progress
	// Stem names the produced file. Defaults to "Sample_Title".
	Stem string
	Err  error
	// Gate, when non-nil, blocks each fetch until it is closed or the context ends.
	Gate chan struct{}
	// Started receives the request URL when a fetch begins, if there is room.
	Started chan string
	// SkipArtifact reports success without writing the artifact.
	SkipArtifact bool

	mu       sync.Mutex
	requests []fetch.Request
}

var _ fetch.Fetcher = (*Fetcher)(nil)

func (f *Fetcher) Fetch(ctx context.Context, req fetch.Request) (fetch.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.Started != nil {
		select {
		case f.Started <- req.URL:
		default:
		}
	}

	for _, step := range f.Steps {
		if err := ctx.Err(); err != nil {
			return fetch.Result{}, err
		}
		if req.Progress != nil {
			req.Progress(step)
		}
	}

	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return fetch.Result{}, ctx.Err()
		}
	}
	if f.Err != nil {
		return fetch.Result{}, f.Err
	}

	stem := f.Stem
	if stem == "" {
		stem = "Sample_Title"
	}
	ext := req.PostProcess.MergeFormat
	if req.PostProcess.ExtractAudio {
		ext = req.PostProcess.AudioCodec
	}
	if !f.SkipArtifact {
		if err := os.WriteFile(filepath.Join(req.OutputDir, stem+"."+ext), []byte("media-bytes"), 0o644); err != nil {
			return fetch.Result{}, err
		}
	}
	// Report the pre-conversion name the way yt-dlp does.
	return fetch.Result{Path: filepath.Join(req.OutputDir, stem+".webm"), Title: stem}, nil
}

// Requests returns a copy of every request received so far.
func (f *Fetcher) Requests() []fetch.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fetch.Request, len(f.requests))
	copy(out, f.requests)
	return out
}
