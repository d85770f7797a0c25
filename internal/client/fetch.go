package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"mediafetch/internal/textutil"
)

// Download describes an artifact written to disk.
type Download struct {
	Path        string
	ContentType string
	Bytes       int64
}

// Fetch downloads the artifact for a complete job into dir, named after the
// daemon's Content-Disposition filename with a " (N)" suffix when that file
// already exists. The daemon purges the job once the transfer starts, so a
// second Fetch for the same id reports ErrNotFound.
func (c *Client) Fetch(ctx context.Context, id, dir string) (Download, error) {
	var out Download
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("result", id), nil)
	if err != nil {
		return out, fmt.Errorf("new request: %w", err)
	}
	resp, err := c.streamClient.Do(req)
	if err != nil {
		return out, fmt.Errorf("fetch job %s: %w", id, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return out, fmt.Errorf("fetch job %s: %w", id, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return out, fmt.Errorf("create output directory: %w", err)
	}
	name := textutil.SanitizeFileName(filenameFromDisposition(resp.Header.Get("Content-Disposition")))
	if name == "" || name == "." {
		name = id
	}
	tmp, err := os.CreateTemp(dir, ".mediafetch-*.part")
	if err != nil {
		return out, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	written, copyErr := io.Copy(tmp, resp.Body)
	closeErr := tmp.Close()
	if copyErr != nil {
		return out, fmt.Errorf("download artifact: %w", copyErr)
	}
	if closeErr != nil {
		return out, fmt.Errorf("close artifact: %w", closeErr)
	}
	if resp.ContentLength >= 0 && written != resp.ContentLength {
		return out, fmt.Errorf("download artifact: got %d of %d bytes", written, resp.ContentLength)
	}
	target, err := placeArtifact(tmp.Name(), dir, name)
	if err != nil {
		return out, fmt.Errorf("move artifact into place: %w", err)
	}
	return Download{Path: target, ContentType: resp.Header.Get("Content-Type"), Bytes: written}, nil
}

// placeArtifact links src into dir under name, or "name (N).ext" when that
// file already exists. Existing files are never replaced. Filesystems without
// hard links fall back to an existence check followed by a rename.
func placeArtifact(src, dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 0; n < maxNameAttempts; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		target := filepath.Join(dir, candidate)
		err := os.Link(src, target)
		if err == nil {
			return target, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if _, statErr := os.Lstat(target); statErr == nil {
			continue
		} else if !errors.Is(statErr, fs.ErrNotExist) {
			return "", statErr
		}
		if err := os.Rename(src, target); err != nil {
			return "", err
		}
		return target, nil
	}
	return "", fmt.Errorf("no free name for %s after %d attempts", name, maxNameAttempts)
}

const maxNameAttempts = 1000

// filenameFromDisposition prefers the RFC 5987 filename* parameter, which
// mime.ParseMediaType decodes, and falls back to the plain filename.
func filenameFromDisposition(header string) string {
	if strings.TrimSpace(header) == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}
