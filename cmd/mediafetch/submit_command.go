package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediafetch/internal/api"
	"mediafetch/internal/client"
	"mediafetch/internal/jobs"
	"mediafetch/internal/progress"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var kind string
	var quality string
	var bitrate string
	var wait bool
	var outputDir string
	var retries int

	cmd := &cobra.Command{
		Use:   "submit <url>",
		Short: "Queue a download on the daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			attempts := retries + 1
			if attempts < 1 {
				attempts = 1
			}
			if strings.EqualFold(strings.TrimSpace(kind), string(jobs.KindVideo)) && strings.TrimSpace(quality) == "" {
				quality = "best"
			}
			c, err := ctx.newClient(client.WithRetryMaxAttempts(attempts))
			if err != nil {
				return err
			}
			id, err := c.Submit(cmd.Context(), api.SubmitRequest{
				URL:          args[0],
				Type:         kind,
				Quality:      quality,
				AudioBitrate: bitrate,
			})
			if err != nil {
				if errors.Is(err, client.ErrBusy) {
					return fmt.Errorf("daemon is at capacity; retry later or pass --retries: %w", err)
				}
				return wrapDialError(err, c.BaseURL())
			}

			out := cmd.OutOrStdout()
			if !wait {
				fmt.Fprintln(out, id)
				return nil
			}
			fmt.Fprintf(out, "Submitted job %s\n", id)
			if _, err := followJob(cmd, c, id); err != nil {
				return err
			}
			return saveArtifact(cmd, c, id, outputDir)
		},
	}

	cmd.Flags().StringVarP(&kind, "type", "t", string(jobs.KindAudio), "Output type: audio or video")
	cmd.Flags().StringVarP(&quality, "quality", "q", "", "Exact video height, e.g. 720, or best (video only; defaults to best)")
	cmd.Flags().StringVar(&bitrate, "abitrate", "", "Audio bitrate in kbps (audio only)")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Follow progress and save the result when complete")
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory for the downloaded file (with --wait)")
	cmd.Flags().IntVar(&retries, "retries", 0, "Retry this many times while the daemon is at capacity")
	return cmd
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <job-id>",
		Short: "Follow a job's progress until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.newClient()
			if err != nil {
				return err
			}
			_, err = followJob(cmd, c, strings.TrimSpace(args[0]))
			return err
		},
	}
}

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var outputDir string
	cmd := &cobra.Command{
		Use:   "fetch <job-id>",
		Short: "Save a completed job's file (each result can be fetched once)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.newClient()
			if err != nil {
				return err
			}
			return saveArtifact(cmd, c, strings.TrimSpace(args[0]), outputDir)
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Directory for the downloaded file")
	return cmd
}

// followJob prints one line per progress snapshot and fails unless the job
// completes.
func followJob(cmd *cobra.Command, c *client.Client, id string) (progress.Snapshot, error) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	var lastLine string
	final, err := c.Follow(cmd.Context(), id, func(snap progress.Snapshot) error {
		line := renderProgressLine(snap, colorize)
		if line != lastLine {
			fmt.Fprintln(out, line)
			lastLine = line
		}
		return nil
	})
	if err != nil {
		return final, wrapDialError(err, c.BaseURL())
	}
	switch final.Status {
	case jobs.StatusComplete:
		return final, nil
	case jobs.StatusUnknown:
		return final, fmt.Errorf("job %s not found", id)
	default:
		detail := strings.TrimSpace(final.Error)
		if detail == "" {
			detail = "unknown error"
		}
		return final, fmt.Errorf("job %s failed: %s", id, detail)
	}
}

func saveArtifact(cmd *cobra.Command, c *client.Client, id, dir string) error {
	download, err := c.Fetch(cmd.Context(), id, dir)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			return fmt.Errorf("job %s has no result to fetch (not complete, already fetched, or expired): %w", id, err)
		}
		return wrapDialError(err, c.BaseURL())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s)\n", download.Path, humanize.IBytes(uint64(download.Bytes)))
	return nil
}

func renderProgressLine(snap progress.Snapshot, colorize bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-11s %5.1f%%", snap.Status, snap.Progress)
	if snap.StreamKind != "" && !snap.Terminal() {
		fmt.Fprintf(&b, "  %s", snap.StreamKind)
	}
	if snap.Filename != "" {
		fmt.Fprintf(&b, "  %s", snap.Filename)
	}
	if snap.Error != "" {
		fmt.Fprintf(&b, "  %s", snap.Error)
	}
	line := b.String()
	if colorize {
		if color := statusKindColor(jobStatusKind(string(snap.Status))); color != "" {
			return color + line + ansiReset
		}
	}
	return line
}

func formatTimestamp(value string) string {
	if value == "" {
		return ""
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return humanize.Time(parsed)
}
