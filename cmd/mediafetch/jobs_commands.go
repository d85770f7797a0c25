package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mediafetch/internal/api"
	"mediafetch/internal/client"
	"mediafetch/internal/textutil"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List jobs known to the daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := ctx.newClient()
			if err != nil {
				return err
			}
			list, err := c.List(cmd.Context(), statuses...)
			if err != nil {
				return wrapDialError(err, c.BaseURL())
			}
			if jsonOutput {
				return writeJSON(cmd, api.JobListResponse{Jobs: list})
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No jobs")
				return nil
			}
			fmt.Fprint(out, renderJobsTable(list, shouldColorize(out)))
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (repeatable or comma-separated)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderJobsTable(list []api.Job, colorize bool) string {
	headers := []string{"ID", "Type", "Status", "Progress", "Result", "Updated"}
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		status := textutil.Title(job.Status)
		if colorize {
			if color := statusKindColor(jobStatusKind(job.Status)); color != "" {
				status = color + status + ansiReset
			}
		}
		result := job.Filename
		if job.Error != "" {
			result = job.Error
		}
		rows = append(rows, []string{
			job.ID,
			job.Type,
			status,
			fmt.Sprintf("%.1f%%", job.Progress),
			result,
			formatTimestamp(job.UpdatedAt),
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft})
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <job-id>...",
		Short: "Cancel running jobs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := ctx.newClient()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			var failures []string
			for _, arg := range args {
				id := strings.TrimSpace(arg)
				err := c.Cancel(cmd.Context(), id)
				switch {
				case err == nil:
					fmt.Fprintf(out, "Cancel requested for job %s\n", id)
				case errors.Is(err, client.ErrNotFound):
					failures = append(failures, fmt.Sprintf("%s: not found", id))
				default:
					var statusErr *client.StatusError
					if errors.As(err, &statusErr) {
						failures = append(failures, fmt.Sprintf("%s: %s", id, statusErr.Message))
						continue
					}
					return wrapDialError(err, c.BaseURL())
				}
			}
			if len(failures) > 0 {
				return fmt.Errorf("cancel failed for %s", strings.Join(failures, "; "))
			}
			return nil
		},
	}
}
