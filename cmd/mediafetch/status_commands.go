package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mediafetch/internal/api"
	"mediafetch/internal/jobs"
	"mediafetch/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, workflow, and dependency status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := ctx.newClient()
			if err != nil {
				return err
			}
			status, err := c.Status(cmd.Context())
			if err != nil {
				return wrapDialError(err, c.BaseURL())
			}
			if jsonOutput {
				return writeJSON(cmd, status)
			}
			out := cmd.OutOrStdout()
			for _, line := range renderDaemonStatus(status, shouldColorize(out)) {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderDaemonStatus(status *api.DaemonStatus, colorize bool) []string {
	var lines []string
	lines = append(lines, renderSectionHeader("Daemon", colorize)...)
	if status.Running {
		lines = append(lines, renderStatusLine("Daemon", statusOK, fmt.Sprintf("running (pid %d)", status.PID), colorize))
	} else {
		lines = append(lines, renderStatusLine("Daemon", statusWarn, "stopped", colorize))
	}
	lines = append(lines,
		renderValueLine("Work dir", status.WorkDir),
		renderValueLine("Job store", status.Store),
		renderValueLine("Lock file", status.LockFilePath),
	)

	wf := status.Workflow
	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Workflow", colorize)...)
	lines = append(lines,
		renderValueLine("Running", yesNo(wf.Running)),
		renderValueLine("Active", formatLimit(wf.Active, wf.MaxConcurrent)),
		renderValueLine("Queued", formatLimit(wf.Queued, wf.MaxQueued)),
	)
	if wf.LastError != "" {
		lines = append(lines, renderStatusLine("Last error", statusError, wf.LastError, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Jobs", colorize)...)
	for _, s := range jobs.AllStatuses() {
		lines = append(lines, renderValueLine(string(s), strconv.Itoa(status.JobCounts[string(s)])))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
	for _, dep := range status.Dependencies {
		lines = append(lines, renderStatusLine(dep.Name, checkStatusKind(dep.Passed, dep.Optional), dep.Detail, colorize))
	}
	return lines
}

func formatLimit(value, limit int) string {
	if limit <= 0 {
		return fmt.Sprintf("%d (unlimited)", value)
	}
	return fmt.Sprintf("%d / %d", value, limit)
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check local directories and external tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, result := range results {
				fmt.Fprintln(out, renderStatusLine(result.Name, checkStatusKind(result.Passed, result.Optional), result.Detail, colorize))
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d required check(s) failed", len(failed))
			}
			return nil
		},
	}
}
