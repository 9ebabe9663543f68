package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"galleria/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, status)
				}

				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)

				for _, line := range renderSectionHeader("Daemon Status", colorize) {
					fmt.Fprintln(out, line)
				}
				runningKind := statusError
				runningDetail := "stopped"
				if status.Running {
					runningKind = statusOK
					runningDetail = fmt.Sprintf("pid %d", status.PID)
				}
				fmt.Fprintln(out, renderStatusLine("Daemon", runningKind, runningDetail, colorize))
				fmt.Fprintln(out, renderStatusLine("Database", statusInfo, status.DatabasePath, colorize))
				fmt.Fprintln(out, renderStatusLine("Lock file", statusInfo, status.LockPath, colorize))
				fmt.Fprintln(out, renderStatusLine("Galleries", statusInfo, fmt.Sprintf("%d registered, %d in flight", status.GalleryCount, status.TakenCount), colorize))
				fmt.Fprintln(out)

				for _, line := range renderSectionHeader("Pipeline Stages", colorize) {
					fmt.Fprintln(out, line)
				}
				rows := buildStageRows(status.StageCounts)
				if len(rows) == 0 {
					fmt.Fprintln(out, "No galleries in the pipeline")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Stage", "Count"},
					rows,
					[]columnAlignment{alignLeft, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the galleria daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if resp.Stopped {
					fmt.Fprintln(out, "Daemon stopped")
				} else {
					fmt.Fprintln(out, "Stop request sent")
				}
				return nil
			})
		},
	}
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check daemon and database health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				health, err := client.Health()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, health)
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				if health.Healthy {
					fmt.Fprintln(out, renderStatusLine("Health", statusOK, "daemon and database healthy", colorize))
					return nil
				}
				fmt.Fprintln(out, renderStatusLine("Health", statusError, health.Detail, colorize))
				return fmt.Errorf("daemon unhealthy: %s", health.Detail)
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func buildStageRows(counts map[string]int) [][]string {
	stages := make([]string, 0, len(counts))
	for stage := range counts {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	rows := make([][]string, 0, len(stages))
	for _, stage := range stages {
		rows = append(rows, []string{stage, fmt.Sprintf("%d", counts[stage])})
	}
	return rows
}
