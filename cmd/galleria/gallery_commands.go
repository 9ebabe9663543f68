package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"galleria/internal/ipc"
)

func newGalleryCommand(ctx *commandContext) *cobra.Command {
	galleryCmd := &cobra.Command{
		Use:   "gallery",
		Short: "Manage registered galleries",
	}

	galleryCmd.AddCommand(newGalleryAddCommand(ctx))
	galleryCmd.AddCommand(newGalleryListCommand(ctx))
	galleryCmd.AddCommand(newGalleryShowCommand(ctx))
	galleryCmd.AddCommand(newGalleryUpdateCommand(ctx))
	galleryCmd.AddCommand(newGalleryRemoveCommand(ctx))

	return galleryCmd
}

func newGalleryAddCommand(ctx *commandContext) *cobra.Command {
	var id string
	var cron string
	var search string
	var eval string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new gallery",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := buildRegistration(id, cron, search, eval)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.GalleryAdd(reg)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Gallery)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Gallery %s registered (cron %s)\n", resp.Gallery.ID, resp.Gallery.Cron)
				if resp.Gallery.NextFire != nil {
					fmt.Fprintf(out, "Next scrape at %s\n", resp.Gallery.NextFire.Local().Format(time.RFC1123))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Gallery identifier (generated when omitted)")
	cmd.Flags().StringVar(&cron, "cron", "", "Cron expression controlling scrape cadence")
	cmd.Flags().StringVar(&search, "search", "", "Search criteria as a JSON document")
	cmd.Flags().StringVar(&eval, "eval", "", "Evaluation criteria as a JSON document")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	_ = cmd.MarkFlagRequired("cron")
	return cmd
}

func newGalleryListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered galleries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.GalleryList()
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Galleries)
				}
				out := cmd.OutOrStdout()
				if len(resp.Galleries) == 0 {
					fmt.Fprintln(out, "No galleries registered")
					return nil
				}
				rows := make([][]string, 0, len(resp.Galleries))
				for _, view := range resp.Galleries {
					rows = append(rows, []string{
						view.ID,
						view.Cron,
						view.Stage,
						yesNo(view.Taken),
						formatNextFire(view.NextFire),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Cron", "Stage", "Leased", "Next Fire"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func newGalleryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show details for a single gallery",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.GalleryDescribe(args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Gallery)
				}
				printGalleryDetails(cmd, resp.Gallery)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	return cmd
}

func newGalleryUpdateCommand(ctx *commandContext) *cobra.Command {
	var cron string
	var search string
	var eval string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace a gallery's schedule and criteria",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := buildRegistration("", cron, search, eval)
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.GalleryUpdate(args[0], reg)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Gallery)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Gallery %s updated (cron %s)\n", resp.Gallery.ID, resp.Gallery.Cron)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&cron, "cron", "", "Cron expression controlling scrape cadence")
	cmd.Flags().StringVar(&search, "search", "", "Search criteria as a JSON document")
	cmd.Flags().StringVar(&eval, "eval", "", "Evaluation criteria as a JSON document")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON output")
	_ = cmd.MarkFlagRequired("cron")
	return cmd
}

func newGalleryRemoveCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a gallery and its schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.GalleryRemove(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Gallery %s removed\n", args[0])
				return nil
			})
		},
	}
	return cmd
}

func buildRegistration(id, cron, search, eval string) (ipc.GalleryRegistration, error) {
	reg := ipc.GalleryRegistration{
		ID:   strings.TrimSpace(id),
		Cron: strings.TrimSpace(cron),
	}
	if trimmed := strings.TrimSpace(search); trimmed != "" {
		if !json.Valid([]byte(trimmed)) {
			return reg, fmt.Errorf("search criteria is not valid JSON")
		}
		reg.SearchCriteria = json.RawMessage(trimmed)
	}
	if trimmed := strings.TrimSpace(eval); trimmed != "" {
		if !json.Valid([]byte(trimmed)) {
			return reg, fmt.Errorf("evaluation criteria is not valid JSON")
		}
		reg.EvaluationCriteria = json.RawMessage(trimmed)
	}
	return reg, nil
}

func printGalleryDetails(cmd *cobra.Command, view ipc.GalleryView) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Gallery "+view.ID, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Cron", statusInfo, view.Cron, colorize))
	fmt.Fprintln(out, renderStatusLine("Stage", statusInfo, view.Stage, colorize))
	leasedKind := statusOK
	leasedDetail := "idle"
	if view.Taken {
		leasedKind = statusWarn
		leasedDetail = "in flight"
		if view.TakenAt != nil {
			leasedDetail = fmt.Sprintf("in flight since %s", view.TakenAt.Local().Format(time.RFC1123))
		}
	}
	fmt.Fprintln(out, renderStatusLine("Lease", leasedKind, leasedDetail, colorize))
	fmt.Fprintln(out, renderStatusLine("Next fire", statusInfo, formatNextFire(view.NextFire), colorize))
	if len(view.SearchCriteria) > 0 {
		fmt.Fprintln(out, renderStatusLine("Search", statusInfo, string(view.SearchCriteria), colorize))
	}
	if len(view.EvaluationCriteria) > 0 {
		fmt.Fprintln(out, renderStatusLine("Evaluation", statusInfo, string(view.EvaluationCriteria), colorize))
	}
	for _, marketplace := range sortedKeys(view.LastScraped) {
		fmt.Fprintln(out, renderStatusLine("Scraped "+marketplace, statusOK, view.LastScraped[marketplace], colorize))
	}
	for _, marketplace := range sortedKeys(view.FailureReasons) {
		fmt.Fprintln(out, renderStatusLine("Failed "+marketplace, statusError, view.FailureReasons[marketplace], colorize))
	}
}

func formatNextFire(nextFire *time.Time) string {
	if nextFire == nil || nextFire.IsZero() {
		return "-"
	}
	return nextFire.Local().Format("2006-01-02 15:04:05")
}

func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
