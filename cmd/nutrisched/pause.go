package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var pauseDays int

var pauseCmd = &cobra.Command{
	Use:   "pause <phase-id>",
	Short: "Pause a plan phase",
	Long: `Pause a plan phase.

A phase that is already running has its end date pushed out by the given
number of days, so the client keeps the full plan. A phase that has not
started yet only flips to paused; its dates stay put.

Example:
  nutrisched pause ph-123 --days 7`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		sched, store, err := openScheduler(ctx)
		if err != nil {
			fatal(err)
		}
		defer store.Close()

		phase, _, err := sched.Pause(ctx, args[0], pauseDays)
		if err != nil {
			fatal(err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Phase paused: %s\n", green("✓"), phase.ID)
		fmt.Printf("  Range: %s to %s\n", phase.StartDate, phase.EndDate)
		fmt.Printf("\nTo resume later: nutrisched resume %s\n", phase.ID)
	},
}

func init() {
	pauseCmd.Flags().IntVar(&pauseDays, "days", 0, "Days to defer a running phase by")
	rootCmd.AddCommand(pauseCmd)
}
