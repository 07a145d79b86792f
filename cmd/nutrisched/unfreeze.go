package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var unfreezeCmd = &cobra.Command{
	Use:   "unfreeze <phase-id> <date>...",
	Short: "Unfreeze previously frozen plan days",
	Long: `Unfreeze days that were frozen earlier.

The corresponding make-up days are dropped and the phase's end date pulls
back by one day per unfrozen date.

Example:
  nutrisched unfreeze ph-123 2024-01-05`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		dts, err := parseDates(args[1:])
		if err != nil {
			fatal(err)
		}

		ctx := context.Background()
		sched, store, err := openScheduler(ctx)
		if err != nil {
			fatal(err)
		}
		defer store.Close()

		phase, _, err := sched.Unfreeze(ctx, args[0], dts)
		if err != nil {
			fatal(err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Unfroze %d day(s) on %s\n", green("✓"), len(dts), phase.ID)
		fmt.Printf("  New end date: %s\n", phase.EndDate)
	},
}

func init() {
	rootCmd.AddCommand(unfreezeCmd)
}
