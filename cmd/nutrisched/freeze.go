package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nutrisched/nutrisched/internal/dates"
)

var freezeCmd = &cobra.Command{
	Use:   "freeze <phase-id> <date>...",
	Short: "Freeze plan days, appending make-up days at the end",
	Long: `Freeze one or more days of a phase.

Each frozen day's content moves to a make-up day appended past the phase's
end, one per frozen day, in the order the dates are given. The freeze quota
comes from the phase's purchase and is shared across every phase drawing
from it. All-or-nothing: if any date is invalid or the quota is short,
nothing is frozen.

Example:
  nutrisched freeze ph-123 2024-01-05
  nutrisched freeze ph-123 2024-01-05 2024-01-06`,
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

		phase, _, err := sched.Freeze(ctx, args[0], dts)
		if err != nil {
			fatal(err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Froze %d day(s) on %s\n", green("✓"), len(dts), phase.ID)
		fmt.Printf("  New end date: %s\n", phase.EndDate)

		remaining, allowed, err := sched.FreezeQuota(ctx, phase.ID)
		if err == nil {
			fmt.Printf("  Freeze quota: %d of %d remaining\n", remaining, allowed)
		}
	},
}

func parseDates(args []string) ([]dates.Date, error) {
	dts := make([]dates.Date, 0, len(args))
	for _, s := range args {
		d, err := dates.ParseISO(s)
		if err != nil {
			return nil, err
		}
		dts = append(dts, d)
	}
	return dts, nil
}

func init() {
	rootCmd.AddCommand(freezeCmd)
}
