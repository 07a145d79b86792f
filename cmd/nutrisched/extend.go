package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nutrisched/nutrisched/internal/dates"
)

var extendNewStart string

var extendCmd = &cobra.Command{
	Use:   "extend <phase-id>",
	Short: "Move a phase to a new start date, re-dating the chain",
	Long: `Move a phase to a new start date.

The phase keeps its full span. Every other phase of the client is then
re-dated so the chain stays contiguous: earlier phases slide backward to
end the day before their successor starts, later phases slide forward to
start the day after their predecessor ends. All moves commit atomically.

Example:
  nutrisched extend ph-123 --start 2024-01-03`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		newStart, err := dates.ParseISO(extendNewStart)
		if err != nil {
			fatal(err)
		}

		ctx := context.Background()
		sched, store, err := openScheduler(ctx)
		if err != nil {
			fatal(err)
		}
		defer store.Close()

		changed, _, err := sched.Extend(ctx, args[0], newStart)
		if err != nil {
			fatal(err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		if len(changed) == 0 {
			fmt.Printf("%s Phase already at %s, nothing moved\n", green("✓"), newStart)
			return
		}

		fmt.Printf("%s Moved %d phase(s)\n", green("✓"), len(changed))
		for _, p := range changed {
			marker := " "
			if p.ID == args[0] {
				marker = "*"
			}
			fmt.Printf("  %s %s: %s to %s\n", marker, p.ID, p.StartDate, p.EndDate)
		}
	},
}

func init() {
	extendCmd.Flags().StringVar(&extendNewStart, "start", "", "New start date (YYYY-MM-DD, required)")
	_ = extendCmd.MarkFlagRequired("start")
	rootCmd.AddCommand(extendCmd)
}
