package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nutrisched/nutrisched/internal/dates"
	"github.com/nutrisched/nutrisched/internal/scheduler"
)

var (
	createStart    string
	createDuration int
	createTitle    string
	createParent   string
)

var createCmd = &cobra.Command{
	Use:   "create <purchase-id>",
	Short: "Create a plan phase against a purchase",
	Long: `Create a plan phase funded by a purchase.

The phase occupies a contiguous date range of the given duration. It is
rejected when the purchase cannot afford the duration, when the start falls
outside the purchase's expected window, or when the range overlaps another
phase of the same client.

Example:
  nutrisched create pu-123 --start 2024-01-01 --duration 10 --title "low carb"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		start, err := dates.ParseISO(createStart)
		if err != nil {
			fatal(err)
		}

		ctx := context.Background()
		sched, store, err := openScheduler(ctx)
		if err != nil {
			fatal(err)
		}
		defer store.Close()

		phase, _, err := sched.CreatePhase(ctx, scheduler.CreatePhaseRequest{
			PurchaseID:       args[0],
			StartDate:        start,
			DurationDays:     createDuration,
			Title:            createTitle,
			ParentPurchaseID: createParent,
		})
		if err != nil {
			fatal(err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Phase created: %s\n", green("✓"), phase.ID)
		if phase.Title != "" {
			fmt.Printf("  Title: %s\n", phase.Title)
		}
		fmt.Printf("  Range: %s to %s (%d days)\n", phase.StartDate, phase.EndDate, phase.OriginalDurationDays)
	},
}

func init() {
	createCmd.Flags().StringVar(&createStart, "start", "", "Start date (YYYY-MM-DD, required)")
	createCmd.Flags().IntVar(&createDuration, "duration", 0, "Duration in days (required)")
	createCmd.Flags().StringVar(&createTitle, "title", "", "Phase title")
	createCmd.Flags().StringVar(&createParent, "parent", "", "Parent purchase ID for shared freeze quota")
	_ = createCmd.MarkFlagRequired("start")
	_ = createCmd.MarkFlagRequired("duration")

	rootCmd.AddCommand(createCmd)
}
