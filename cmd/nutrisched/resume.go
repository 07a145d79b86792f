package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <phase-id>",
	Short: "Resume a paused plan phase",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		sched, store, err := openScheduler(ctx)
		if err != nil {
			fatal(err)
		}
		defer store.Close()

		phase, _, err := sched.Resume(ctx, args[0])
		if err != nil {
			fatal(err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Phase resumed: %s\n", green("✓"), phase.ID)
		fmt.Printf("  Range: %s to %s\n", phase.StartDate, phase.EndDate)
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}
