package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <phase-id>",
	Short: "Cancel a plan phase",
	Long: `Cancel a plan phase.

The phase stops occupying calendar space, so new phases may be scheduled
over its former range. Days already consumed from the purchase allowance
are not returned.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		sched, store, err := openScheduler(ctx)
		if err != nil {
			fatal(err)
		}
		defer store.Close()

		phase, _, err := sched.Cancel(ctx, args[0])
		if err != nil {
			fatal(err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Phase cancelled: %s\n", green("✓"), phase.ID)
	},
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}
