package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nutrisched/nutrisched/internal/chainview"
	"github.com/nutrisched/nutrisched/internal/dates"
	"github.com/nutrisched/nutrisched/internal/types"
)

var showEvents bool

var showCmd = &cobra.Command{
	Use:   "show <phase-id>",
	Short: "Show a plan phase",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		sched, store, err := openScheduler(ctx)
		if err != nil {
			fatal(err)
		}
		defer store.Close()

		phase, err := sched.GetPhase(ctx, args[0])
		if err != nil {
			fatal(err)
		}

		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("Phase %s\n", phase.ID)
		if phase.Title != "" {
			fmt.Printf("  Title:    %s\n", phase.Title)
		}
		fmt.Printf("  Client:   %s\n", phase.ClientID)
		fmt.Printf("  Purchase: %s\n", phase.PurchaseID)
		fmt.Printf("  Status:   %s %s\n", phase.Status,
			gray(fmt.Sprintf("(today: %s)", phase.EffectiveStatus(dates.Today()))))
		fmt.Printf("  Range:    %s to %s\n", phase.StartDate, phase.EndDate)
		fmt.Printf("  Duration: %d days", phase.OriginalDurationDays)
		if extras := phase.TotalFreezeCount() + phase.PausedDays; extras > 0 {
			fmt.Printf(" %s", gray(fmt.Sprintf("(+%d frozen/paused)", extras)))
		}
		fmt.Println()

		if len(phase.FreezeEntries) > 0 {
			fmt.Println("  Frozen days:")
			for _, e := range phase.FreezeEntries {
				fmt.Printf("    %s %s\n", e.FrozenDate, gray(fmt.Sprintf("(made up on %s)", e.AppendedDate)))
			}
		}

		if showEvents {
			evs, err := sched.PhaseEvents(ctx, phase.ID, 20)
			if err != nil {
				fatal(err)
			}
			fmt.Println("  History:")
			for _, e := range evs {
				fmt.Printf("    %s  %s\n", e.Timestamp.Format("2006-01-02 15:04"), e.Message)
			}
		}
	},
}

var chainCmd = &cobra.Command{
	Use:   "chain <client-id>",
	Short: "Show a client's plan chain",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		sched, store, err := openScheduler(ctx)
		if err != nil {
			fatal(err)
		}
		defer store.Close()

		chain, err := sched.Chain(ctx, args[0])
		if err != nil {
			fatal(err)
		}
		if len(chain) == 0 {
			fmt.Println("No phases found.")
			return
		}

		view, err := sched.CurrentView(ctx, args[0])
		if err != nil {
			fatal(err)
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		today := dates.Today()

		for _, p := range chain {
			marker := " "
			if view.Phase != nil && view.Phase.ID == p.ID {
				marker = "→"
			}
			title := p.Title
			if title == "" {
				title = gray("(untitled)")
			}
			status := string(p.Status)
			if p.Status == types.PhaseStatusActive {
				status = string(p.EffectiveStatus(today))
			}
			fmt.Printf("%s %s  %s to %s  %-9s %s\n",
				marker, cyan(p.ID), p.StartDate, p.EndDate, status, title)
		}

		if view.Label != chainview.LabelNone && view.Phase != nil {
			fmt.Printf("\nCurrent: %s (%s)\n", view.Phase.ID, view.Label)
		}
	},
}

func init() {
	showCmd.Flags().BoolVar(&showEvents, "events", false, "Show the phase's event history")
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(chainCmd)
}
