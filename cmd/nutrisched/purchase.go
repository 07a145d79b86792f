package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nutrisched/nutrisched/internal/allowance"
	"github.com/nutrisched/nutrisched/internal/dates"
	"github.com/nutrisched/nutrisched/internal/scheduler"
)

var (
	purchaseDays          int
	purchaseFreezeDays    int
	purchaseExpectedStart string
	purchaseExpectedEnd   string
)

var purchaseCmd = &cobra.Command{
	Use:   "purchase",
	Short: "Manage client day allowances",
}

var purchaseAddCmd = &cobra.Command{
	Use:   "add <client-id>",
	Short: "Register a purchased day allowance for a client",
	Long: `Register a purchased day allowance for a client.

The allowance funds plan phases: every phase consumes its duration in days
from the purchase, and phases are rejected once the balance runs out.

Example:
  nutrisched purchase add cl-anna --days 30 --freeze-days 5
  nutrisched purchase add cl-anna --days 60 --expected-start 2024-01-01 --expected-end 2024-03-31`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		sched, store, err := openScheduler(ctx)
		if err != nil {
			fatal(err)
		}
		defer store.Close()

		req := scheduler.PurchaseRequest{
			ClientID:           args[0],
			TotalPurchasedDays: purchaseDays,
			AllowedFreezeDays:  purchaseFreezeDays,
		}
		if purchaseExpectedStart != "" {
			d, err := dates.ParseISO(purchaseExpectedStart)
			if err != nil {
				fatal(err)
			}
			req.ExpectedStartDate = &d
		}
		if purchaseExpectedEnd != "" {
			d, err := dates.ParseISO(purchaseExpectedEnd)
			if err != nil {
				fatal(err)
			}
			req.ExpectedEndDate = &d
		}

		purchase, _, err := sched.CreatePurchase(ctx, req)
		if err != nil {
			fatal(err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Purchase registered: %s\n", green("✓"), purchase.ID)
		fmt.Printf("  Client: %s\n", purchase.ClientID)
		fmt.Printf("  Days: %d (freeze quota: %d)\n", purchase.TotalPurchasedDays, purchase.AllowedFreezeDays)
	},
}

var purchaseListCmd = &cobra.Command{
	Use:   "list <client-id>",
	Short: "List a client's purchases",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		sched, store, err := openScheduler(ctx)
		if err != nil {
			fatal(err)
		}
		defer store.Close()

		purchases, err := sched.ListPurchases(ctx, args[0])
		if err != nil {
			fatal(err)
		}
		if len(purchases) == 0 {
			fmt.Println("No purchases found.")
			return
		}

		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()
		for _, p := range purchases {
			fmt.Printf("%s  %s\n", cyan(p.ID), p.Status)
			fmt.Printf("  %d of %d days used, %d remaining %s\n",
				p.DaysUsed, p.TotalPurchasedDays, allowance.Remaining(p),
				gray(fmt.Sprintf("(freeze quota: %d)", p.AllowedFreezeDays)))
		}
	},
}

var purchaseShowCmd = &cobra.Command{
	Use:   "show <purchase-id>",
	Short: "Show one purchase",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		sched, store, err := openScheduler(ctx)
		if err != nil {
			fatal(err)
		}
		defer store.Close()

		p, err := sched.GetPurchase(ctx, args[0])
		if err != nil {
			fatal(err)
		}

		fmt.Printf("Purchase %s\n", p.ID)
		fmt.Printf("  Client:       %s\n", p.ClientID)
		fmt.Printf("  Status:       %s\n", p.Status)
		fmt.Printf("  Days:         %d used of %d (%d remaining)\n",
			p.DaysUsed, p.TotalPurchasedDays, allowance.Remaining(p))
		fmt.Printf("  Freeze quota: %d days\n", p.AllowedFreezeDays)
		if p.ExpectedStartDate != nil && p.ExpectedEndDate != nil {
			fmt.Printf("  Window:       %s to %s\n", p.ExpectedStartDate, p.ExpectedEndDate)
		}
	},
}

func init() {
	purchaseAddCmd.Flags().IntVar(&purchaseDays, "days", 0, "Total purchased days (required)")
	purchaseAddCmd.Flags().IntVar(&purchaseFreezeDays, "freeze-days", 0, "Freeze-day quota for this purchase")
	purchaseAddCmd.Flags().StringVar(&purchaseExpectedStart, "expected-start", "", "Expected window start (YYYY-MM-DD)")
	purchaseAddCmd.Flags().StringVar(&purchaseExpectedEnd, "expected-end", "", "Expected window end (YYYY-MM-DD)")
	_ = purchaseAddCmd.MarkFlagRequired("days")

	purchaseCmd.AddCommand(purchaseAddCmd)
	purchaseCmd.AddCommand(purchaseListCmd)
	purchaseCmd.AddCommand(purchaseShowCmd)
	rootCmd.AddCommand(purchaseCmd)
}
