package subscription

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/payved/adapter/cli"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var showPayments bool

var showCmd = &cobra.Command{
	Use:   "show <subscription-id>",
	Short: "Show a subscription",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BillingService == nil {
			return fmt.Errorf("billing service not available")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid subscription id %q: %w", args[0], err)
		}

		sub, err := app.BillingService.GetSubscription(cmd.Context(), id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Subscription %s\n", sub.ID())
		fmt.Fprintf(out, "  Status:   %s\n", sub.Status())
		fmt.Fprintf(out, "  Customer: %s\n", sub.CustomerEmail())
		fmt.Fprintf(out, "  Amount:   %s %s\n", sub.Money(), sub.Interval())
		fmt.Fprintf(out, "  Next due: %s\n", sub.NextPaymentDue().Local().Format(time.RFC1123))
		fmt.Fprintf(out, "  Started:  %s\n", sub.StartedAt().Local().Format(time.RFC1123))

		if showPayments {
			payments, err := app.BillingService.ListSubscriptionPayments(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Payments (%d):\n", len(payments))
			for _, payment := range payments {
				fmt.Fprintf(out, "  %s\n", payment)
			}
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVarP(&showPayments, "payments", "p", false, "include payment history")
}
