package payment

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/payved/adapter/cli"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <payment-id>",
	Short: "Show a payment record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BillingService == nil {
			return fmt.Errorf("billing service not available")
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid payment id %q: %w", args[0], err)
		}

		payment, err := app.BillingService.GetPayment(cmd.Context(), id)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Payment %s\n", payment.ID())
		fmt.Fprintf(out, "  Status:   %s\n", payment.Status())
		fmt.Fprintf(out, "  Amount:   %s\n", payment.Money())
		fmt.Fprintf(out, "  Customer: %s\n", payment.CustomerEmail())
		if payment.TransactionID() != "" {
			fmt.Fprintf(out, "  Transaction: %s\n", payment.TransactionID())
		}
		if payment.PaidAt() != nil {
			fmt.Fprintf(out, "  Paid at:  %s\n", payment.PaidAt().Local().Format(time.RFC1123))
		}
		if payment.FailureReason() != "" {
			fmt.Fprintf(out, "  Failure:  %s\n", payment.FailureReason())
		}
		if payment.SubscriptionID() != nil {
			fmt.Fprintf(out, "  Subscription: %s\n", payment.SubscriptionID())
		}
		return nil
	},
}
