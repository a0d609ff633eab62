package payment

import (
	"fmt"

	"github.com/felixgeelhaar/payved/adapter/cli"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var refundCmd = &cobra.Command{
	Use:   "refund <payment-id>",
	Short: "Refund a completed payment",
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

		payment, err := app.BillingService.RefundPayment(cmd.Context(), id)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Payment %s refunded\n", payment.ID())
		fmt.Fprintf(cmd.OutOrStdout(), "  Amount:      %s\n", payment.Money())
		fmt.Fprintf(cmd.OutOrStdout(), "  Transaction: %s\n", payment.TransactionID())
		return nil
	},
}
