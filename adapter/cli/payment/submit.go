package payment

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/payved/adapter/cli"
	"github.com/felixgeelhaar/payved/internal/billing/domain"
	"github.com/felixgeelhaar/payved/internal/billing/infrastructure/gateway"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	submitAmount   string
	submitCurrency string
	submitEmail    string
)

var submitCmd = &cobra.Command{
	Use:     "submit",
	Short:   "Charge a one-off payment",
	Example: `  payved payment submit --amount 49.99 --currency USD --email customer@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BillingService == nil {
			return fmt.Errorf("billing service not available")
		}

		amount, err := decimal.NewFromString(submitAmount)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", submitAmount, err)
		}
		money, err := domain.NewMoney(amount, submitCurrency)
		if err != nil {
			return err
		}

		payment, err := app.BillingService.SubmitPayment(cmd.Context(), money, submitEmail)
		if err != nil {
			if errors.Is(err, gateway.ErrDeclined) && payment != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Payment %s declined: %s\n", payment.ID(), payment.FailureReason())
				return nil
			}
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Payment %s completed\n", payment.ID())
		fmt.Fprintf(cmd.OutOrStdout(), "  Amount:      %s\n", payment.Money())
		fmt.Fprintf(cmd.OutOrStdout(), "  Transaction: %s\n", payment.TransactionID())
		return nil
	},
}

func init() {
	submitCmd.Flags().StringVarP(&submitAmount, "amount", "a", "", "payment amount, e.g. 49.99")
	submitCmd.Flags().StringVarP(&submitCurrency, "currency", "c", "USD", "three-letter currency code")
	submitCmd.Flags().StringVarP(&submitEmail, "email", "e", "", "customer email")
	_ = submitCmd.MarkFlagRequired("amount")
	_ = submitCmd.MarkFlagRequired("email")
}
