package subscription

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/payved/adapter/cli"
	"github.com/felixgeelhaar/payved/internal/billing/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	createAmount   string
	createCurrency string
	createEmail    string
	createInterval string
	createFirstDue string
)

var createCmd = &cobra.Command{
	Use:     "create",
	Short:   "Create a subscription",
	Example: `  payved subscription create --amount 9.99 --currency EUR --email customer@example.com --interval MONTHLY`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BillingService == nil {
			return fmt.Errorf("billing service not available")
		}

		amount, err := decimal.NewFromString(createAmount)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", createAmount, err)
		}
		money, err := domain.NewMoney(amount, createCurrency)
		if err != nil {
			return err
		}
		interval, err := domain.ParseBillingInterval(createInterval)
		if err != nil {
			return err
		}

		var firstDue *time.Time
		if createFirstDue != "" {
			t, err := time.Parse(time.RFC3339, createFirstDue)
			if err != nil {
				return fmt.Errorf("invalid first due date %q (want RFC3339): %w", createFirstDue, err)
			}
			firstDue = &t
		}

		sub, err := app.BillingService.CreateSubscription(cmd.Context(), createEmail, money, interval, firstDue)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Subscription %s created\n", sub.ID())
		fmt.Fprintf(cmd.OutOrStdout(), "  Amount:   %s %s\n", sub.Money(), sub.Interval())
		fmt.Fprintf(cmd.OutOrStdout(), "  Next due: %s\n", sub.NextPaymentDue().Local().Format(time.RFC1123))
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&createAmount, "amount", "a", "", "billing amount per period, e.g. 9.99")
	createCmd.Flags().StringVarP(&createCurrency, "currency", "c", "USD", "three-letter currency code")
	createCmd.Flags().StringVarP(&createEmail, "email", "e", "", "customer email")
	createCmd.Flags().StringVarP(&createInterval, "interval", "i", "MONTHLY", "billing interval: DAILY, WEEKLY, MONTHLY or YEARLY")
	createCmd.Flags().StringVar(&createFirstDue, "first-due", "", "first payment due date (RFC3339), defaults to now")
	_ = createCmd.MarkFlagRequired("amount")
	_ = createCmd.MarkFlagRequired("email")
}
