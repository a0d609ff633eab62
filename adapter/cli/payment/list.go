package payment

import (
	"fmt"

	"github.com/felixgeelhaar/payved/adapter/cli"
	"github.com/felixgeelhaar/payved/internal/billing/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var listSubscriptionID string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List payments",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BillingService == nil {
			return fmt.Errorf("billing service not available")
		}

		var (
			payments []*domain.Payment
			err      error
		)
		if listSubscriptionID != "" {
			id, parseErr := uuid.Parse(listSubscriptionID)
			if parseErr != nil {
				return fmt.Errorf("invalid subscription id %q: %w", listSubscriptionID, parseErr)
			}
			payments, err = app.BillingService.ListSubscriptionPayments(cmd.Context(), id)
		} else {
			payments, err = app.BillingService.ListPayments(cmd.Context())
		}
		if err != nil {
			return err
		}

		if len(payments) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No payments found.")
			return nil
		}

		for _, payment := range payments {
			fmt.Fprintln(cmd.OutOrStdout(), payment)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listSubscriptionID, "subscription", "s", "", "only payments of this subscription")
}
