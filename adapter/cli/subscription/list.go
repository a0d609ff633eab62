package subscription

import (
	"fmt"

	"github.com/felixgeelhaar/payved/adapter/cli"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List subscriptions",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BillingService == nil {
			return fmt.Errorf("billing service not available")
		}

		subscriptions, err := app.BillingService.ListSubscriptions(cmd.Context())
		if err != nil {
			return err
		}

		if len(subscriptions) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No subscriptions found.")
			return nil
		}

		for _, sub := range subscriptions {
			fmt.Fprintln(cmd.OutOrStdout(), sub)
		}
		return nil
	},
}
