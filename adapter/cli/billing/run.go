package billing

import (
	"fmt"

	"github.com/felixgeelhaar/payved/adapter/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Charge all due subscriptions",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BillingService == nil {
			return fmt.Errorf("billing service not available")
		}

		result, err := app.BillingService.RunDueBilling(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Billing run: %d due, %d charged, %d failed\n",
			result.Attempted, result.Processed(), len(result.Failures))
		for _, payment := range result.Payments {
			fmt.Fprintf(out, "  charged %s\n", payment)
		}
		for _, failure := range result.Failures {
			fmt.Fprintf(out, "  failed  %s: %v\n", failure.SubscriptionID, failure.Err)
		}
		return nil
	},
}
