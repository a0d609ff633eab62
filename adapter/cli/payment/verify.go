package payment

import (
	"fmt"

	"github.com/felixgeelhaar/payved/adapter/cli"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <transaction-id>",
	Short: "Verify a transaction id with the gateway",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BillingService == nil {
			return fmt.Errorf("billing service not available")
		}

		result, err := app.BillingService.VerifyTransaction(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		if result.Valid {
			fmt.Fprintf(cmd.OutOrStdout(), "Transaction %s is valid\n", args[0])
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Transaction %s is unknown: %s\n", args[0], result.Message)
		}
		return nil
	},
}
