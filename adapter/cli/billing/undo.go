package billing

import (
	"fmt"

	"github.com/felixgeelhaar/payved/adapter/cli"
	"github.com/spf13/cobra"
)

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Undo the most recent payment operation",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.BillingService == nil {
			return fmt.Errorf("billing service not available")
		}

		result, err := app.BillingService.UndoLastPayment(cmd.Context())
		if err != nil {
			return err
		}
		if result == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to undo.")
			return nil
		}

		if result.Payment != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Undone: %s\n", result.Payment)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Undone.")
		}
		return nil
	},
}
