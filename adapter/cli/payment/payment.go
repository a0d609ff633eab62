// Package payment implements the payment command group.
package payment

import "github.com/spf13/cobra"

// Cmd is the payment command group.
var Cmd = &cobra.Command{
	Use:   "payment",
	Short: "Process and inspect payments",
	Long:  `Submit one-off charges, refund completed payments and inspect payment records.`,
}

func init() {
	Cmd.AddCommand(submitCmd)
	Cmd.AddCommand(refundCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(verifyCmd)
}
