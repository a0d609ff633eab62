// Package billing implements the billing command group.
package billing

import "github.com/spf13/cobra"

// Cmd is the billing command group.
var Cmd = &cobra.Command{
	Use:   "billing",
	Short: "Run recurring billing and manage the command history",
	Long:  `Charge due subscriptions, undo the most recent operation and inspect the command history.`,
}

func init() {
	Cmd.AddCommand(runCmd)
	Cmd.AddCommand(undoCmd)
	Cmd.AddCommand(historyCmd)
}
