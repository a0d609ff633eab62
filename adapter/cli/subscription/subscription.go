// Package subscription implements the subscription command group.
package subscription

import "github.com/spf13/cobra"

// Cmd is the subscription command group.
var Cmd = &cobra.Command{
	Use:   "subscription",
	Short: "Manage recurring billing agreements",
	Long:  `Create, pause, resume and cancel subscriptions and inspect their payment history.`,
}

func init() {
	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(pauseCmd)
	Cmd.AddCommand(resumeCmd)
	Cmd.AddCommand(cancelCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(listCmd)
}
