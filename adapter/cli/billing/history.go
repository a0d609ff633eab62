package billing

import (
	"fmt"

	"github.com/felixgeelhaar/payved/adapter/cli"
	"github.com/spf13/cobra"
)

var historyClear bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the command history",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Invoker == nil {
			return fmt.Errorf("billing service not available")
		}

		if historyClear {
			app.Invoker.ClearHistory()
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		}

		history := app.Invoker.History()
		if len(history) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "History is empty.")
			return nil
		}

		for i, command := range history {
			undoable := " "
			if command.CanUndo() {
				undoable = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%3d %s %s\n", i+1, undoable, command.Describe())
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "clear the history")
}
