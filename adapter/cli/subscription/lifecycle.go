package subscription

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/payved/adapter/cli"
	"github.com/felixgeelhaar/payved/internal/billing/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var pauseCmd = &cobra.Command{
	Use:   "pause <subscription-id>",
	Short: "Pause a subscription",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], "paused", func(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
			return cli.GetApp().BillingService.PauseSubscription(ctx, id)
		})
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume <subscription-id>",
	Short: "Resume a paused subscription",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], "resumed", func(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
			return cli.GetApp().BillingService.ResumeSubscription(ctx, id)
		})
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel <subscription-id>",
	Short: "Cancel a subscription permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTransition(cmd, args[0], "cancelled", func(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
			return cli.GetApp().BillingService.CancelSubscription(ctx, id)
		})
	},
}

func runTransition(
	cmd *cobra.Command,
	rawID string,
	verb string,
	transition func(context.Context, uuid.UUID) (*domain.Subscription, error),
) error {
	app := cli.GetApp()
	if app == nil || app.BillingService == nil {
		return fmt.Errorf("billing service not available")
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid subscription id %q: %w", rawID, err)
	}

	sub, err := transition(cmd.Context(), id)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Subscription %s %s\n", sub.ID(), verb)
	return nil
}
