package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/payved/internal/billing/domain"
	"github.com/felixgeelhaar/payved/internal/billing/infrastructure/gateway"
)

// ProcessPaymentCommand charges a single payment through the gateway.
//
// Execute opens a pending payment record, attempts the charge, and settles
// the record as completed or failed. The failed record is kept; the command
// never retries on its own. Undo refunds a completed charge.
type ProcessPaymentCommand struct {
	money         domain.Money
	customerEmail string
	gw            gateway.Gateway
	payments      domain.PaymentRepository
	logger        *slog.Logger

	payment  *domain.Payment
	executed bool
	result   *Result
}

// NewProcessPaymentCommand creates a process-payment command. A nil gateway
// falls back to the reference simulated gateway.
func NewProcessPaymentCommand(
	money domain.Money,
	customerEmail string,
	gw gateway.Gateway,
	payments domain.PaymentRepository,
	logger *slog.Logger,
) *ProcessPaymentCommand {
	if gw == nil {
		gw = gateway.NewSimulatedGateway(gateway.DefaultSimulatedConfig(), logger)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessPaymentCommand{
		money:         money,
		customerEmail: customerEmail,
		gw:            gw,
		payments:      payments,
		logger:        logger,
	}
}

// Payment returns the payment record owned by this command, nil before
// execution.
func (c *ProcessPaymentCommand) Payment() *domain.Payment { return c.payment }

func (c *ProcessPaymentCommand) Executed() bool  { return c.executed }
func (c *ProcessPaymentCommand) Result() *Result { return c.result }

func (c *ProcessPaymentCommand) Describe() string {
	return fmt.Sprintf("process-payment %s for %s", c.money, c.customerEmail)
}

// Execute charges the gateway and settles the payment record.
func (c *ProcessPaymentCommand) Execute(ctx context.Context) (*Result, error) {
	if c.executed {
		return nil, ErrAlreadyExecuted
	}

	payment, err := domain.NewPayment(c.money, c.customerEmail)
	if err != nil {
		return nil, err
	}
	if err := c.payments.Save(ctx, payment); err != nil {
		return nil, fmt.Errorf("saving pending payment: %w", err)
	}
	c.payment = payment

	// Once the pending record exists the charge is issued: it runs to
	// completion and settles even if the caller's context is cancelled.
	ctx = context.WithoutCancel(ctx)

	res, err := c.gw.Charge(ctx, gateway.ChargeRequest{
		Amount:        c.money.Amount(),
		Currency:      c.money.Currency(),
		CustomerEmail: c.customerEmail,
	})
	if err != nil {
		c.settleFailed(ctx, payment, err.Error())
		return nil, fmt.Errorf("charging gateway: %w", err)
	}

	if !res.Approved {
		c.settleFailed(ctx, payment, res.Message)
		return nil, fmt.Errorf("%w: %s", gateway.ErrDeclined, res.Message)
	}

	if err := payment.Complete(res.TransactionID); err != nil {
		return nil, err
	}
	if err := c.payments.Save(ctx, payment); err != nil {
		return nil, fmt.Errorf("saving completed payment: %w", err)
	}

	c.logger.Info("payment completed",
		"payment_id", payment.ID().String(),
		"amount", c.money.String(),
		"transaction_id", res.TransactionID,
	)

	c.executed = true
	c.result = &Result{Outcome: OutcomeCharged, Payment: payment}
	return c.result, nil
}

// settleFailed moves a still-pending payment to failed and persists it.
// The failed record is evidence of the attempt and is never deleted.
func (c *ProcessPaymentCommand) settleFailed(ctx context.Context, payment *domain.Payment, reason string) {
	if payment.Status() != domain.PaymentStatusPending {
		return
	}
	if err := payment.Fail(reason); err != nil {
		c.logger.Error("marking payment failed", "payment_id", payment.ID().String(), "error", err)
		return
	}
	if err := c.payments.Save(ctx, payment); err != nil {
		c.logger.Error("saving failed payment", "payment_id", payment.ID().String(), "error", err)
	}
}

// Undo refunds the completed charge. A refund decline leaves the payment
// completed; there is no partial state.
func (c *ProcessPaymentCommand) Undo(ctx context.Context) (*Result, error) {
	if c.payment == nil || c.payment.Status() != domain.PaymentStatusCompleted {
		return nil, fmt.Errorf("%w: %w", ErrNotUndoable, domain.ErrNotRefundable)
	}

	res, err := c.gw.Refund(ctx, gateway.RefundRequest{
		TransactionID: c.payment.TransactionID(),
		Amount:        c.payment.Money().Amount(),
	})
	if err != nil {
		return nil, fmt.Errorf("refunding gateway: %w", err)
	}
	if !res.Approved {
		return nil, fmt.Errorf("%w: %s", gateway.ErrDeclined, res.Message)
	}

	if err := c.payment.Refund(); err != nil {
		return nil, err
	}
	if err := c.payments.Save(ctx, c.payment); err != nil {
		return nil, fmt.Errorf("saving refunded payment: %w", err)
	}

	c.logger.Info("payment refunded",
		"payment_id", c.payment.ID().String(),
		"refund_id", res.RefundID,
	)

	return &Result{Outcome: OutcomeRefunded, Payment: c.payment}, nil
}

// CanUndo reports whether a refund is currently possible.
func (c *ProcessPaymentCommand) CanUndo() bool {
	return c.payment != nil && c.payment.Status() == domain.PaymentStatusCompleted
}
