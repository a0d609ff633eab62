package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/payved/internal/billing/application/commands"
	"github.com/felixgeelhaar/payved/internal/billing/domain"
	"github.com/felixgeelhaar/payved/internal/billing/infrastructure/gateway"
	"github.com/felixgeelhaar/payved/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/payved/internal/shared/infrastructure/locking"
	"github.com/google/uuid"
)

// SchedulerConfig configures batch billing runs.
type SchedulerConfig struct {
	// Workers bounds concurrent subscription processing. With 1 the batch
	// runs sequentially in stable due-date order.
	Workers int
}

// DefaultSchedulerConfig returns the default scheduler configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{Workers: 1}
}

// Failure records one subscription whose charge attempt did not produce a
// payment during a batch run.
type Failure struct {
	SubscriptionID uuid.UUID
	Err            error
}

// BatchResult aggregates one billing run. Payments holds only charges that
// actually completed; subscriptions that were not due or failed are not in it.
type BatchResult struct {
	Attempted int
	Payments  []*domain.Payment
	Failures  []Failure
}

// Processed returns the number of completed charges.
func (r *BatchResult) Processed() int { return len(r.Payments) }

// Scheduler discovers due subscriptions and drives batch recurring-payment
// execution with per-item isolation: one subscription's decline never stops
// the rest of the batch.
type Scheduler struct {
	subscriptions domain.SubscriptionRepository
	payments      domain.PaymentRepository
	gw            gateway.Gateway
	invoker       *commands.Invoker
	locker        locking.Locker
	publisher     eventbus.Publisher
	config        SchedulerConfig
	logger        *slog.Logger
}

// NewScheduler creates a billing scheduler. A nil publisher disables event
// publishing.
func NewScheduler(
	subscriptions domain.SubscriptionRepository,
	payments domain.PaymentRepository,
	gw gateway.Gateway,
	invoker *commands.Invoker,
	locker locking.Locker,
	publisher eventbus.Publisher,
	config SchedulerConfig,
	logger *slog.Logger,
) *Scheduler {
	if locker == nil {
		locker = locking.NewMemoryLocker()
	}
	if invoker == nil {
		invoker = commands.NewInvoker(commands.DefaultHistoryCapacity, logger)
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		subscriptions: subscriptions,
		payments:      payments,
		gw:            gw,
		invoker:       invoker,
		locker:        locker,
		publisher:     publisher,
		config:        config,
		logger:        logger,
	}
}

// ProcessDuePayments charges every due subscription, isolating per-item
// failures. The scan itself failing is the only error this returns.
func (s *Scheduler) ProcessDuePayments(ctx context.Context) (*BatchResult, error) {
	now := time.Now().UTC()

	due, err := s.subscriptions.FindDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("finding due subscriptions: %w", err)
	}

	s.logger.Info("billing run started", "due_subscriptions", len(due))

	result := &BatchResult{Attempted: len(due)}
	if len(due) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	collect := func(payment *domain.Payment, id uuid.UUID, err error) {
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err != nil:
			result.Failures = append(result.Failures, Failure{SubscriptionID: id, Err: err})
		case payment != nil:
			result.Payments = append(result.Payments, payment)
		}
	}

	if s.config.Workers == 1 {
		for _, sub := range due {
			payment, err := s.chargeOne(ctx, sub.ID())
			collect(payment, sub.ID(), err)
		}
	} else {
		sem := make(chan struct{}, s.config.Workers)
		var wg sync.WaitGroup
		for _, sub := range due {
			wg.Add(1)
			sem <- struct{}{}
			go func(id uuid.UUID) {
				defer wg.Done()
				defer func() { <-sem }()
				payment, err := s.chargeOne(ctx, id)
				collect(payment, id, err)
			}(sub.ID())
		}
		wg.Wait()
	}

	s.logger.Info("billing run finished",
		"attempted", result.Attempted,
		"processed", result.Processed(),
		"failed", len(result.Failures),
	)

	return result, nil
}

// ProcessSubscription charges a single subscription's current cycle. Unlike
// the batch path there is nothing to protect, so failures propagate loudly.
func (s *Scheduler) ProcessSubscription(ctx context.Context, id uuid.UUID) (*commands.Result, error) {
	release, err := s.locker.Acquire(ctx, lockKey(id))
	if err != nil {
		return nil, fmt.Errorf("locking subscription %s: %w", id, err)
	}
	defer release()

	cmd := commands.NewRecurringPaymentCommand(id, s.subscriptions, s.payments, s.gw, s.logger)
	result, err := s.invoker.ExecuteCommand(ctx, cmd)
	if err != nil {
		return nil, err
	}
	s.publishCharge(ctx, cmd)
	return result, nil
}

// chargeOne processes one subscription inside the batch. Errors are
// returned for the caller to record, never to abort the batch.
func (s *Scheduler) chargeOne(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	release, err := s.locker.Acquire(ctx, lockKey(id))
	if err != nil {
		if errors.Is(err, locking.ErrLockHeld) {
			s.logger.Warn("subscription locked by another run, skipping", "subscription_id", id.String())
		}
		return nil, err
	}
	defer release()

	cmd := commands.NewRecurringPaymentCommand(id, s.subscriptions, s.payments, s.gw, s.logger)
	result, err := s.invoker.ExecuteCommand(ctx, cmd)
	if err != nil {
		s.logger.Error("recurring charge failed",
			"subscription_id", id.String(),
			"error", err,
		)
		return nil, err
	}

	if result.Outcome == commands.OutcomeNotDue {
		return nil, nil
	}
	s.publishCharge(ctx, cmd)
	return result.Payment, nil
}

// publishCharge emits the events raised by a successful recurring charge.
func (s *Scheduler) publishCharge(ctx context.Context, cmd *commands.RecurringPaymentCommand) {
	if s.publisher == nil {
		return
	}
	result := cmd.Result()
	if result != nil && result.Payment != nil {
		events := result.Payment.DomainEvents()
		result.Payment.ClearDomainEvents()
		eventbus.Dispatch(ctx, s.publisher, s.logger, events...)
	}
	if sub := cmd.Subscription(); sub != nil {
		events := sub.DomainEvents()
		sub.ClearDomainEvents()
		eventbus.Dispatch(ctx, s.publisher, s.logger, events...)
	}
}

func lockKey(id uuid.UUID) string {
	return "subscription:" + id.String()
}
