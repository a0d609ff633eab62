package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerConfig configures circuit breaking and timeouts for gateway calls.
type BreakerConfig struct {
	// CallTimeout bounds every gateway call. The processor gives no timeout
	// guidance of its own, so the engine imposes one.
	CallTimeout time.Duration

	// MaxRequests is the number of probes allowed in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is the period of the open state.
	Timeout time.Duration

	// FailureThreshold trips the breaker after this many consecutive
	// transport failures. Declines do not count; they are valid answers.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns sensible defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		CallTimeout:      10 * time.Second,
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerGateway wraps a Gateway with per-operation circuit breakers and a
// bounded call timeout.
type BreakerGateway struct {
	inner   Gateway
	config  BreakerConfig
	charges *gobreaker.CircuitBreaker[*ChargeResult]
	refunds *gobreaker.CircuitBreaker[*RefundResult]
	logger  *slog.Logger
}

// NewBreakerGateway wraps the given gateway.
func NewBreakerGateway(inner Gateway, config BreakerConfig, logger *slog.Logger) *BreakerGateway {
	if logger == nil {
		logger = slog.Default()
	}

	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: config.MaxRequests,
			Interval:    config.Interval,
			Timeout:     config.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= config.FailureThreshold
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Info("gateway circuit breaker state changed",
					"operation", name,
					"from", from.String(),
					"to", to.String(),
				)
			},
		}
	}

	return &BreakerGateway{
		inner:   inner,
		config:  config,
		charges: gobreaker.NewCircuitBreaker[*ChargeResult](settings("charge")),
		refunds: gobreaker.NewCircuitBreaker[*RefundResult](settings("refund")),
		logger:  logger,
	}
}

// Charge forwards to the inner gateway under breaker protection.
func (g *BreakerGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	return g.charges.Execute(func() (*ChargeResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.config.CallTimeout)
		defer cancel()
		return g.inner.Charge(callCtx, req)
	})
}

// Refund forwards to the inner gateway under breaker protection.
func (g *BreakerGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	return g.refunds.Execute(func() (*RefundResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.config.CallTimeout)
		defer cancel()
		return g.inner.Refund(callCtx, req)
	})
}

// Verify forwards to the inner gateway with the call timeout. Verification is
// read-only, so it bypasses the breakers.
func (g *BreakerGateway) Verify(ctx context.Context, transactionID string) (*VerifyResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.config.CallTimeout)
	defer cancel()
	return g.inner.Verify(callCtx, transactionID)
}
