package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SimulatedConfig configures the simulated gateway behavior.
type SimulatedConfig struct {
	// ChargeSuccessRate is the probability a charge is approved.
	ChargeSuccessRate float64

	// RefundSuccessRate is the probability a refund is approved.
	RefundSuccessRate float64

	// Latency delays every call to mimic a slow external system.
	Latency time.Duration

	// Seed makes the approval sequence deterministic when non-zero.
	Seed int64
}

// DefaultSimulatedConfig returns the reference simulation rates.
func DefaultSimulatedConfig() SimulatedConfig {
	return SimulatedConfig{
		ChargeSuccessRate: 0.9,
		RefundSuccessRate: 0.95,
	}
}

// SimulatedGateway approves requests pseudo-randomly at configurable rates.
// It stands in for a real processor integration and has no side effect
// beyond the returned result.
type SimulatedGateway struct {
	config SimulatedConfig
	logger *slog.Logger

	mu     sync.Mutex
	rng    *rand.Rand
	issued map[string]struct{}
}

// NewSimulatedGateway creates a simulated gateway.
func NewSimulatedGateway(config SimulatedConfig, logger *slog.Logger) *SimulatedGateway {
	if logger == nil {
		logger = slog.Default()
	}
	seed := config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimulatedGateway{
		config: config,
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
		issued: make(map[string]struct{}),
	}
}

// AlwaysApprove returns a gateway that approves every request. Useful in
// tests and demos where declines are noise.
func AlwaysApprove() *SimulatedGateway {
	return NewSimulatedGateway(SimulatedConfig{ChargeSuccessRate: 1, RefundSuccessRate: 1}, nil)
}

func (g *SimulatedGateway) roll(rate float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64() < rate
}

func (g *SimulatedGateway) newID(prefix string) string {
	id := prefix + "_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	g.mu.Lock()
	g.issued[id] = struct{}{}
	g.mu.Unlock()
	return id
}

func (g *SimulatedGateway) wait(ctx context.Context) error {
	if g.config.Latency <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(g.config.Latency):
		return nil
	}
}

// Charge simulates charging a customer.
func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	if !g.roll(g.config.ChargeSuccessRate) {
		g.logger.Debug("simulated charge declined",
			"amount", req.Amount.String(),
			"currency", req.Currency,
		)
		return &ChargeResult{
			Approved: false,
			Message:  "card declined or insufficient funds",
		}, nil
	}

	txnID := g.newID("txn")
	g.logger.Debug("simulated charge approved",
		"amount", req.Amount.String(),
		"currency", req.Currency,
		"transaction_id", txnID,
	)
	return &ChargeResult{
		Approved:      true,
		TransactionID: txnID,
		Message:       "payment processed",
	}, nil
}

// Refund simulates refunding a prior charge.
func (g *SimulatedGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	if req.TransactionID == "" {
		return nil, fmt.Errorf("refund requires a transaction id")
	}

	if !g.roll(g.config.RefundSuccessRate) {
		return &RefundResult{
			Approved: false,
			Message:  "refund rejected by processor",
		}, nil
	}

	refundID := g.newID("rfnd")
	g.logger.Debug("simulated refund approved",
		"transaction_id", req.TransactionID,
		"refund_id", refundID,
	)
	return &RefundResult{
		Approved: true,
		RefundID: refundID,
		Message:  "refund processed",
	}, nil
}

// Verify reports whether the transaction id was issued by this gateway.
func (g *SimulatedGateway) Verify(ctx context.Context, transactionID string) (*VerifyResult, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	g.mu.Lock()
	_, known := g.issued[transactionID]
	g.mu.Unlock()

	if !known {
		return &VerifyResult{Valid: false, Message: "unknown transaction"}, nil
	}
	return &VerifyResult{Valid: true, Message: "transaction verified"}, nil
}
