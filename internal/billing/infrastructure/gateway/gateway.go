// Package gateway defines the boundary to an external payment processor.
//
// The processor is treated as an untrusted, possibly failing system: a
// declined charge is a normal result (Approved=false), while transport or
// availability problems surface as errors.
package gateway

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrDeclined is used by callers to classify a gateway decline when mapping
// results into command failures.
var ErrDeclined = errors.New("gateway declined")

// ChargeRequest asks the processor to move money from a customer.
type ChargeRequest struct {
	Amount        decimal.Decimal
	Currency      string
	CustomerEmail string
}

// ChargeResult is the processor's answer to a charge attempt.
type ChargeResult struct {
	Approved      bool
	TransactionID string
	Message       string
}

// RefundRequest asks the processor to compensate a prior charge.
type RefundRequest struct {
	TransactionID string
	Amount        decimal.Decimal
}

// RefundResult is the processor's answer to a refund attempt.
type RefundResult struct {
	Approved bool
	RefundID string
	Message  string
}

// VerifyResult reports whether a transaction id is known to the processor.
type VerifyResult struct {
	Valid   bool
	Message string
}

// Gateway is the port to the external payment processor.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, req RefundRequest) (*RefundResult, error)
	Verify(ctx context.Context, transactionID string) (*VerifyResult, error)
}
