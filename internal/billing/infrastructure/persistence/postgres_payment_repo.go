package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/payved/internal/billing/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresPaymentRepository implements PaymentRepository with PostgreSQL.
type PostgresPaymentRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresPaymentRepository creates a new repository.
func NewPostgresPaymentRepository(pool *pgxpool.Pool) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{pool: pool}
}

const postgresPaymentColumns = `
	id, amount::text, currency, status, transaction_id, paid_at,
	failure_reason, customer_email, subscription_id,
	created_at, updated_at, version
`

// Save inserts or updates the payment, guarded by the aggregate version.
func (r *PostgresPaymentRepository) Save(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, amount, currency, status, transaction_id, paid_at,
			failure_reason, customer_email, subscription_id,
			created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			transaction_id = EXCLUDED.transaction_id,
			paid_at = EXCLUDED.paid_at,
			failure_reason = EXCLUDED.failure_reason,
			subscription_id = EXCLUDED.subscription_id,
			updated_at = NOW(),
			version = EXCLUDED.version
		WHERE payments.version = EXCLUDED.version - 1
	`

	var transactionID *string
	if payment.TransactionID() != "" {
		id := payment.TransactionID()
		transactionID = &id
	}

	createdAt := payment.CreatedAt()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tag, err := r.pool.Exec(ctx, query,
		payment.ID(),
		payment.Money().Amount().String(),
		payment.Money().Currency(),
		payment.Status().String(),
		transactionID,
		payment.PaidAt(),
		payment.FailureReason(),
		payment.CustomerEmail(),
		payment.SubscriptionID(),
		createdAt,
		payment.Version()+1,
	)
	if err != nil {
		return fmt.Errorf("saving payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}

	payment.IncrementVersion()
	return nil
}

// FindByID returns the payment, or nil when it does not exist.
func (r *PostgresPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + postgresPaymentColumns + ` FROM payments WHERE id = $1`

	payment, err := scanPostgresPayment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return payment, nil
}

// FindBySubscription returns a subscription's payments, newest first.
func (r *PostgresPaymentRepository) FindBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT ` + postgresPaymentColumns + `
		FROM payments
		WHERE subscription_id = $1
		ORDER BY created_at DESC, id
	`
	return r.queryPayments(ctx, query, subscriptionID)
}

// List returns all payments, newest first.
func (r *PostgresPaymentRepository) List(ctx context.Context) ([]*domain.Payment, error) {
	query := `SELECT ` + postgresPaymentColumns + ` FROM payments ORDER BY created_at DESC, id`
	return r.queryPayments(ctx, query)
}

func (r *PostgresPaymentRepository) queryPayments(ctx context.Context, query string, args ...any) ([]*domain.Payment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPostgresPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func scanPostgresPayment(row rowScanner) (*domain.Payment, error) {
	var (
		id             uuid.UUID
		amountStr      string
		currency       string
		statusStr      string
		transactionID  *string
		paidAt         *time.Time
		failureReason  string
		customerEmail  string
		subscriptionID *uuid.UUID
		createdAt      time.Time
		updatedAt      time.Time
		version        int
	)

	if err := row.Scan(
		&id,
		&amountStr,
		&currency,
		&statusStr,
		&transactionID,
		&paidAt,
		&failureReason,
		&customerEmail,
		&subscriptionID,
		&createdAt,
		&updatedAt,
		&version,
	); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parsing payment amount: %w", err)
	}
	money, err := domain.NewMoney(amount, currency)
	if err != nil {
		return nil, fmt.Errorf("rebuilding payment money: %w", err)
	}
	status, err := domain.ParsePaymentStatus(statusStr)
	if err != nil {
		return nil, err
	}

	var txnID string
	if transactionID != nil {
		txnID = *transactionID
	}

	return domain.RehydratePayment(
		id, money, status,
		txnID, paidAt, failureReason,
		customerEmail, subscriptionID,
		createdAt, updatedAt, version,
	), nil
}

var _ domain.PaymentRepository = (*PostgresPaymentRepository)(nil)
