// Package persistence implements the billing repositories for SQLite and
// PostgreSQL. Writes use a single upsert guarded by the aggregate version,
// so a stale aggregate surfaces as ErrVersionConflict instead of silently
// overwriting newer state.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/payved/internal/billing/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SQLitePaymentRepository implements PaymentRepository with SQLite.
type SQLitePaymentRepository struct {
	db *sql.DB
}

// NewSQLitePaymentRepository creates a new repository.
func NewSQLitePaymentRepository(db *sql.DB) *SQLitePaymentRepository {
	return &SQLitePaymentRepository{db: db}
}

const sqlitePaymentColumns = `
	id, amount, currency, status, transaction_id, paid_at,
	failure_reason, customer_email, subscription_id,
	created_at, updated_at, version
`

// Save inserts or updates the payment, guarded by the aggregate version.
func (r *SQLitePaymentRepository) Save(ctx context.Context, payment *domain.Payment) error {
	now := time.Now().UTC().Format(time.RFC3339)

	var transactionID sql.NullString
	if payment.TransactionID() != "" {
		transactionID = sql.NullString{String: payment.TransactionID(), Valid: true}
	}
	var paidAt sql.NullString
	if payment.PaidAt() != nil {
		paidAt = sql.NullString{String: payment.PaidAt().UTC().Format(time.RFC3339), Valid: true}
	}
	var subscriptionID sql.NullString
	if payment.SubscriptionID() != nil {
		subscriptionID = sql.NullString{String: payment.SubscriptionID().String(), Valid: true}
	}

	createdAt := payment.CreatedAt().UTC().Format(time.RFC3339)
	if payment.CreatedAt().IsZero() {
		createdAt = now
	}

	query := `
		INSERT INTO payments (` + sqlitePaymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			transaction_id = excluded.transaction_id,
			paid_at = excluded.paid_at,
			failure_reason = excluded.failure_reason,
			subscription_id = excluded.subscription_id,
			updated_at = excluded.updated_at,
			version = excluded.version
		WHERE payments.version = excluded.version - 1
	`

	result, err := r.db.ExecContext(ctx, query,
		payment.ID().String(),
		payment.Money().Amount().String(),
		payment.Money().Currency(),
		payment.Status().String(),
		transactionID,
		paidAt,
		payment.FailureReason(),
		payment.CustomerEmail(),
		subscriptionID,
		createdAt,
		now,
		payment.Version()+1,
	)
	if err != nil {
		return fmt.Errorf("saving payment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrVersionConflict
	}

	payment.IncrementVersion()
	return nil
}

// FindByID returns the payment, or nil when it does not exist.
func (r *SQLitePaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + sqlitePaymentColumns + ` FROM payments WHERE id = ?`

	payment, err := scanSQLitePayment(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return payment, nil
}

// FindBySubscription returns a subscription's payments, newest first.
func (r *SQLitePaymentRepository) FindBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*domain.Payment, error) {
	query := `
		SELECT ` + sqlitePaymentColumns + `
		FROM payments
		WHERE subscription_id = ?
		ORDER BY created_at DESC, id
	`
	return r.queryPayments(ctx, query, subscriptionID.String())
}

// List returns all payments, newest first.
func (r *SQLitePaymentRepository) List(ctx context.Context) ([]*domain.Payment, error) {
	query := `SELECT ` + sqlitePaymentColumns + ` FROM payments ORDER BY created_at DESC, id`
	return r.queryPayments(ctx, query)
}

func (r *SQLitePaymentRepository) queryPayments(ctx context.Context, query string, args ...any) ([]*domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanSQLitePayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLitePayment(row rowScanner) (*domain.Payment, error) {
	var (
		idStr             string
		amountStr         string
		currency          string
		statusStr         string
		transactionID     sql.NullString
		paidAtStr         sql.NullString
		failureReason     string
		customerEmail     string
		subscriptionIDStr sql.NullString
		createdAtStr      string
		updatedAtStr      string
		version           int
	)

	if err := row.Scan(
		&idStr,
		&amountStr,
		&currency,
		&statusStr,
		&transactionID,
		&paidAtStr,
		&failureReason,
		&customerEmail,
		&subscriptionIDStr,
		&createdAtStr,
		&updatedAtStr,
		&version,
	); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parsing payment id: %w", err)
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

	var paidAt *time.Time
	if paidAtStr.Valid {
		t, err := time.Parse(time.RFC3339, paidAtStr.String)
		if err != nil {
			return nil, fmt.Errorf("parsing paid_at: %w", err)
		}
		paidAt = &t
	}
	var subscriptionID *uuid.UUID
	if subscriptionIDStr.Valid {
		parsed, err := uuid.Parse(subscriptionIDStr.String)
		if err != nil {
			return nil, fmt.Errorf("parsing subscription id: %w", err)
		}
		subscriptionID = &parsed
	}

	createdAt, _ := time.Parse(time.RFC3339, createdAtStr)
	updatedAt, _ := time.Parse(time.RFC3339, updatedAtStr)

	return domain.RehydratePayment(
		id, money, status,
		transactionID.String, paidAt, failureReason,
		customerEmail, subscriptionID,
		createdAt, updatedAt, version,
	), nil
}

var _ domain.PaymentRepository = (*SQLitePaymentRepository)(nil)
