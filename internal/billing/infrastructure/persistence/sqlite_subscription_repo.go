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

// SQLiteSubscriptionRepository implements SubscriptionRepository with SQLite.
type SQLiteSubscriptionRepository struct {
	db *sql.DB
}

// NewSQLiteSubscriptionRepository creates a new repository.
func NewSQLiteSubscriptionRepository(db *sql.DB) *SQLiteSubscriptionRepository {
	return &SQLiteSubscriptionRepository{db: db}
}

const sqliteSubscriptionColumns = `
	id, customer_email, amount, currency, billing_interval, status,
	next_payment_due, started_at, created_at, updated_at, version
`

// Save inserts or updates the subscription, guarded by the aggregate version.
func (r *SQLiteSubscriptionRepository) Save(ctx context.Context, subscription *domain.Subscription) error {
	now := time.Now().UTC().Format(time.RFC3339)

	createdAt := subscription.CreatedAt().UTC().Format(time.RFC3339)
	if subscription.CreatedAt().IsZero() {
		createdAt = now
	}

	query := `
		INSERT INTO subscriptions (` + sqliteSubscriptionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			next_payment_due = excluded.next_payment_due,
			updated_at = excluded.updated_at,
			version = excluded.version
		WHERE subscriptions.version = excluded.version - 1
	`

	result, err := r.db.ExecContext(ctx, query,
		subscription.ID().String(),
		subscription.CustomerEmail(),
		subscription.Money().Amount().String(),
		subscription.Money().Currency(),
		subscription.Interval().String(),
		subscription.Status().String(),
		subscription.NextPaymentDue().UTC().Format(time.RFC3339),
		subscription.StartedAt().UTC().Format(time.RFC3339),
		createdAt,
		now,
		subscription.Version()+1,
	)
	if err != nil {
		return fmt.Errorf("saving subscription: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrVersionConflict
	}

	subscription.IncrementVersion()
	return nil
}

// FindByID returns the subscription, or nil when it does not exist.
func (r *SQLiteSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + sqliteSubscriptionColumns + ` FROM subscriptions WHERE id = ?`

	subscription, err := scanSQLiteSubscription(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return subscription, nil
}

// FindDue returns active subscriptions due at or before now, ordered by due
// date then id so batch runs process in a stable order.
func (r *SQLiteSubscriptionRepository) FindDue(ctx context.Context, now time.Time) ([]*domain.Subscription, error) {
	query := `
		SELECT ` + sqliteSubscriptionColumns + `
		FROM subscriptions
		WHERE status = ? AND next_payment_due <= ?
		ORDER BY next_payment_due, id
	`
	return r.querySubscriptions(ctx, query,
		domain.SubscriptionStatusActive.String(),
		now.UTC().Format(time.RFC3339),
	)
}

// List returns all subscriptions, oldest first.
func (r *SQLiteSubscriptionRepository) List(ctx context.Context) ([]*domain.Subscription, error) {
	query := `SELECT ` + sqliteSubscriptionColumns + ` FROM subscriptions ORDER BY created_at, id`
	return r.querySubscriptions(ctx, query)
}

func (r *SQLiteSubscriptionRepository) querySubscriptions(ctx context.Context, query string, args ...any) ([]*domain.Subscription, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subscriptions []*domain.Subscription
	for rows.Next() {
		subscription, err := scanSQLiteSubscription(rows)
		if err != nil {
			return nil, err
		}
		subscriptions = append(subscriptions, subscription)
	}
	return subscriptions, rows.Err()
}

func scanSQLiteSubscription(row rowScanner) (*domain.Subscription, error) {
	var (
		idStr             string
		customerEmail     string
		amountStr         string
		currency          string
		intervalStr       string
		statusStr         string
		nextPaymentDueStr string
		startedAtStr      string
		createdAtStr      string
		updatedAtStr      string
		version           int
	)

	if err := row.Scan(
		&idStr,
		&customerEmail,
		&amountStr,
		&currency,
		&intervalStr,
		&statusStr,
		&nextPaymentDueStr,
		&startedAtStr,
		&createdAtStr,
		&updatedAtStr,
		&version,
	); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parsing subscription id: %w", err)
	}
	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parsing subscription amount: %w", err)
	}
	money, err := domain.NewMoney(amount, currency)
	if err != nil {
		return nil, fmt.Errorf("rebuilding subscription money: %w", err)
	}
	interval, err := domain.ParseBillingInterval(intervalStr)
	if err != nil {
		return nil, err
	}
	status, err := domain.ParseSubscriptionStatus(statusStr)
	if err != nil {
		return nil, err
	}

	nextPaymentDue, err := time.Parse(time.RFC3339, nextPaymentDueStr)
	if err != nil {
		return nil, fmt.Errorf("parsing next_payment_due: %w", err)
	}
	startedAt, _ := time.Parse(time.RFC3339, startedAtStr)
	createdAt, _ := time.Parse(time.RFC3339, createdAtStr)
	updatedAt, _ := time.Parse(time.RFC3339, updatedAtStr)

	return domain.RehydrateSubscription(
		id, customerEmail, money, interval, status,
		nextPaymentDue, startedAt,
		createdAt, updatedAt, version,
	), nil
}

var _ domain.SubscriptionRepository = (*SQLiteSubscriptionRepository)(nil)
