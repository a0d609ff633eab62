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

// PostgresSubscriptionRepository implements SubscriptionRepository with PostgreSQL.
type PostgresSubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresSubscriptionRepository creates a new repository.
func NewPostgresSubscriptionRepository(pool *pgxpool.Pool) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{pool: pool}
}

const postgresSubscriptionColumns = `
	id, customer_email, amount::text, currency, billing_interval, status,
	next_payment_due, started_at, created_at, updated_at, version
`

// Save inserts or updates the subscription, guarded by the aggregate version.
func (r *PostgresSubscriptionRepository) Save(ctx context.Context, subscription *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, customer_email, amount, currency, billing_interval, status,
			next_payment_due, started_at, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			next_payment_due = EXCLUDED.next_payment_due,
			updated_at = NOW(),
			version = EXCLUDED.version
		WHERE subscriptions.version = EXCLUDED.version - 1
	`

	createdAt := subscription.CreatedAt()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	tag, err := r.pool.Exec(ctx, query,
		subscription.ID(),
		subscription.CustomerEmail(),
		subscription.Money().Amount().String(),
		subscription.Money().Currency(),
		subscription.Interval().String(),
		subscription.Status().String(),
		subscription.NextPaymentDue(),
		subscription.StartedAt(),
		createdAt,
		subscription.Version()+1,
	)
	if err != nil {
		return fmt.Errorf("saving subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVersionConflict
	}

	subscription.IncrementVersion()
	return nil
}

// FindByID returns the subscription, or nil when it does not exist.
func (r *PostgresSubscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + postgresSubscriptionColumns + ` FROM subscriptions WHERE id = $1`

	subscription, err := scanPostgresSubscription(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return subscription, nil
}

// FindDue returns active subscriptions due at or before now, ordered by due
// date then id so batch runs process in a stable order.
func (r *PostgresSubscriptionRepository) FindDue(ctx context.Context, now time.Time) ([]*domain.Subscription, error) {
	query := `
		SELECT ` + postgresSubscriptionColumns + `
		FROM subscriptions
		WHERE status = $1 AND next_payment_due <= $2
		ORDER BY next_payment_due, id
	`
	return r.querySubscriptions(ctx, query, domain.SubscriptionStatusActive.String(), now)
}

// List returns all subscriptions, oldest first.
func (r *PostgresSubscriptionRepository) List(ctx context.Context) ([]*domain.Subscription, error) {
	query := `SELECT ` + postgresSubscriptionColumns + ` FROM subscriptions ORDER BY created_at, id`
	return r.querySubscriptions(ctx, query)
}

func (r *PostgresSubscriptionRepository) querySubscriptions(ctx context.Context, query string, args ...any) ([]*domain.Subscription, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subscriptions []*domain.Subscription
	for rows.Next() {
		subscription, err := scanPostgresSubscription(rows)
		if err != nil {
			return nil, err
		}
		subscriptions = append(subscriptions, subscription)
	}
	return subscriptions, rows.Err()
}

func scanPostgresSubscription(row rowScanner) (*domain.Subscription, error) {
	var (
		id             uuid.UUID
		customerEmail  string
		amountStr      string
		currency       string
		intervalStr    string
		statusStr      string
		nextPaymentDue time.Time
		startedAt      time.Time
		createdAt      time.Time
		updatedAt      time.Time
		version        int
	)

	if err := row.Scan(
		&id,
		&customerEmail,
		&amountStr,
		&currency,
		&intervalStr,
		&statusStr,
		&nextPaymentDue,
		&startedAt,
		&createdAt,
		&updatedAt,
		&version,
	); err != nil {
		return nil, err
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

	return domain.RehydrateSubscription(
		id, customerEmail, money, interval, status,
		nextPaymentDue, startedAt,
		createdAt, updatedAt, version,
	), nil
}

var _ domain.SubscriptionRepository = (*PostgresSubscriptionRepository)(nil)
