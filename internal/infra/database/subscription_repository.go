package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/xavierca1/leadflow/internal/entity"
)

type SubscriptionRepository struct {
	DB *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{DB: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *entity.Subscription) error {
	query := `
		INSERT INTO subscriptions (company_id, plan, status, starts_at, ends_at, updated_at)
		VALUES (:company_id, :plan, :status, :starts_at, :ends_at, :updated_at)
	`
	if _, err := r.DB.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// Upsert keeps one row per company, as the payment webhook expects.
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *entity.Subscription) error {
	query := `
		INSERT INTO subscriptions (company_id, plan, status, starts_at, ends_at, updated_at)
		VALUES (:company_id, :plan, :status, :starts_at, :ends_at, :updated_at)
		ON CONFLICT (company_id) DO UPDATE SET
			plan = EXCLUDED.plan,
			status = EXCLUDED.status,
			starts_at = EXCLUDED.starts_at,
			ends_at = EXCLUDED.ends_at,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.DB.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) FindByCompanyID(ctx context.Context, companyID string) (*entity.Subscription, error) {
	var sub entity.Subscription
	query := `SELECT company_id, plan, status, starts_at, ends_at, updated_at FROM subscriptions WHERE company_id = $1`
	if err := r.DB.GetContext(ctx, &sub, query, companyID); err != nil {
		return nil, notFound(err, entity.ErrSubscriptionNotFound)
	}
	return &sub, nil
}

func (r *SubscriptionRepository) ExpireBefore(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		UPDATE subscriptions
		SET status = 'inactive', updated_at = NOW()
		WHERE status = 'active' AND ends_at IS NOT NULL AND ends_at < $1
		RETURNING company_id
	`
	ids := []string{}
	if err := r.DB.SelectContext(ctx, &ids, query, now); err != nil {
		return nil, fmt.Errorf("expire subscriptions: %w", err)
	}
	return ids, nil
}
