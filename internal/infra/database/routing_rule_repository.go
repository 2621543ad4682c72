package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/xavierca1/leadflow/internal/entity"
)

type RoutingRuleRepository struct {
	DB *sqlx.DB
}

func NewRoutingRuleRepository(db *sqlx.DB) *RoutingRuleRepository {
	return &RoutingRuleRepository{DB: db}
}

func (r *RoutingRuleRepository) Find(ctx context.Context, companyID string) (*entity.RoutingRule, error) {
	var rule entity.RoutingRule
	query := `
		SELECT company_id, telegram_bot_token, round_robin_enabled, fallback_webhook_url, updated_at
		FROM routing_rules WHERE company_id = $1
	`
	err := r.DB.GetContext(ctx, &rule, query, companyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return entity.DefaultRoutingRule(companyID), nil
		}
		return nil, fmt.Errorf("find routing rule: %w", err)
	}
	return &rule, nil
}

func (r *RoutingRuleRepository) Upsert(ctx context.Context, rule *entity.RoutingRule) error {
	query := `
		INSERT INTO routing_rules (company_id, telegram_bot_token, round_robin_enabled, fallback_webhook_url, updated_at)
		VALUES (:company_id, :telegram_bot_token, :round_robin_enabled, :fallback_webhook_url, :updated_at)
		ON CONFLICT (company_id) DO UPDATE SET
			telegram_bot_token = EXCLUDED.telegram_bot_token,
			round_robin_enabled = EXCLUDED.round_robin_enabled,
			fallback_webhook_url = EXCLUDED.fallback_webhook_url,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := r.DB.NamedExecContext(ctx, query, rule); err != nil {
		return fmt.Errorf("upsert routing rule: %w", err)
	}
	return nil
}
