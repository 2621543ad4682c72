package entity

import (
	"context"
	"time"
)

// RoutingRule holds per-company delivery settings. A missing row means
// defaults: global bot token, round robin on, global fallback webhook.
type RoutingRule struct {
	CompanyID          string    `json:"company_id" db:"company_id"`
	TelegramBotToken   string    `json:"-" db:"telegram_bot_token"`
	RoundRobinEnabled  bool      `json:"round_robin_enabled" db:"round_robin_enabled"`
	FallbackWebhookURL string    `json:"fallback_webhook_url" db:"fallback_webhook_url"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

func DefaultRoutingRule(companyID string) *RoutingRule {
	return &RoutingRule{CompanyID: companyID, RoundRobinEnabled: true}
}

// HasBotToken is exposed to the dashboard instead of the token itself.
func (r *RoutingRule) HasBotToken() bool {
	return r != nil && r.TelegramBotToken != ""
}

type RoutingRuleRepositoryInterface interface {
	// Find returns DefaultRoutingRule when the company has no row.
	Find(ctx context.Context, companyID string) (*RoutingRule, error)
	Upsert(ctx context.Context, rule *RoutingRule) error
}
