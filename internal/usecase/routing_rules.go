package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
)

type UpdateRoutingRuleInput struct {
	// nil keeps the stored token, "" clears it.
	TelegramBotToken   *string `json:"telegram_bot_token"`
	RoundRobinEnabled  *bool   `json:"round_robin_enabled"`
	FallbackWebhookURL *string `json:"fallback_webhook_url" validate:"omitnil,omitempty,http_url"`
}

type RoutingRuleView struct {
	RoundRobinEnabled  bool      `json:"round_robin_enabled"`
	FallbackWebhookURL string    `json:"fallback_webhook_url"`
	HasBotToken        bool      `json:"has_bot_token"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type RoutingRulesUseCase struct {
	Rules entity.RoutingRuleRepositoryInterface
}

func NewRoutingRulesUseCase(rules entity.RoutingRuleRepositoryInterface) *RoutingRulesUseCase {
	return &RoutingRulesUseCase{Rules: rules}
}

func (uc *RoutingRulesUseCase) Get(ctx context.Context, companyID string) (*RoutingRuleView, error) {
	rule, err := uc.Rules.Find(ctx, companyID)
	if err != nil {
		return nil, persistenceError("failed to load routing rule", err)
	}
	return viewOf(rule), nil
}

func (uc *RoutingRulesUseCase) Update(ctx context.Context, companyID string, input UpdateRoutingRuleInput) (*RoutingRuleView, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	rule, err := uc.Rules.Find(ctx, companyID)
	if err != nil {
		return nil, persistenceError("failed to load routing rule", err)
	}

	if input.TelegramBotToken != nil {
		rule.TelegramBotToken = strings.TrimSpace(*input.TelegramBotToken)
	}
	if input.RoundRobinEnabled != nil {
		rule.RoundRobinEnabled = *input.RoundRobinEnabled
	}
	if input.FallbackWebhookURL != nil {
		rule.FallbackWebhookURL = strings.TrimSpace(*input.FallbackWebhookURL)
	}
	rule.CompanyID = companyID
	rule.UpdatedAt = time.Now().UTC()

	if err := uc.Rules.Upsert(ctx, rule); err != nil {
		return nil, persistenceError("failed to save routing rule", err)
	}
	return viewOf(rule), nil
}

func viewOf(r *entity.RoutingRule) *RoutingRuleView {
	return &RoutingRuleView{
		RoundRobinEnabled:  r.RoundRobinEnabled,
		FallbackWebhookURL: r.FallbackWebhookURL,
		HasBotToken:        r.HasBotToken(),
		UpdatedAt:          r.UpdatedAt,
	}
}
