package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/xavierca1/leadflow/internal/entity"
)

// ActivateSubscriptionInput comes from a payment callback whose signature
// was already verified.
type ActivateSubscriptionInput struct {
	CompanyID     string
	TransactionID string
	Success       bool
}

// SubscriptionInvalidator drops cached subscription state for a company.
type SubscriptionInvalidator interface {
	Invalidate(companyID string)
}

type ActivateSubscriptionUseCase struct {
	SubRepo entity.SubscriptionRepository
	Cache   SubscriptionInvalidator
	Events  entity.EventPublisher
	Days    int
	Now     func() time.Time
	Log     zerolog.Logger
}

func NewActivateSubscriptionUseCase(
	subRepo entity.SubscriptionRepository,
	cache SubscriptionInvalidator,
	events entity.EventPublisher,
	days int,
	log zerolog.Logger,
) *ActivateSubscriptionUseCase {
	return &ActivateSubscriptionUseCase{
		SubRepo: subRepo,
		Cache:   cache,
		Events:  events,
		Days:    days,
		Now:     time.Now,
		Log:     log,
	}
}

// Execute activates the plan on a successful payment. Unsuccessful
// transactions are acknowledged without changes.
func (uc *ActivateSubscriptionUseCase) Execute(ctx context.Context, input ActivateSubscriptionInput) error {
	if !input.Success {
		uc.Log.Info().Str("transaction_id", input.TransactionID).Msg("payment not successful, nothing to activate")
		return nil
	}

	companyID := strings.TrimSpace(input.CompanyID)
	if companyID == "" {
		return &DomainError{Code: CodeValidation, Message: "payment carries no company id"}
	}

	days := uc.Days
	if days <= 0 {
		days = 30
	}

	sub := entity.NewSubscription(companyID)
	sub.Activate(entity.PlanPro, uc.Now(), days)

	if err := uc.SubRepo.Upsert(ctx, sub); err != nil {
		return persistenceError("failed to activate subscription", err)
	}

	if uc.Cache != nil {
		uc.Cache.Invalidate(companyID)
	}
	publish(ctx, uc.Events, uc.Log, companyID, entity.EventSubscriptionChanged, map[string]string{
		"status": sub.Status,
	})

	uc.Log.Info().
		Str("company_id", companyID).
		Str("transaction_id", input.TransactionID).
		Time("ends_at", *sub.EndsAt).
		Msg("✅ subscription activated")
	return nil
}

// ExpireSubscriptionsUseCase flips subscriptions past their end date.
type ExpireSubscriptionsUseCase struct {
	SubRepo entity.SubscriptionRepository
	Cache   SubscriptionInvalidator
	Events  entity.EventPublisher
	Log     zerolog.Logger
}

func NewExpireSubscriptionsUseCase(subRepo entity.SubscriptionRepository, cache SubscriptionInvalidator, events entity.EventPublisher, log zerolog.Logger) *ExpireSubscriptionsUseCase {
	return &ExpireSubscriptionsUseCase{SubRepo: subRepo, Cache: cache, Events: events, Log: log}
}

func (uc *ExpireSubscriptionsUseCase) Execute(ctx context.Context, now time.Time) (int, error) {
	ids, err := uc.SubRepo.ExpireBefore(ctx, now)
	if err != nil {
		return 0, persistenceError("failed to expire subscriptions", err)
	}

	for _, id := range ids {
		if uc.Cache != nil {
			uc.Cache.Invalidate(id)
		}
		publish(ctx, uc.Events, uc.Log, id, entity.EventSubscriptionChanged, map[string]string{
			"status": entity.SubscriptionInactive,
		})
		uc.Log.Info().Str("company_id", id).Msg("⏱️ subscription expired")
	}
	return len(ids), nil
}
