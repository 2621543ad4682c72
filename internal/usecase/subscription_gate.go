package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/viccon/sturdyc"

	"github.com/xavierca1/leadflow/internal/entity"
)

// SubscriptionGate answers "may this company use the dashboard" from a
// short-lived cache in front of the subscriptions table.
type SubscriptionGate struct {
	Subs  entity.SubscriptionRepository
	Now   func() time.Time
	Log   zerolog.Logger
	cache *sturdyc.Client[entity.Subscription]
}

func NewSubscriptionGate(subs entity.SubscriptionRepository, ttl time.Duration, log zerolog.Logger) *SubscriptionGate {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SubscriptionGate{
		Subs:  subs,
		Now:   time.Now,
		Log:   log,
		cache: sturdyc.New[entity.Subscription](10_000, 8, ttl, 10),
	}
}

// Status returns the company's subscription. A company without a row is
// reported as inactive.
func (g *SubscriptionGate) Status(ctx context.Context, companyID string) (*entity.Subscription, error) {
	sub, err := g.cache.GetOrFetch(ctx, companyID, func(ctx context.Context) (entity.Subscription, error) {
		s, err := g.Subs.FindByCompanyID(ctx, companyID)
		if errors.Is(err, entity.ErrSubscriptionNotFound) {
			return *entity.NewSubscription(companyID), nil
		}
		if err != nil {
			return entity.Subscription{}, err
		}
		return *s, nil
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// IsActive fails open: a lookup error lets the request through with a
// warning.
func (g *SubscriptionGate) IsActive(ctx context.Context, companyID string) bool {
	sub, err := g.Status(ctx, companyID)
	if err != nil {
		g.Log.Warn().Err(err).Str("company_id", companyID).Msg("⚠️ subscription lookup failed, allowing request")
		return true
	}
	return sub.IsActive(g.Now())
}

func (g *SubscriptionGate) Invalidate(companyID string) {
	g.cache.Delete(companyID)
}
