package entity

import (
	"context"
	"time"
)

const (
	SubscriptionActive   = "active"
	SubscriptionInactive = "inactive"

	PlanPro = "Pro"
)

type Subscription struct {
	CompanyID string     `json:"company_id" db:"company_id"`
	Plan      string     `json:"plan" db:"plan"`
	Status    string     `json:"status" db:"status"`
	StartsAt  *time.Time `json:"starts_at,omitempty" db:"starts_at"`
	EndsAt    *time.Time `json:"ends_at,omitempty" db:"ends_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// NewSubscription is the inactive row every company gets at signup.
func NewSubscription(companyID string) *Subscription {
	return &Subscription{
		CompanyID: companyID,
		Plan:      "",
		Status:    SubscriptionInactive,
		UpdatedAt: time.Now().UTC(),
	}
}

// Activate marks the subscription active for days starting at now.
func (s *Subscription) Activate(plan string, now time.Time, days int) {
	start := now.UTC()
	end := start.AddDate(0, 0, days)
	s.Plan = plan
	s.Status = SubscriptionActive
	s.StartsAt = &start
	s.EndsAt = &end
	s.UpdatedAt = start
}

// IsActive reports whether the subscription grants access at now.
func (s *Subscription) IsActive(now time.Time) bool {
	if s == nil || s.Status != SubscriptionActive {
		return false
	}
	return s.EndsAt == nil || now.Before(*s.EndsAt)
}

type SubscriptionRepository interface {
	Create(ctx context.Context, sub *Subscription) error
	Upsert(ctx context.Context, sub *Subscription) error
	FindByCompanyID(ctx context.Context, companyID string) (*Subscription, error)
	// ExpireBefore flips active rows whose ends_at is before now and returns
	// the affected company ids.
	ExpireBefore(ctx context.Context, now time.Time) ([]string, error)
}
