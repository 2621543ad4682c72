package entity

import (
	"context"
	"encoding/json"
)

const (
	EventLeadCreated         = "lead.created"
	EventLeadUpdated         = "lead.updated"
	EventAgentsChanged       = "agents.changed"
	EventSubscriptionChanged = "subscription.changed"
)

// ChangeEvent is pushed to the dashboards of one company after a commit.
type ChangeEvent struct {
	CompanyID string          `json:"company_id"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type EventPublisher interface {
	Publish(ctx context.Context, ev ChangeEvent) error
}
