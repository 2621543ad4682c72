package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/xavierca1/leadflow/internal/entity"
)

// BodyCredentialField is the payload key accepted when a source cannot set
// the X-Incoming-Token header.
const BodyCredentialField = "api_key"

type SubmitLeadInput struct {
	Credential string
	Payload    map[string]any
}

type SubmitLeadOutput struct {
	Success   bool                 `json:"success"`
	CompanyID string               `json:"company_id"`
	LeadID    string               `json:"lead_id"`
	Status    string               `json:"status"`
	Agent     *entity.AgentSummary `json:"agent,omitempty"`
	Notified  bool                 `json:"notified"`
}

type SubmitLeadUseCase struct {
	Tenants     entity.TenantRepositoryInterface
	Rules       entity.RoutingRuleRepositoryInterface
	Assignments entity.AssignmentRepositoryInterface
	Notifier    LeadNotifier
	Events      entity.EventPublisher
	NotifyWait  time.Duration
	Log         zerolog.Logger
}

func NewSubmitLeadUseCase(
	tenants entity.TenantRepositoryInterface,
	rules entity.RoutingRuleRepositoryInterface,
	assignments entity.AssignmentRepositoryInterface,
	notifier LeadNotifier,
	events entity.EventPublisher,
	notifyWait time.Duration,
	log zerolog.Logger,
) *SubmitLeadUseCase {
	return &SubmitLeadUseCase{
		Tenants:     tenants,
		Rules:       rules,
		Assignments: assignments,
		Notifier:    notifier,
		Events:      events,
		NotifyWait:  notifyWait,
		Log:         log,
	}
}

func (uc *SubmitLeadUseCase) Execute(ctx context.Context, input SubmitLeadInput) (*SubmitLeadOutput, error) {
	credential := strings.TrimSpace(input.Credential)
	if credential == "" {
		if v, ok := input.Payload[BodyCredentialField].(string); ok {
			credential = strings.TrimSpace(v)
		}
	}
	if credential == "" {
		return nil, &DomainError{Code: CodeUnauthenticated, Message: "missing company api key"}
	}

	tenant, err := uc.Tenants.FindByAPIKey(ctx, credential)
	if err != nil {
		if errors.Is(err, entity.ErrTenantNotFound) {
			return nil, &DomainError{Code: CodeForbidden, Message: "invalid company api key"}
		}
		return nil, persistenceError("failed to resolve company", err)
	}

	// the stored audit copy never carries the credential
	payload := make(map[string]any, len(input.Payload))
	for k, v := range input.Payload {
		if k == BodyCredentialField {
			continue
		}
		payload[k] = v
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, &DomainError{Code: CodeValidation, Message: "lead payload is not serializable"}
	}

	lead := entity.NewLead(tenant.ID, raw, entity.NormalizeLeadPayload(payload))

	rule, err := uc.Rules.Find(ctx, tenant.ID)
	if err != nil {
		uc.Log.Warn().Err(err).Str("company_id", tenant.ID).Msg("routing rule lookup failed, using defaults")
		rule = entity.DefaultRoutingRule(tenant.ID)
	}

	if !rule.RoundRobinEnabled {
		if err := uc.Assignments.RecordUnassigned(ctx, lead); err != nil {
			return nil, persistenceError("failed to record lead", err)
		}
		uc.leadCreated(ctx, lead)
		return &SubmitLeadOutput{Success: true, CompanyID: tenant.ID, LeadID: lead.ID, Status: lead.Status}, nil
	}

	agent, err := uc.Assignments.AssignNext(ctx, lead)
	if err != nil {
		if errors.Is(err, entity.ErrNoAgents) {
			uc.leadCreated(ctx, lead)
			uc.Log.Warn().Str("company_id", tenant.ID).Str("lead_id", lead.ID).Msg("⚠️ lead received with no agents on roster")
			return nil, &DomainError{Code: CodeNoAgents, Message: "company has no agents; lead recorded as received"}
		}
		return nil, persistenceError("failed to assign lead", err)
	}

	uc.leadCreated(ctx, lead)
	uc.Log.Info().
		Str("company_id", tenant.ID).
		Str("lead_id", lead.ID).
		Str("agent_id", agent.ID).
		Msg("🎯 lead assigned")

	summary := agent.Summary()
	return &SubmitLeadOutput{
		Success:   true,
		CompanyID: tenant.ID,
		LeadID:    lead.ID,
		Status:    lead.Status,
		Agent:     &summary,
		Notified:  uc.notify(ctx, *lead, *agent, rule),
	}, nil
}

// notify starts delivery detached from the request and waits at most
// NotifyWait for it. Delivery keeps running after the wait expires.
func (uc *SubmitLeadUseCase) notify(ctx context.Context, lead entity.Lead, agent entity.Agent, rule *entity.RoutingRule) bool {
	if uc.Notifier == nil {
		return false
	}

	done := make(chan DeliveryOutcome, 1)
	go func() {
		done <- uc.Notifier.Notify(context.WithoutCancel(ctx), &lead, &agent, rule)
	}()

	wait := uc.NotifyWait
	if wait <= 0 {
		wait = 3 * time.Second
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case out := <-done:
		return out.Primary
	case <-timer.C:
		uc.Log.Info().Str("lead_id", lead.ID).Msg("⏳ notification still in flight, responding")
		return false
	case <-ctx.Done():
		return false
	}
}

func (uc *SubmitLeadUseCase) leadCreated(ctx context.Context, lead *entity.Lead) {
	publish(ctx, uc.Events, uc.Log, lead.CompanyID, entity.EventLeadCreated, map[string]string{
		"lead_id":  lead.ID,
		"status":   lead.Status,
		"agent_id": lead.AgentID,
	})
}
