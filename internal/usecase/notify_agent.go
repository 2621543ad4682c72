package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/xavierca1/leadflow/internal/entity"
)

var (
	errNoChatID   = errors.New("agent has no telegram chat id")
	errNoBotToken = errors.New("no telegram bot token configured")
)

// DeliveryOutcome is the result of one dispatch.
type DeliveryOutcome struct {
	Primary  bool
	Fallback bool
	Status   string
	Channel  string
	Err      error
}

type NotifyAgentUseCase struct {
	Telegram          TelegramSender
	Fallback          FallbackDispatcher
	Leads             entity.LeadRepositoryInterface
	Events            entity.EventPublisher
	DefaultBotToken   string
	DefaultWebhookURL string
	Timeout           time.Duration
	Log               zerolog.Logger
}

func NewNotifyAgentUseCase(
	telegram TelegramSender,
	fallback FallbackDispatcher,
	leads entity.LeadRepositoryInterface,
	events entity.EventPublisher,
	defaultBotToken, defaultWebhookURL string,
	timeout time.Duration,
	log zerolog.Logger,
) *NotifyAgentUseCase {
	return &NotifyAgentUseCase{
		Telegram:          telegram,
		Fallback:          fallback,
		Leads:             leads,
		Events:            events,
		DefaultBotToken:   defaultBotToken,
		DefaultWebhookURL: defaultWebhookURL,
		Timeout:           timeout,
		Log:               log,
	}
}

// Notify tries Telegram once and, on any failure, hands the lead to the
// fallback exactly once. The outcome is written back to the lead.
func (uc *NotifyAgentUseCase) Notify(ctx context.Context, lead *entity.Lead, agent *entity.Agent, rule *entity.RoutingRule) DeliveryOutcome {
	if rule == nil {
		rule = entity.DefaultRoutingRule(lead.CompanyID)
	}

	primaryErr := uc.sendPrimary(ctx, lead, agent, rule)
	if primaryErr == nil {
		out := DeliveryOutcome{Primary: true, Status: entity.LeadStatusSent, Channel: entity.ChannelTelegram}
		uc.record(ctx, lead, out)
		return out
	}

	uc.Log.Warn().Err(primaryErr).
		Str("lead_id", lead.ID).
		Str("company_id", lead.CompanyID).
		Msg("📵 telegram delivery failed, using fallback")

	webhookURL := rule.FallbackWebhookURL
	if webhookURL == "" {
		webhookURL = uc.DefaultWebhookURL
	}

	out := DeliveryOutcome{Err: primaryErr}
	fbErr := uc.dispatchFallback(ctx, FallbackPayload{
		WebhookURL: webhookURL,
		LeadID:     lead.ID,
		CompanyID:  lead.CompanyID,
		Reason:     primaryErr.Error(),
		Lead:       lead,
		Agent:      agent,
		CreatedAt:  time.Now().UTC(),
	})
	if fbErr != nil {
		uc.Log.Error().Err(fbErr).Str("lead_id", lead.ID).Msg("❌ fallback hand-off failed")
		out.Status = entity.LeadStatusFailed
		out.Channel = entity.ChannelNone
		out.Err = errors.Join(primaryErr, fbErr)
	} else {
		out.Fallback = true
		out.Status = entity.LeadStatusAssigned
		out.Channel = entity.ChannelWebhook
	}

	uc.record(ctx, lead, out)
	return out
}

func (uc *NotifyAgentUseCase) sendPrimary(ctx context.Context, lead *entity.Lead, agent *entity.Agent, rule *entity.RoutingRule) error {
	if agent == nil || strings.TrimSpace(agent.ChatID) == "" {
		return errNoChatID
	}

	token := rule.TelegramBotToken
	if token == "" {
		token = uc.DefaultBotToken
	}
	if token == "" {
		return errNoBotToken
	}
	if uc.Telegram == nil {
		return errNoBotToken
	}

	if uc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.Timeout)
		defer cancel()
	}

	return uc.Telegram.Send(ctx, token, agent.ChatID, FormatLeadMessage(lead, agent))
}

func (uc *NotifyAgentUseCase) dispatchFallback(ctx context.Context, p FallbackPayload) error {
	if uc.Fallback == nil {
		return errors.New("no fallback channel configured")
	}
	if p.WebhookURL == "" {
		return errors.New("no automation webhook configured")
	}
	return uc.Fallback.Dispatch(ctx, p)
}

func (uc *NotifyAgentUseCase) record(ctx context.Context, lead *entity.Lead, out DeliveryOutcome) {
	lead.Status = out.Status
	lead.DeliveryChannel = out.Channel

	if err := uc.Leads.UpdateDelivery(ctx, lead.CompanyID, lead.ID, out.Status, out.Channel); err != nil {
		uc.Log.Error().Err(err).Str("lead_id", lead.ID).Msg("failed to record delivery outcome")
		return
	}

	publish(ctx, uc.Events, uc.Log, lead.CompanyID, entity.EventLeadUpdated, map[string]string{
		"lead_id":          lead.ID,
		"status":           out.Status,
		"delivery_channel": out.Channel,
	})
}

// FormatLeadMessage renders the Telegram text an agent receives.
func FormatLeadMessage(lead *entity.Lead, agent *entity.Agent) string {
	var b strings.Builder
	b.WriteString("🔔 New lead assigned\n\n")
	if agent != nil {
		fmt.Fprintf(&b, "Agent: %s\n", agent.Name)
	}
	fmt.Fprintf(&b, "Name: %s\n", entity.Display(lead.Name))
	fmt.Fprintf(&b, "Phone: %s\n", entity.Display(lead.Phone))
	fmt.Fprintf(&b, "Job title: %s\n", entity.Display(lead.JobTitle))
	fmt.Fprintf(&b, "Source: %s\n", entity.Display(lead.AdSource))
	fmt.Fprintf(&b, "Description: %s\n", entity.Display(lead.Description))
	fmt.Fprintf(&b, "Message: %s", entity.Display(lead.Message))
	return b.String()
}

// publish emits a change event. Failures only cost realtime freshness.
func publish(ctx context.Context, events entity.EventPublisher, log zerolog.Logger, companyID, kind string, data any) {
	if events == nil {
		return
	}

	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err == nil {
			raw = b
		}
	}

	if err := events.Publish(ctx, entity.ChangeEvent{CompanyID: companyID, Type: kind, Data: raw}); err != nil {
		log.Warn().Err(err).Str("event", kind).Str("company_id", companyID).Msg("event publish failed")
	}
}
