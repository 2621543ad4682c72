package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/xavierca1/leadflow/internal/entity"
)

func newNotifier(store *memStore, tg *fakeTelegram, fb *fakeFallback, botToken string) *NotifyAgentUseCase {
	return NewNotifyAgentUseCase(tg, fb, memLeads{store}, nil, botToken, "https://hooks.test/default", time.Second, zerolog.Nop())
}

func storedLead(store *memStore) (*entity.Lead, *entity.Agent) {
	agent := &entity.Agent{ID: "a1", Name: "Ana", ChatID: "42"}
	lead := entity.NewLead("co", nil, entity.LeadFields{Name: "Lead"})
	lead.AssignTo(*agent, 0)
	store.leads[lead.ID] = cloneLead(lead)
	return lead, agent
}

func TestNotify_TenantBotTokenWins(t *testing.T) {
	store := newMemStore()
	tg := &fakeTelegram{}
	uc := newNotifier(store, tg, &fakeFallback{}, "")
	lead, agent := storedLead(store)

	out := uc.Notify(context.Background(), lead, agent, &entity.RoutingRule{TelegramBotToken: "tenant-bot", RoundRobinEnabled: true})

	assert.True(t, out.Primary)
	assert.Equal(t, []string{"42"}, tg.sent)
}

func TestNotify_MissingConfigurationFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		chatID   string
		botToken string
	}{
		{"no chat id", "", "bot"},
		{"no bot token anywhere", "42", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			tg := &fakeTelegram{}
			fb := &fakeFallback{}
			uc := newNotifier(store, tg, fb, tt.botToken)
			lead, agent := storedLead(store)
			agent.ChatID = tt.chatID

			out := uc.Notify(context.Background(), lead, agent, nil)

			assert.False(t, out.Primary)
			assert.True(t, out.Fallback)
			assert.Empty(t, tg.sent)
			assert.Equal(t, 1, fb.count())
		})
	}
}

func TestNotify_TenantFallbackURLWins(t *testing.T) {
	store := newMemStore()
	fb := &fakeFallback{}
	uc := newNotifier(store, &fakeTelegram{err: errors.New("down")}, fb, "bot")
	lead, agent := storedLead(store)

	uc.Notify(context.Background(), lead, agent, &entity.RoutingRule{FallbackWebhookURL: "https://tenant.test/hook"})

	assert.Equal(t, "https://tenant.test/hook", fb.payloads[0].WebhookURL)
}

func TestNotify_FallbackHandOffFailureMarksLeadFailed(t *testing.T) {
	store := newMemStore()
	fb := &fakeFallback{err: errors.New("queue closed")}
	uc := newNotifier(store, &fakeTelegram{err: errors.New("down")}, fb, "bot")
	lead, agent := storedLead(store)

	out := uc.Notify(context.Background(), lead, agent, nil)

	assert.Equal(t, entity.LeadStatusFailed, out.Status)
	assert.Equal(t, entity.LeadStatusFailed, store.lead(lead.ID).Status)
	assert.Equal(t, 1, fb.count())
}

func TestFormatLeadMessage_MarksMissingFields(t *testing.T) {
	lead := entity.NewLead("co", nil, entity.LeadFields{Name: "Mona", Phone: "0100"})
	msg := FormatLeadMessage(lead, &entity.Agent{Name: "Ana"})

	assert.Contains(t, msg, "Name: Mona")
	assert.Contains(t, msg, "Phone: 0100")
	assert.Contains(t, msg, "Job title: N/A")
	assert.Contains(t, msg, "Agent: Ana")
}
